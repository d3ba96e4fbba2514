package publisher

import (
	"math"
	"runtime"
	"time"

	"autonomous_spa_agent/generator"
)

const dateLayout = "2006-01-02"

// Record is everything the publisher needs to persist one accepted app.
type Record struct {
	Idea       generator.Idea
	Artifact   generator.Artifact
	Provenance generator.Provenance
	Date       time.Time
}

// Metadata is the content of <slug>/metadata.json.
type Metadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Slug        string    `json:"slug"`
	Date        string    `json:"date"`
	Benchmark   Benchmark `json:"benchmark"`

	// DirName is the directory the metadata was read from.
	DirName string `json:"-"`
}

// Benchmark holds timing and provenance of the generation that produced an app.
type Benchmark struct {
	PlanSeconds   float64  `json:"plan_seconds"`
	CodeSeconds   float64  `json:"code_seconds"`
	TotalSeconds  float64  `json:"total_seconds"`
	HTMLBytes     int      `json:"html_bytes"`
	Temperature   float64  `json:"temperature"`
	Attempt       int      `json:"attempt"`
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	ParameterSize string   `json:"parameter_size"`
	Quantization  string   `json:"quantization"`
	Family        string   `json:"family"`
	GPULayers     string   `json:"gpu_layers,omitempty"`
	VRAMGB        *float64 `json:"vram_gb"`
	OS            string   `json:"os"`
	Arch          string   `json:"arch"`
}

// NewMetadata builds the stored metadata for rec.
func NewMetadata(rec Record) Metadata {
	a, p := rec.Artifact, rec.Provenance
	return Metadata{
		Title:       rec.Idea.Title,
		Description: rec.Idea.Description,
		Category:    rec.Idea.Category,
		Slug:        rec.Idea.Slug,
		Date:        rec.Date.UTC().Format(dateLayout),
		Benchmark: Benchmark{
			PlanSeconds:   seconds(a.Timings.Plan),
			CodeSeconds:   seconds(a.Timings.Code),
			TotalSeconds:  seconds(a.Timings.Total),
			HTMLBytes:     a.Bytes,
			Temperature:   round(a.Temperature, 2),
			Attempt:       a.Attempt,
			Provider:      orUnknown(p.Provider),
			Model:         orUnknown(p.Model),
			ParameterSize: orUnknown(p.ParameterSize),
			Quantization:  orUnknown(p.Quantization),
			Family:        orUnknown(p.Family),
			GPULayers:     p.GPULayers,
			VRAMGB:        p.VRAMGB,
			OS:            runtime.GOOS,
			Arch:          runtime.GOARCH,
		},
	}
}

func seconds(d time.Duration) float64 { return round(d.Seconds(), 2) }

func round(f float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(f*scale) / scale
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
