package generator

import "time"

// Idea describes the app to build in one cycle. It is immutable once produced.
type Idea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Slug        string `json:"slug"`
}

// Timings records wall-clock durations of the two generation phases.
type Timings struct {
	Plan  time.Duration
	Code  time.Duration
	Total time.Duration
}

// Draft is the output of one successful two-phase generation, before validation.
type Draft struct {
	Plan    string
	Raw     string
	HTML    string
	Timings Timings
}

// Artifact is a validated document ready for persistence.
type Artifact struct {
	HTML        string
	Plan        string
	Bytes       int
	Timings     Timings
	Attempt     int
	Temperature float64
}

// Provenance describes the backend that produced an artifact.
type Provenance struct {
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	ParameterSize string   `json:"parameter_size,omitempty"`
	Quantization  string   `json:"quantization,omitempty"`
	Family        string   `json:"family,omitempty"`
	GPULayers     string   `json:"gpu_layers,omitempty"`
	VRAMGB        *float64 `json:"vram_gb,omitempty"`
}
