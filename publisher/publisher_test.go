package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autonomous_spa_agent/config"
	"autonomous_spa_agent/generator"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

type fakeMirror struct {
	keys []string
	err  error
}

func (m *fakeMirror) Put(_ context.Context, key string, _ []byte, _ string) error {
	m.keys = append(m.keys, key)
	return m.err
}

func newTestPublisher(t *testing.T, mirror Mirror) (*Publisher, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "apps")
	p, err := New(config.GitConfig{
		RepoPath:    root,
		AuthorName:  "SPA Agent",
		AuthorEmail: "spa-agent@autonomous.dev",
	}, mirror, true, quietLogger())
	require.NoError(t, err)
	return p, root
}

func sampleRecord(slug, title string, date time.Time) Record {
	vram := 9.6
	return Record{
		Idea: generator.Idea{
			Title:       title,
			Description: "Mix **colors** live.",
			Category:    "creative",
			Slug:        slug,
		},
		Artifact: generator.Artifact{
			HTML:        "<!DOCTYPE html><html><head><title>" + title + "</title></head><body></body></html>",
			Plan:        "1. sliders\n2. preview",
			Bytes:       80,
			Timings:     generator.Timings{Plan: 1500 * time.Millisecond, Code: 3250 * time.Millisecond, Total: 4750 * time.Millisecond},
			Attempt:     2,
			Temperature: 0.8000000001,
		},
		Provenance: generator.Provenance{Provider: "ollama", Model: "qwen3-coder:14b", ParameterSize: "14.8B", VRAMGB: &vram},
		Date:       date,
	}
}

func TestPublishWritesFilesAndCommits(t *testing.T) {
	p, root := newTestPublisher(t, nil)
	rec := sampleRecord("color-mixer", "Color Mixer", time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC))

	require.NoError(t, p.Publish(context.Background(), rec))

	html, err := os.ReadFile(filepath.Join(root, "color-mixer", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, rec.Artifact.HTML, string(html))

	plan, err := os.ReadFile(filepath.Join(root, "color-mixer", "plan.md"))
	require.NoError(t, err)
	assert.Equal(t, rec.Artifact.Plan, string(plan))

	raw, err := os.ReadFile(filepath.Join(root, "color-mixer", "metadata.json"))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "Color Mixer", meta.Title)
	assert.Equal(t, "2026-03-04", meta.Date)
	assert.Equal(t, 1.5, meta.Benchmark.PlanSeconds)
	assert.Equal(t, 3.25, meta.Benchmark.CodeSeconds)
	assert.Equal(t, 4.75, meta.Benchmark.TotalSeconds)
	assert.Equal(t, 0.8, meta.Benchmark.Temperature)
	assert.Equal(t, 2, meta.Benchmark.Attempt)
	assert.Equal(t, "unknown", meta.Benchmark.Quantization)
	assert.Equal(t, runtime.GOOS, meta.Benchmark.OS)
	require.NotNil(t, meta.Benchmark.VRAMGB)

	gallery, err := os.ReadFile(filepath.Join(root, GalleryFile))
	require.NoError(t, err)
	assert.Contains(t, string(gallery), `href="color-mixer/index.html"`)
	assert.Contains(t, string(gallery), "<strong>colors</strong>")
	bench, err := os.ReadFile(filepath.Join(root, BenchmarkFile))
	require.NoError(t, err)
	assert.Contains(t, string(bench), "4.75")
	assert.Contains(t, string(bench), "9.6 GB")

	repo, err := gogit.PlainOpen(root)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Add Color Mixer (color-mixer)", commit.Message)
	assert.Equal(t, "SPA Agent", commit.Author.Name)
	for _, path := range []string{"color-mixer/index.html", "color-mixer/metadata.json", "color-mixer/plan.md", GalleryFile, BenchmarkFile} {
		_, err := commit.File(path)
		assert.NoError(t, err, path)
	}
}

func TestPublishRefusesExistingSlug(t *testing.T) {
	p, root := newTestPublisher(t, nil)
	first := sampleRecord("tic-tac-toe", "Tic Tac Toe", time.Now())
	require.NoError(t, p.Publish(context.Background(), first))

	second := sampleRecord("tic-tac-toe", "Tic-Tac-Toe Deluxe", time.Now())
	err := p.Publish(context.Background(), second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSlugExists)

	html, err := os.ReadFile(filepath.Join(root, "tic-tac-toe", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Tic Tac Toe</title>")
}

func TestPublishDiscardsUncommittedApp(t *testing.T) {
	p, root := newTestPublisher(t, nil)
	blocker := filepath.Join(root, BenchmarkFile)
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o755))

	err := p.Publish(context.Background(), sampleRecord("snake", "Snake", time.Now()))
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(root, "snake"))

	require.NoError(t, os.RemoveAll(blocker))
	require.NoError(t, p.Publish(context.Background(), sampleRecord("snake", "Snake", time.Now())))
	assert.FileExists(t, filepath.Join(root, "snake", "index.html"))
}

func TestPublishRejectsUnsafeSlug(t *testing.T) {
	p, _ := newTestPublisher(t, nil)
	for _, slug := range []string{"", "..", "a/b", "Upper"} {
		err := p.Publish(context.Background(), sampleRecord(slug, "T", time.Now()))
		assert.Error(t, err, slug)
	}
}

func TestPublishMirrorsFiles(t *testing.T) {
	m := &fakeMirror{}
	p, _ := newTestPublisher(t, m)

	require.NoError(t, p.Publish(context.Background(), sampleRecord("snake", "Snake", time.Now())))
	assert.Equal(t, []string{"snake/index.html", "snake/metadata.json", "snake/plan.md"}, m.keys)
}

func TestPublishMirrorFailureIsNotFatal(t *testing.T) {
	m := &fakeMirror{err: errors.New("bucket unreachable")}
	p, root := newTestPublisher(t, m)

	require.NoError(t, p.Publish(context.Background(), sampleRecord("snake", "Snake", time.Now())))
	assert.Len(t, m.keys, 1)
	assert.FileExists(t, filepath.Join(root, "snake", "index.html"))
}

func TestNewReopensExistingRepo(t *testing.T) {
	p, root := newTestPublisher(t, nil)
	require.NoError(t, p.Publish(context.Background(), sampleRecord("snake", "Snake", time.Now())))

	again, err := New(config.GitConfig{RepoPath: root, AuthorName: "a", AuthorEmail: "a@b"}, nil, false, quietLogger())
	require.NoError(t, err)
	titles, err := again.Catalog().ExistingTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Snake"}, titles)
}
