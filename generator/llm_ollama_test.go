package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOllama(t *testing.T, h http.HandlerFunc, timeout time.Duration) *OllamaLLM {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	o, err := NewOllamaLLMFromConfig(&LLMSettings{BaseURL: srv.URL + "/", Model: "qwen3-coder:14b", Timeout: timeout})
	require.NoError(t, err)
	return o
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaGenerateReq
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response": "hello world", "done": true}`))
	}, time.Second)

	resp, err := o.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.8, MaxTokens: 8192})
	require.NoError(t, err)

	assert.Equal(t, "hello world", resp.Text)
	assert.Greater(t, resp.Duration, time.Duration(0))
	assert.Equal(t, "qwen3-coder:14b", got.Model)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.8, got.Options.Temperature, 1e-9)
	assert.Equal(t, 8192, got.Options.NumPredict)
	assert.Equal(t, "ollama:qwen3-coder:14b", o.Name())
}

func TestOllamaCompleteDeterministic(t *testing.T) {
	var got ollamaGenerateReq
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response": "x"}`))
	}, time.Second)

	_, err := o.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.9, Deterministic: true})
	require.NoError(t, err)
	assert.Zero(t, got.Options.Temperature)
	assert.Equal(t, 1, got.Options.TopK)
}

func TestOllamaCompleteNonSuccessTruncatesBody(t *testing.T) {
	long := strings.Repeat("e", 2000)
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, long, http.StatusInternalServerError)
	}, time.Second)

	_, err := o.Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusInternalServerError, be.Status)
	assert.Len(t, be.Body, maxErrorBody)
	assert.Equal(t, "ollama", be.Provider)
}

func TestOllamaCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := o.Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.True(t, IsBackendError(err))
}

func TestOllamaProvenance(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			_, _ = w.Write([]byte(`{"details": {"parameter_size": "14.8B", "quantization_level": "Q4_K_M", "family": "qwen3"}}`))
		case "/api/ps":
			_, _ = w.Write([]byte(`{"models": [{"name": "qwen3-coder:14b", "size_vram": 10737418240, "details": {}}]}`))
		default:
			http.NotFound(w, r)
		}
	}, time.Second)

	p := o.Provenance(context.Background())
	assert.Equal(t, "ollama", p.Provider)
	assert.Equal(t, "14.8B", p.ParameterSize)
	assert.Equal(t, "Q4_K_M", p.Quantization)
	assert.Equal(t, "qwen3", p.Family)
	assert.Equal(t, "unknown", p.GPULayers)
	require.NotNil(t, p.VRAMGB)
	assert.InDelta(t, 10.0, *p.VRAMGB, 1e-9)
}

func TestOllamaProvenanceFailuresStayUnknown(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}, time.Second)

	p := o.Provenance(context.Background())
	assert.Equal(t, "unknown", p.ParameterSize)
	assert.Equal(t, "unknown", p.Family)
	assert.Nil(t, p.VRAMGB)
}
