package generator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LLMClient abstracts the text-generation backend so it can be swapped or mocked.
// Implementations must not retry; a failed call is reported once as *BackendError.
type LLMClient interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// ProvenanceReporter is implemented by clients that can describe the model behind them.
type ProvenanceReporter interface {
	Provenance(ctx context.Context) Provenance
}

// Request is a single prompt with its sampling parameters.
type Request struct {
	Prompt      string
	Temperature float64
	// Deterministic asks the backend for greedy decoding; Temperature is ignored.
	Deterministic bool
	MaxTokens     int
}

// Response carries the full generated text and the time the exchange took.
type Response struct {
	Text     string
	Duration time.Duration
}

// LLMSettings holds the basic settings every concrete client needs.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

const maxErrorBody = 500

// BackendError is the single failure kind surfaced by every LLMClient.
type BackendError struct {
	Provider string
	// Status is the HTTP status, or 0 for transport failures.
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s backend error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s backend error %d: %s", e.Provider, e.Status, e.Body)
}

func newBackendError(provider string, status int, body string) *BackendError {
	return &BackendError{Provider: provider, Status: status, Body: truncate(body, maxErrorBody)}
}

// IsBackendError reports whether err came from the generation backend.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

func temperatureOf(req Request) float64 {
	if req.Deterministic {
		return 0
	}
	return req.Temperature
}
