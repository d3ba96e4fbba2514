package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *AnthropicLLM {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a, err := NewAnthropicLLMFromConfig(&LLMSettings{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-5",
		APIKey:   "sk-ant-test",
		BaseURL:  srv.URL + "/",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return a
}

func TestAnthropicCompleteJoinsTextBlocks(t *testing.T) {
	var body map[string]any
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-5",
  "content": [
    {"type": "text", "text": "<!DOCTYPE html>"},
    {"type": "thinking", "thinking": "considering layout", "signature": "sig"},
    {"type": "text", "text": "<html></html>"}
  ],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 10, "output_tokens": 20}
}`))
	})

	resp, err := a.Complete(context.Background(), Request{Prompt: "build it", Temperature: 0.8, MaxTokens: 512})
	require.NoError(t, err)

	assert.Equal(t, "<!DOCTYPE html><html></html>", resp.Text)
	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	assert.InDelta(t, 0.8, body["temperature"], 1e-9)
	assert.InDelta(t, 512, body["max_tokens"], 1e-9)
	assert.Equal(t, "anthropic:claude-sonnet-4-5", a.Name())
}

func TestAnthropicDeterministicSendsZeroTemperature(t *testing.T) {
	var body map[string]any
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_02","type":"message","role":"assistant","model":"m","content":[{"type":"text","text":"ok"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	})

	_, err := a.Complete(context.Background(), Request{Prompt: "x", Temperature: 0.9, Deterministic: true})
	require.NoError(t, err)
	assert.InDelta(t, 0, body["temperature"], 1e-9)
	assert.InDelta(t, defaultAnthropicMaxTokens, body["max_tokens"], 1e-9)
}

func TestAnthropicOverloadedIsBackendErrorWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	long := strings.Repeat("overloaded ", 200)
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "` + long + `"}}`))
	})

	_, err := a.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "anthropic", be.Provider)
	assert.Equal(t, 529, be.Status)
	assert.Len(t, []rune(be.Body), maxErrorBody)
	assert.Equal(t, int32(1), calls.Load(), "the client must not retry")
}

func TestAnthropicNoTextBlocksIsBackendError(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_03","type":"message","role":"assistant","model":"m","content":[{"type":"thinking","thinking":"hmm","signature":"s"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	})

	resp, err := a.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Empty(t, resp.Text)

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Zero(t, be.Status)
}

func TestNewAnthropicLLMRequiresKeyAndModel(t *testing.T) {
	_, err := NewAnthropicLLMFromConfig(nil)
	assert.Error(t, err)
	_, err = NewAnthropicLLMFromConfig(&LLMSettings{Model: "m"})
	assert.ErrorContains(t, err, "api key")
	_, err = NewAnthropicLLMFromConfig(&LLMSettings{APIKey: "k"})
	assert.Error(t, err)
}
