package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

// GeminiLLM is a thin wrapper around the official genai client.
type GeminiLLM struct {
	Model string
	cli   *genai.Client
}

func NewGeminiLLMFromConfig(ctx context.Context, cfg *LLMSettings) (*GeminiLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiLLM{Model: cfg.Model, cli: cli}, nil
}

func (g *GeminiLLM) Name() string { return "gemini:" + g.Model }

func (g *GeminiLLM) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperatureOf(req))),
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		gc,
	)
	if err != nil {
		return Response{}, geminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, newBackendError("gemini", 0, "empty candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return Response{Text: sb.String(), Duration: time.Since(start)}, nil
}

func geminiError(err error) *BackendError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newBackendError("gemini", apiErr.Code, apiErr.Error())
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newBackendError("gemini", apiErrPtr.Code, apiErrPtr.Error())
	}
	return newBackendError("gemini", 0, err.Error())
}

func (g *GeminiLLM) Provenance(context.Context) Provenance {
	return Provenance{Provider: "gemini", Model: g.Model}
}
