package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 8192

// AnthropicLLM implements LLMClient on the Anthropic Messages API.
type AnthropicLLM struct {
	Model  string
	client anthropic.Client
}

func NewAnthropicLLMFromConfig(cfg *LLMSettings) (*AnthropicLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key missing; provide backend.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &AnthropicLLM{Model: cfg.Model, client: anthropic.NewClient(opts...)}, nil
}

func (a *AnthropicLLM) Name() string { return "anthropic:" + a.Model }

func (a *AnthropicLLM) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.Model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(temperatureOf(req)),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return Response{}, newBackendError("anthropic", apiErr.StatusCode, apiErr.Error())
		}
		return Response{}, newBackendError("anthropic", 0, err.Error())
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return Response{}, newBackendError("anthropic", 0, "response contained no text blocks")
	}
	return Response{Text: sb.String(), Duration: time.Since(start)}, nil
}

func (a *AnthropicLLM) Provenance(context.Context) Provenance {
	return Provenance{Provider: "anthropic", Model: a.Model}
}
