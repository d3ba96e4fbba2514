package generator

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
// Any OpenAI-compatible endpoint works, including DeepSeek and Ollama's /v1.
type OpenAILLM struct {
	Provider string
	Model    string
	Opts     []option.RequestOption
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide backend.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	// Retries belong to the cycle orchestrator, never to the client.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &OpenAILLM{Provider: provider, Model: cfg.Model, Opts: opts}, nil
}

func (o *OpenAILLM) Name() string { return o.Provider + ":" + o.Model }

func (o *OpenAILLM) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	client := openai.NewClient(o.Opts...)

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
		Temperature: openai.Float(temperatureOf(req)),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Response{}, newBackendError(o.Provider, apiErr.StatusCode, apiErr.Error())
		}
		return Response{}, newBackendError(o.Provider, 0, err.Error())
	}
	if len(resp.Choices) == 0 {
		return Response{}, newBackendError(o.Provider, 0, "empty choices")
	}
	return Response{Text: resp.Choices[0].Message.Content, Duration: time.Since(start)}, nil
}

func (o *OpenAILLM) Provenance(context.Context) Provenance {
	return Provenance{Provider: o.Provider, Model: o.Model}
}
