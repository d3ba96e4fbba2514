package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// OllamaLLM calls the native Ollama /api/generate endpoint with streaming disabled.
type OllamaLLM struct {
	BaseURL string
	Model   string
	http    *http.Client
}

func NewOllamaLLMFromConfig(cfg *LLMSettings) (*OllamaLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("ollama url is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &OllamaLLM{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (o *OllamaLLM) Name() string { return "ollama:" + o.Model }

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
}

type ollamaGenerateReq struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResp struct {
	Response string `json:"response"`
}

func (o *OllamaLLM) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	opts := ollamaOptions{Temperature: temperatureOf(req), NumPredict: req.MaxTokens}
	if req.Deterministic {
		opts.TopK = 1
	}
	body, err := json.Marshal(ollamaGenerateReq{
		Model:   o.Model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: opts,
	})
	if err != nil {
		return Response{}, err
	}

	var out ollamaGenerateResp
	if err := o.postJSON(ctx, "/api/generate", body, &out); err != nil {
		return Response{}, err
	}
	return Response{Text: out.Response, Duration: time.Since(start)}, nil
}

func (o *OllamaLLM) postJSON(ctx context.Context, path string, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return newBackendError("ollama", 0, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return o.do(httpReq, out)
}

func (o *OllamaLLM) do(httpReq *http.Request, out any) error {
	resp, err := o.http.Do(httpReq)
	if err != nil {
		return newBackendError("ollama", 0, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newBackendError("ollama", resp.StatusCode, err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newBackendError("ollama", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newBackendError("ollama", resp.StatusCode, "decode response: "+err.Error())
	}
	return nil
}

type ollamaShowResp struct {
	Details struct {
		ParameterSize     string `json:"parameter_size"`
		QuantizationLevel string `json:"quantization_level"`
		Family            string `json:"family"`
	} `json:"details"`
}

type ollamaPSResp struct {
	Models []struct {
		Name     string `json:"name"`
		SizeVRAM int64  `json:"size_vram"`
		Details  struct {
			GPULayers json.RawMessage `json:"gpu_layers"`
		} `json:"details"`
	} `json:"models"`
}

// Provenance asks Ollama for model details and GPU placement. Lookup failures
// leave the corresponding fields at "unknown".
func (o *OllamaLLM) Provenance(ctx context.Context) Provenance {
	p := Provenance{
		Provider:      "ollama",
		Model:         o.Model,
		ParameterSize: "unknown",
		Quantization:  "unknown",
		Family:        "unknown",
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	showBody, _ := json.Marshal(map[string]string{"name": o.Model})
	var show ollamaShowResp
	if err := o.postJSON(ctx, "/api/show", showBody, &show); err == nil {
		p.ParameterSize = orUnknown(show.Details.ParameterSize)
		p.Quantization = orUnknown(show.Details.QuantizationLevel)
		p.Family = orUnknown(show.Details.Family)
	}

	psReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/ps", nil)
	if err != nil {
		return p
	}
	var ps ollamaPSResp
	if err := o.do(psReq, &ps); err != nil {
		return p
	}
	for _, m := range ps.Models {
		if !strings.Contains(m.Name, o.Model) {
			continue
		}
		p.GPULayers = "unknown"
		if len(m.Details.GPULayers) > 0 {
			p.GPULayers = strings.Trim(string(m.Details.GPULayers), `"`)
		}
		if m.SizeVRAM > 0 {
			gb := math.Round(float64(m.SizeVRAM)/(1<<30)*10) / 10
			p.VRAMGB = &gb
		}
		break
	}
	return p
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
