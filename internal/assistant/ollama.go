package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider only implements Complete: Ollama streams NDJSON, not SSE.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type ollamaChatReq struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
	Stream   bool   `json:"stream"`
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	return &OllamaProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OllamaProvider) Complete(ctx context.Context, turns []Turn, opts Options) (Result, error) {
	if p.Client == nil {
		return Result{}, errors.New("ollama: http client is nil")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = p.Model
	}

	url := fmt.Sprintf("%s/api/chat", p.BaseURL)
	resp, err := postJSON(ctx, p.Client, "ollama", url, nil,
		ollamaChatReq{Model: model, Messages: turns, Stream: false})
	if err != nil {
		return Result{}, err
	}
	return readResult(resp)
}
