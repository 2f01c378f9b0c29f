package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/1kken/SideKickCX/internal/sse"
)

type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Client  *http.Client
}

type openRouterChatReq struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
	Stream   bool   `json:"stream"`
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenRouterProvider) send(ctx context.Context, turns []Turn, opts Options) (*http.Response, error) {
	if p.Client == nil {
		return nil, errors.New("openrouter: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = strings.TrimSpace(p.Model)
	}
	if model == "" {
		return nil, errors.New("openrouter: model is required")
	}

	headers := map[string]string{"Authorization": "Bearer " + p.APIKey}
	if p.SiteURL != "" {
		headers["HTTP-Referer"] = p.SiteURL
	}
	if p.AppName != "" {
		headers["X-Title"] = p.AppName
	}

	client := p.Client
	if opts.Stream {
		client = streamingClient(p.Client)
	}

	url := fmt.Sprintf("%s/chat/completions", p.BaseURL)
	return postJSON(ctx, client, "openrouter", url, headers,
		openRouterChatReq{Model: model, Messages: turns, Stream: opts.Stream})
}

func (p *OpenRouterProvider) Complete(ctx context.Context, turns []Turn, opts Options) (Result, error) {
	opts.Stream = false
	resp, err := p.send(ctx, turns, opts)
	if err != nil {
		return Result{}, err
	}
	return readResult(resp)
}

// Stream returns the raw SSE body; chunks carry choices[0].delta.content.
func (p *OpenRouterProvider) Stream(ctx context.Context, turns []Turn, opts Options) (sse.ByteSource, error) {
	opts.Stream = true
	resp, err := p.send(ctx, turns, opts)
	if err != nil {
		return nil, err
	}
	return sse.NewReaderSource(resp.Body, 0), nil
}
