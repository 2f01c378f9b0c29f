package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/1kken/SideKickCX/internal/sse"
)

const (
	defaultPineconeBaseURL   = "https://prod-1-data.ke.pinecone.io"
	defaultPineconeAssistant = "sidekickcx"
	defaultPineconeModel     = "gpt-4o"
)

// PineconeProvider talks to the Pinecone Assistant data plane.
type PineconeProvider struct {
	BaseURL     string
	APIKey      string
	AssistantID string
	Model       string
	Client      *http.Client
}

type pineconeChatReq struct {
	Messages []Turn `json:"messages"`
	Stream   bool   `json:"stream"`
	Model    string `json:"model"`
}

func NewPineconeProvider(baseURL, apiKey, assistantID, model string) *PineconeProvider {
	if baseURL == "" {
		baseURL = defaultPineconeBaseURL
	}
	if assistantID == "" {
		assistantID = defaultPineconeAssistant
	}
	if model == "" {
		model = defaultPineconeModel
	}
	return &PineconeProvider{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		AssistantID: assistantID,
		Model:       model,
		Client:      &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *PineconeProvider) check() error {
	if p.Client == nil {
		return errors.New("pinecone: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return errors.New("pinecone: api key is required")
	}
	return nil
}

func (p *PineconeProvider) model(opts Options) string {
	if m := strings.TrimSpace(opts.Model); m != "" {
		return m
	}
	return p.Model
}

// Send posts a chat request to assistantID (the configured assistant when empty)
// and returns the raw response. The caller owns the body.
func (p *PineconeProvider) Send(ctx context.Context, assistantID string, turns []Turn, opts Options) (*http.Response, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	if assistantID == "" {
		assistantID = p.AssistantID
	}

	client := p.Client
	if opts.Stream {
		client = streamingClient(p.Client)
	}

	url := fmt.Sprintf("%s/assistant/chat/%s", p.BaseURL, assistantID)
	return postJSON(ctx, client, "pinecone", url,
		map[string]string{"Api-Key": p.APIKey},
		pineconeChatReq{Messages: turns, Stream: opts.Stream, Model: p.model(opts)},
	)
}

func (p *PineconeProvider) Complete(ctx context.Context, turns []Turn, opts Options) (Result, error) {
	opts.Stream = false
	resp, err := p.Send(ctx, "", turns, opts)
	if err != nil {
		return Result{}, err
	}
	return readResult(resp)
}

func (p *PineconeProvider) Stream(ctx context.Context, turns []Turn, opts Options) (sse.ByteSource, error) {
	opts.Stream = true
	resp, err := p.Send(ctx, "", turns, opts)
	if err != nil {
		return nil, err
	}
	return sse.NewReaderSource(resp.Body, 0), nil
}

// UploadFile adds a document to the assistant's knowledge files.
func (p *PineconeProvider) UploadFile(ctx context.Context, assistantID, filename string, r io.Reader) (json.RawMessage, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	if assistantID == "" {
		assistantID = p.AssistantID
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/assistant/files/%s", p.BaseURL, assistantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", p.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := do(p.Client, "pinecone", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pinecone: decode upload response: %w", err)
	}
	return out, nil
}
