package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// postJSON sends body as JSON and returns the response when the status is 2xx.
// On any other status the body is drained into a StatusError and closed.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return do(client, provider, req)
}

func do(client *http.Client, provider string, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return nil, &StatusError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

// streamingClient drops the overall timeout; ctx bounds a streamed response instead.
func streamingClient(c *http.Client) *http.Client {
	cp := *c
	cp.Timeout = 0
	return &cp
}

func readResult(resp *http.Response) (Result, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	res, derr := DecodeResult(body)
	if derr != nil {
		slog.Warn("assistant: malformed completion body, using fallback", "error", derr)
	}
	return res, nil
}
