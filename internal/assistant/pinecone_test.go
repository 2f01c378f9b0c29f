package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1kken/SideKickCX/internal/sse"
)

func TestPinecone_Complete(t *testing.T) {
	var got pineconeChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant/chat/helpdesk", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"hello"}}`)
	}))
	defer srv.Close()

	p := NewPineconeProvider(srv.URL, "k", "helpdesk", "")
	res, err := p.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)

	assert.Equal(t, "hello", res.Content)
	assert.Equal(t, FieldMessageContent, res.Source)
	assert.False(t, got.Stream)
	assert.Equal(t, defaultPineconeModel, got.Model)
	assert.Equal(t, []Turn{{Role: RoleUser, Content: "hi"}}, got.Messages)
}

func TestPinecone_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewPineconeProvider(srv.URL, "k", "", "")
	_, err := p.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, Options{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "quota exceeded", se.Body)
}

func TestPinecone_MissingKey(t *testing.T) {
	p := NewPineconeProvider("", "", "", "")
	_, err := p.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, Options{})
	assert.Error(t, err)
}

func TestPinecone_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pineconeChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "gpt-4o-mini", req.Model)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"content_chunk\",\"delta\":{\"content\":\"a\"}}\n\n")
		_, _ = io.WriteString(w, "data: {\"type\":\"content_chunk\",\"delta\":{\"content\":\"b\"}}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewPineconeProvider(srv.URL, "k", "", "")
	src, err := p.Stream(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)

	var b strings.Builder
	term, err := sse.Decode(context.Background(), src, func(ev sse.Event) error {
		b.WriteString(DeltaText(ev.Data))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, sse.TerminatedBySentinel, term)
	assert.Equal(t, "ab", b.String())
}

func TestPinecone_UploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant/files/sidekickcx", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "faq.md", hdr.Filename)
		assert.Equal(t, "# FAQ", string(body))
		_, _ = io.WriteString(w, `{"id":"file-1","status":"Processing"}`)
	}))
	defer srv.Close()

	p := NewPineconeProvider(srv.URL, "k", "", "")
	out, err := p.UploadFile(context.Background(), "", "faq.md", strings.NewReader("# FAQ"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"file-1","status":"Processing"}`, string(out))
}

func TestOpenRouter_CompleteAndStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req openRouterChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Stream {
			_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\ndata: [DONE]\n\n")
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"full"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "k", "openrouter/auto", "", "")
	turns := []Turn{{Role: RoleUser, Content: "hi"}}

	res, err := p.Complete(context.Background(), turns, Options{})
	require.NoError(t, err)
	assert.Equal(t, "full", res.Content)
	assert.Equal(t, FieldChoiceContent, res.Source)

	src, err := p.Stream(context.Background(), turns, Options{})
	require.NoError(t, err)
	var deltas []string
	_, err = sse.Decode(context.Background(), src, func(ev sse.Event) error {
		deltas = append(deltas, DeltaText(ev.Data))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, deltas)
}

func TestOllama_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":"llama says hi"},"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "")
	res, err := p.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "llama says hi", res.Content)

	var _ Provider = p
	_, streams := any(p).(StreamProvider)
	assert.False(t, streams)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(" Ollama ", func(ctx context.Context, model string) (Provider, error) {
		return NewOllamaProvider("", model), nil
	})

	p, err := r.Get(context.Background(), "OLLAMA", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", p.(*OllamaProvider).Model)

	_, err = r.Get(context.Background(), "nope", "")
	assert.Error(t, err)
	assert.Equal(t, []string{"ollama"}, r.Names())
}
