package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/assistant"
	"github.com/1kken/SideKickCX/internal/common"
)

type pineconeChatReq struct {
	Messages    []assistant.Turn `json:"messages"`
	Model       string           `json:"model"`
	Stream      bool             `json:"stream"`
	AssistantID string           `json:"assistantId"`
}

func (h *Handler) pineconeReady(c *gin.Context) bool {
	if h.Pinecone == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "pinecone is not configured")
		return false
	}
	return true
}

func upstreamFail(c *gin.Context, err error) {
	var se *assistant.StatusError
	if errors.As(err, &se) {
		slog.Warn("pinecone upstream error", "status", se.StatusCode, "body", se.Body)
	} else {
		slog.Warn("pinecone call failed", "error", err)
	}
	common.Fail(c, http.StatusBadGateway, 50202, "assistant service unavailable")
}

// PineconeChat forwards a conversation to the assistant. Streamed answers are
// passed through byte for byte.
func (h *Handler) PineconeChat(c *gin.Context) {
	if !h.pineconeReady(c) {
		return
	}
	var req pineconeChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := assistant.ValidateTurns(req.Messages); err != nil {
		failFor(c, err, "")
		return
	}

	resp, err := h.Pinecone.Send(c.Request.Context(), req.AssistantID, req.Messages,
		assistant.Options{Model: req.Model, Stream: req.Stream})
	if err != nil {
		upstreamFail(c, err)
		return
	}
	defer resp.Body.Close()

	if !req.Stream {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			upstreamFail(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	buf := make([]byte, 4*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				slog.Warn("pinecone stream interrupted", "error", rerr)
			}
			return
		}
	}
}

func (h *Handler) PineconeUpload(c *gin.Context) {
	if !h.pineconeReady(c) {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10006, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10007, "cannot read file")
		return
	}
	defer f.Close()

	out, err := h.Pinecone.UploadFile(c.Request.Context(), c.PostForm("assistantId"), fh.Filename, f)
	if err != nil {
		upstreamFail(c, err)
		return
	}
	common.OK(c, out)
}
