package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/assistant"
	"github.com/1kken/SideKickCX/internal/common"
	"github.com/1kken/SideKickCX/internal/httpapi/middleware"
	"github.com/1kken/SideKickCX/internal/support"
)

type chatReq struct {
	Message  string           `json:"message"`
	UserID   string           `json:"userId"`
	TicketID string           `json:"ticketId"`
	Stream   bool             `json:"stream"`
	History  []assistant.Turn `json:"history"`
}

func (r chatReq) toRequest() support.Request {
	return support.Request{
		UserID:   strings.TrimSpace(r.UserID),
		Message:  r.Message,
		TicketID: strings.TrimSpace(r.TicketID),
		History:  r.History,
	}
}

func replyBody(r *support.Reply) gin.H {
	if r.Handoff {
		return gin.H{
			"success":  true,
			"response": nil,
			"priority": r.Priority,
			"ticketId": r.TicketID,
		}
	}
	return gin.H{
		"success":           true,
		"response":          r.Response,
		"priority":          r.Priority,
		"repetitionCount":   r.RepetitionCount,
		"hasHighRepetition": r.HighRepetition,
		"suggestTicket":     r.SuggestTicket,
		"summary":           r.Summary,
	}
}

// CustomerChat answers a customer message, as JSON or as an SSE stream.
func (h *Handler) CustomerChat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sreq := req.toRequest()
	if sreq.UserID == "" {
		failFor(c, support.ErrMissingUserID, "")
		return
	}
	if strings.TrimSpace(sreq.Message) == "" {
		failFor(c, support.ErrEmptyMessage, "")
		return
	}

	if !h.ChatLimiter.Allow(c.Request.Context(), sreq.UserID) {
		h.Metrics.ObserveRateLimited("chat")
		middleware.TooManyRequests(c, h.ChatLimiter)
		return
	}

	if req.Stream {
		h.customerChatStream(c, sreq)
		return
	}

	reply, err := h.Support.Reply(c.Request.Context(), sreq)
	if err != nil {
		failFor(c, err, "chat")
		return
	}
	common.OK(c, replyBody(reply))
}

type streamResult struct {
	reply *support.Reply
	err   error
}

func (h *Handler) customerChatStream(c *gin.Context, req support.Request) {
	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx

	// avoid gin writing a JSON response later
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: flusher not supported\n\n")
		return
	}

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			// last-resort: send a simple error that won't break SSE framing
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		if event != "" {
			fmt.Fprintf(c.Writer, "event: %s\n", event)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(b))
		flusher.Flush()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	deltas := make(chan string, 16)
	result := make(chan streamResult, 1)
	go func() {
		defer close(deltas)
		reply, err := h.Support.ReplyStream(ctx, req, func(d string) error {
			select {
			case deltas <- d:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		result <- streamResult{reply: reply, err: err}
	}()

	writeJSON("meta", gin.H{
		"type":     "meta",
		"priority": support.Classify(req.Message),
	})

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case d, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			writeJSON("chunk", gin.H{
				"type":  "chunk",
				"delta": d,
			})

		case <-ticker.C:
			writeJSON("ping", gin.H{
				"type": "ping",
				"ts":   time.Now().Unix(),
			})

		case res := <-result:
			// flush whatever was produced before the result landed
			if deltas != nil {
				for d := range deltas {
					writeJSON("chunk", gin.H{"type": "chunk", "delta": d})
				}
			}
			if res.err != nil {
				if errors.Is(res.err, context.Canceled) {
					return
				}
				msg := "internal error"
				if errors.Is(res.err, support.ErrCompletion) {
					msg = apologyMessage
				}
				slog.Warn("chat stream failed", "request_id", c.GetString(middleware.RequestIDKey), "user_id", req.UserID, "error", res.err)
				writeJSON("error", gin.H{
					"type":    "error",
					"message": msg,
				})
				return
			}
			done := replyBody(res.reply)
			done["type"] = "done"
			writeJSON("done", done)
			return

		case <-c.Request.Context().Done():
			return
		}
	}
}

// CustomerLogs lists the newest exchanges of a customer.
func (h *Handler) CustomerLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.Support.ConversationLog(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		failFor(c, err, "logs")
		return
	}
	common.OK(c, gin.H{"logs": logs})
}
