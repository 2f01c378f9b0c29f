package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/1kken/SideKickCX/internal/assistant"
	"github.com/1kken/SideKickCX/internal/auth"
	"github.com/1kken/SideKickCX/internal/common"
	"github.com/1kken/SideKickCX/internal/httpapi/middleware"
	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/store/redisstore"
	"github.com/1kken/SideKickCX/internal/support"
)

type Handler struct {
	Support     *support.Service
	Users       *auth.Repo
	Pinecone    *assistant.PineconeProvider
	ChatLimiter *redisstore.RateLimiter
	Metrics     *observability.Metrics
	JWTSecret   string
	JWTTTL      time.Duration
}

const apologyMessage = "I'm sorry, I had trouble processing your question. Please try again later."

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// failFor maps service errors onto the envelope without leaking internals.
func failFor(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, support.ErrMissingUserID):
		common.Fail(c, http.StatusBadRequest, 10002, "userId is required")
	case errors.Is(err, support.ErrEmptyMessage):
		common.Fail(c, http.StatusBadRequest, 10003, "message is required")
	case errors.Is(err, support.ErrInvalidStatus):
		common.Fail(c, http.StatusBadRequest, 10004, "invalid status")
	case errors.Is(err, assistant.ErrInvalidTurn):
		common.Fail(c, http.StatusBadRequest, 10005, "invalid conversation")
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40400, what+" not found")
	case errors.Is(err, support.ErrCompletion):
		common.Fail(c, http.StatusBadGateway, 50201, apologyMessage)
	default:
		slog.Error("request failed", "request_id", c.GetString(middleware.RequestIDKey), "what", what, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
