package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/common"
	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/store/redisstore"
)

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(rl *redisstore.RateLimiter, scope string, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.Request.Context(), scope+":"+c.ClientIP()) {
			m.ObserveRateLimited(scope)
			TooManyRequests(c, rl)
			return
		}
		c.Next()
	}
}

func TooManyRequests(c *gin.Context, rl *redisstore.RateLimiter) {
	if rl != nil {
		c.Header("Retry-After", strconv.Itoa(int(rl.Window().Seconds())))
	}
	common.Abort(c, http.StatusTooManyRequests, 42900, "too many requests")
}
