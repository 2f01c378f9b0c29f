package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/auth"
	"github.com/1kken/SideKickCX/internal/common"
	"github.com/1kken/SideKickCX/internal/httpapi/handlers"
	"github.com/1kken/SideKickCX/internal/httpapi/middleware"
	"github.com/1kken/SideKickCX/internal/store/redisstore"
)

type Options struct {
	LoginLimiter *redisstore.RateLimiter
}

func NewRouter(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(h.Metrics))
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// auth
	r.POST("/login", middleware.RateLimitByIP(opts.LoginLimiter, "login", h.Metrics), h.Login)

	api := r.Group("/api")

	customer := api.Group("/customer")
	customer.POST("/chat", h.CustomerChat)
	customer.GET("/:user_id/logs", h.CustomerLogs)
	customer.POST("/tickets", h.CreateTicket)

	pinecone := api.Group("/pinecone")
	pinecone.POST("/chat", h.PineconeChat)
	pinecone.POST("/upload", h.PineconeUpload)

	// Agent workstation (JWT required)
	authGroup := api.Group("/")
	authGroup.Use(middleware.AuthRequired(h.JWTSecret))
	authGroup.GET("/me", h.Me)

	agent := api.Group("/tickets")
	agent.Use(middleware.AuthRequired(h.JWTSecret, auth.RoleAgent))
	agent.GET("", h.ListTickets)
	agent.PATCH("/:id", h.UpdateTicket)
	agent.POST("/:id/responses", h.AgentResponse)

	return r
}
