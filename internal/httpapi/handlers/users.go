package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/auth"
	"github.com/1kken/SideKickCX/internal/common"
	"github.com/1kken/SideKickCX/internal/httpapi/middleware"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "email and password required")
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
			return
		}
		failFor(c, err, "user")
		return
	}

	token, err := auth.SignJWT(user.ID, user.Role, h.JWTSecret, h.JWTTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) Me(c *gin.Context) {
	uid := c.GetString(middleware.UserIDKey)
	user, err := h.Users.ByID(c.Request.Context(), uid)
	if err != nil {
		failFor(c, err, "user")
		return
	}
	common.OK(c, user)
}
