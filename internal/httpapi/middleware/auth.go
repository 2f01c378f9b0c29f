package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/1kken/SideKickCX/internal/auth"
	"github.com/1kken/SideKickCX/internal/common"
)

const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

// AuthRequired validates the bearer token. When roles are given the token's
// role must be one of them.
func AuthRequired(secret string, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			common.Abort(c, http.StatusUnauthorized, 40101, "unauthorized")
			return
		}

		claims, err := auth.ParseJWT(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			common.Abort(c, http.StatusUnauthorized, 40102, "invalid token")
			return
		}

		if len(roles) > 0 && !hasRole(roles, claims.Role) {
			common.Abort(c, http.StatusForbidden, 40301, "forbidden")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

func hasRole(roles []auth.Role, r auth.Role) bool {
	for _, want := range roles {
		if want == r {
			return true
		}
	}
	return false
}
