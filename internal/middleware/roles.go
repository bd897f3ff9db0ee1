package middleware

import (
	"finance_tracker/internal/auth" // Auth gateway

	"github.com/gin-gonic/gin" // Gin web framework
)

// Authorize rejects authenticated requests whose role is not in roles
func Authorize(gw *auth.Gateway, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gw.Authorize(CurrentUser(c), roles...); err != nil {
			Fail(c, err)
			return
		}
		c.Next()
	}
}
