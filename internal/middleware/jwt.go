package middleware

import (
	"strings" // String manipulation

	"finance_tracker/internal/apperr" // Error taxonomy
	"finance_tracker/internal/auth"   // Auth gateway
	"finance_tracker/internal/domain" // User model

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by Authenticate
const (
	userKey   = "user"
	userIDKey = "userID"
	roleKey   = "role"
)

// Authenticate validates the bearer token and attaches the resolved user to the context
func Authenticate(gw *auth.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			Fail(c, apperr.Unauthorized(auth.MsgTokenInvalid))
			return
		}
		user, err := gw.Authenticate(c.Request.Context(), token)
		if err != nil {
			Fail(c, err)
			return
		}
		c.Set(userKey, user)      // Resolved user for handlers
		c.Set(userIDKey, user.ID) // Store userID in context
		c.Set(roleKey, user.Role) // Role as stored, not as claimed
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUser returns the user attached by Authenticate, or nil
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
