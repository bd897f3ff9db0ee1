package middleware

import (
	"time" // Window duration

	"finance_tracker/internal/apperr" // Error taxonomy
	"finance_tracker/internal/utils"  // Redis counters

	"github.com/gin-gonic/gin" // Gin web framework
)

// MsgTooManyAttempts is returned once a client exceeds the login budget
const MsgTooManyAttempts = "Too many login attempts, please try again later"

// LoginThrottle limits login attempts per client IP with a Redis counter. The
// counter lives in Redis so the API keeps no per-client state in process.
func LoginThrottle(cache *utils.Cache, maxAttempts int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxAttempts <= 0 || !cache.Enabled() {
			c.Next()
			return
		}
		n, err := cache.Hit(c.Request.Context(), "throttle:login:"+c.ClientIP(), window)
		if err != nil {
			Log(c).WithField("error", err.Error()).Warn("Login throttle unavailable") // Fail open
			c.Next()
			return
		}
		if n > int64(maxAttempts) {
			Fail(c, apperr.TooManyRequests(MsgTooManyAttempts))
			return
		}
		c.Next()
	}
}
