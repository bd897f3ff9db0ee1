package middleware

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/apperr" // Error taxonomy

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// MsgServerError is returned for every internal failure
const MsgServerError = "Server error"

// Fail records err on the context and stops the handler chain
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler translates the last error recorded by a handler into a status and JSON body
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		e := apperr.As(c.Errors.Last().Err)
		status := e.Status()
		if status >= http.StatusInternalServerError {
			Log(c).WithFields(logrus.Fields{
				"status": status,
				"error":  e.Error(),
			}).Error(e.Message)
			c.JSON(status, gin.H{"error": MsgServerError})
			return
		}
		c.JSON(status, gin.H{"error": e.Message})
	}
}

// Recovery turns panics into a logged 500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		Log(c).WithField("panic", recovered).Error("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": MsgServerError})
	})
}
