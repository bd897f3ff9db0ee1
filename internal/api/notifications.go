package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_tracker/internal/alerts"     // Event publishing
	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/events"     // Event types
	"finance_tracker/internal/middleware" // Error reporting, logging

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// NotificationRequest is an admin-sent notification
type NotificationRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required,max=1000"`
}

// ListNotificationsHandler returns the caller's notifications, newest first
func ListNotificationsHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		query := gdb.WithContext(c.Request.Context()).Where("user_id = ?", user.ID)
		if strings.EqualFold(c.Query("unread"), "true") {
			query = query.Where("`read` = ?", false)
		}
		var ns []domain.Notification
		if err := query.Order("created_at desc").Find(&ns).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch notifications", err))
			return
		}
		var unread int64
		if err := gdb.WithContext(c.Request.Context()).Model(&domain.Notification{}).
			Where("user_id = ? AND `read` = ?", user.ID, false).Count(&unread).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to count notifications", err))
			return
		}
		if ns == nil {
			ns = []domain.Notification{}
		}
		c.JSON(http.StatusOK, gin.H{"notifications": ns, "unread": unread})
	}
}

// MarkNotificationReadHandler marks one notification as read
func MarkNotificationReadHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		n, err := findOwned[domain.Notification](c, gdb, user, "Notification")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := gdb.WithContext(c.Request.Context()).Model(n).Update("read", true).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to update notification", err))
			return
		}
		n.Read = true
		c.JSON(http.StatusOK, n)
	}
}

// MarkAllNotificationsReadHandler marks every notification of the caller as read
func MarkAllNotificationsReadHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		res := gdb.WithContext(c.Request.Context()).Model(&domain.Notification{}).
			Where("user_id = ? AND `read` = ?", user.ID, false).
			Update("read", true)
		if res.Error != nil {
			middleware.Fail(c, apperr.Internal("Failed to update notifications", res.Error))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": res.RowsAffected})
	}
}

// DeleteNotificationHandler deletes a notification
func DeleteNotificationHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		n, err := findOwned[domain.Notification](c, gdb, user, "Notification")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := gdb.WithContext(c.Request.Context()).Delete(n).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to delete notification", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
	}
}

// SendNotificationHandler lets an admin notify a user
func SendNotificationHandler(gdb *gorm.DB, checker *alerts.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := requireUser(c)
		if !ok {
			return
		}
		var req NotificationRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		var target domain.User
		err := gdb.WithContext(c.Request.Context()).Where("id = ?", req.UserID).First(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFound("User not found"))
			return
		} else if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch user", err))
			return
		}
		n := domain.Notification{UserID: target.ID, Message: strings.TrimSpace(req.Message)}
		if err := gdb.WithContext(c.Request.Context()).Create(&n).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to create notification", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         target.ID,
			"actor_id":        admin.ID,
			"operation":       "send_notification",
		}).Info("Notification sent")
		checker.Publish(c.Request.Context(), events.NewEvent(events.TypeNotification, n.UserID, n.ID, n.Message))
		c.JSON(http.StatusCreated, n)
	}
}
