package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation

	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/auth"       // Auth messages
	"finance_tracker/internal/db"         // Duplicate detection
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Error reporting, logging
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

const usersCachePrefix = "admin:users:"

// usersPage is a page of users
type usersPage struct {
	Users      []domain.User `json:"users"`       // List of users
	Page       int           `json:"page"`        // Current page
	PageSize   int           `json:"page_size"`   // Page size
	Total      int64         `json:"total"`       // Total number of users
	TotalPages int           `json:"total_pages"` // Total pages
	Cached     bool          `json:"cached"`      // Served from cache
}

// invalidateUsers drops cached user listings
func invalidateUsers(c *gin.Context, cache *utils.Cache) {
	if err := cache.DeletePrefix(c.Request.Context(), usersCachePrefix); err != nil {
		middleware.Log(c).WithField("error", err.Error()).Warn("Failed to invalidate users cache")
	}
}

// ListUsersHandler returns a page of users
func ListUsersHandler(gdb *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p := parsePagination(c)
		cacheKey := usersCachePrefix + "page=" + strconv.Itoa(p.Page) + ":size=" + strconv.Itoa(p.PageSize)

		var resp usersPage
		if found, err := cache.Get(ctx, cacheKey, &resp); err == nil && found {
			resp.Cached = true
			c.JSON(http.StatusOK, resp)
			return
		}
		var total int64
		if err := gdb.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to count users", err))
			return
		}
		users := []domain.User{}
		if err := gdb.WithContext(ctx).Order("created_at asc").Offset(p.Offset()).Limit(p.PageSize).Find(&users).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch users", err))
			return
		}
		resp = usersPage{
			Users:      users,
			Page:       p.Page,
			PageSize:   p.PageSize,
			Total:      total,
			TotalPages: p.TotalPages(total),
		}
		_ = cache.Set(ctx, cacheKey, resp) // Cache the response for future requests
		c.JSON(http.StatusOK, resp)
	}
}

// GetMeHandler returns the caller's profile
func GetMeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// loadManagedUser loads the user named by :id if the caller is that user or an admin
func loadManagedUser(c *gin.Context, gdb *gorm.DB, caller *domain.User) (*domain.User, error) {
	id := c.Param("id")
	if id != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Forbidden(auth.MsgForbidden)
	}
	var target domain.User
	err := gdb.WithContext(c.Request.Context()).Where("id = ?", id).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	} else if err != nil {
		return nil, apperr.Internal("Failed to fetch user", err)
	}
	return &target, nil
}

// GetUserHandler returns one user
func GetUserHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireUser(c)
		if !ok {
			return
		}
		target, err := loadManagedUser(c, gdb, caller)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, target)
	}
}

// UpdateUserRequest holds the profile fields that can change; nil means unchanged
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
	Currency *string `json:"currency" binding:"omitempty,len=3,alpha"`
}

// UpdateUserHandler updates a profile; only admins may change roles
func UpdateUserHandler(gdb *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireUser(c)
		if !ok {
			return
		}
		target, err := loadManagedUser(c, gdb, caller)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		var req UpdateUserRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			updates["email"] = auth.NormalizeEmail(*req.Email)
		}
		if req.Currency != nil {
			updates["currency"] = strings.ToUpper(*req.Currency)
		}
		if req.Role != nil && *req.Role != target.Role {
			if !caller.IsAdmin() {
				middleware.Fail(c, apperr.Forbidden(auth.MsgForbidden))
				return
			}
			updates["role"] = *req.Role
		}
		if len(updates) > 0 {
			if err := gdb.WithContext(c.Request.Context()).Model(target).Updates(updates).Error; err != nil {
				if db.IsDuplicate(err) {
					middleware.Fail(c, apperr.Validation("Email already in use"))
					return
				}
				middleware.Fail(c, apperr.Internal("Failed to update user", err))
				return
			}
			if err := gdb.WithContext(c.Request.Context()).Where("id = ?", target.ID).First(target).Error; err != nil {
				middleware.Fail(c, apperr.Internal("Failed to fetch user", err))
				return
			}
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"user_id":   target.ID,
			"actor_id":  caller.ID,
			"fields":    len(updates),
			"operation": "update_user",
		}).Info("User updated")
		invalidateUsers(c, cache)
		c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": target})
	}
}

// DeleteUserHandler deletes a user and every record they own
func DeleteUserHandler(gdb *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireUser(c)
		if !ok {
			return
		}
		target, err := loadManagedUser(c, gdb, caller)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		err = gdb.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			owned := []any{&domain.Transaction{}, &domain.Budget{}, &domain.Goal{}, &domain.Category{}, &domain.Notification{}}
			for _, m := range owned {
				if err := tx.Where("user_id = ?", target.ID).Delete(m).Error; err != nil {
					return err // Return error to rollback
				}
			}
			return tx.Delete(target).Error
		})
		if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to delete user", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"user_id":   target.ID,
			"actor_id":  caller.ID,
			"operation": "delete_user",
		}).Info("User deleted")
		invalidateUsers(c, cache)
		invalidateReports(c, cache, target.ID)
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}
