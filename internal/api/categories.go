package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Error reporting, logging

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// MsgCategoryExists is returned when a visible category already has the name
const MsgCategoryExists = "Category already exists"

// CategoryRequest is the body of create and update requests
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// categoryTaken reports whether a category named name is already visible to the user
func categoryTaken(c *gin.Context, gdb *gorm.DB, userID, name, exceptID string) (bool, error) {
	var n int64
	query := gdb.WithContext(c.Request.Context()).Model(&domain.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Where("shared = ? OR user_id = ?", true, userID)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateCategoryHandler creates a category; categories created by admins are shared
func CreateCategoryHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		var req CategoryRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			middleware.Fail(c, apperr.Validation("name is required"))
			return
		}
		taken, err := categoryTaken(c, gdb, user.ID, name, "")
		if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to check category", err))
			return
		} else if taken {
			middleware.Fail(c, apperr.Validation(MsgCategoryExists))
			return
		}
		cat := domain.Category{UserID: user.ID, Name: name, Shared: user.IsAdmin()}
		if err := gdb.WithContext(c.Request.Context()).Create(&cat).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to create category", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"category_id": cat.ID,
			"user_id":     user.ID,
			"shared":      cat.Shared,
			"operation":   "create_category",
		}).Info("Category created")
		c.JSON(http.StatusCreated, cat)
	}
}

// ListCategoriesHandler returns shared categories and the caller's own
func ListCategoriesHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		var cats []domain.Category
		err := gdb.WithContext(c.Request.Context()).
			Where("shared = ? OR user_id = ?", true, user.ID).
			Order("name asc").
			Find(&cats).Error
		if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch categories", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": cats})
	}
}

// UpdateCategoryHandler renames a category
func UpdateCategoryHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		cat, err := findOwned[domain.Category](c, gdb, user, "Category")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		var req CategoryRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			middleware.Fail(c, apperr.Validation("name is required"))
			return
		}
		taken, err := categoryTaken(c, gdb, cat.UserID, name, cat.ID)
		if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to check category", err))
			return
		} else if taken {
			middleware.Fail(c, apperr.Validation(MsgCategoryExists))
			return
		}
		if err := gdb.WithContext(c.Request.Context()).Model(cat).Update("name", name).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to update category", err))
			return
		}
		cat.Name = name
		middleware.Log(c).WithFields(logrus.Fields{
			"category_id": cat.ID,
			"user_id":     user.ID,
			"operation":   "update_category",
		}).Info("Category updated")
		c.JSON(http.StatusOK, cat)
	}
}

// DeleteCategoryHandler deletes a category
func DeleteCategoryHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		cat, err := findOwned[domain.Category](c, gdb, user, "Category")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := gdb.WithContext(c.Request.Context()).Delete(cat).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to delete category", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"category_id": cat.ID,
			"user_id":     user.ID,
			"operation":   "delete_category",
		}).Info("Category deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
	}
}
