package api

import (
	"math"     // Rounding
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Month parsing

	"finance_tracker/internal/alerts"     // Spending totals
	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/db"         // Duplicate detection
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Error reporting, logging

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// MsgBudgetExists is returned when a budget for the same category and month exists
const MsgBudgetExists = "Budget already exists for this category and month"

// BudgetRequest is the body of a create request
type BudgetRequest struct {
	Category      string  `json:"category" binding:"required,max=64"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Month         string  `json:"month" binding:"required"` // YYYY-MM
	Notifications *bool   `json:"notifications"`            // Defaults to true
}

// BudgetPatch is the body of an update request; nil means unchanged
type BudgetPatch struct {
	Category      *string  `json:"category" binding:"omitempty,min=1,max=64"`
	Amount        *float64 `json:"amount" binding:"omitempty,gt=0"`
	Month         *string  `json:"month"`
	Notifications *bool    `json:"notifications"`
}

// BudgetView is a budget with its current spending
type BudgetView struct {
	domain.Budget
	Spent     float64 `json:"spent"`     // Expenses in the category this month
	Remaining float64 `json:"remaining"` // Amount minus spent, negative when over
}

// parseMonth validates a YYYY-MM month
func parseMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(domain.MonthLayout, s); err != nil {
		return "", apperr.Validation("month must be in YYYY-MM format")
	}
	return s, nil
}

// budgetView computes the spending of b
func budgetView(c *gin.Context, gdb *gorm.DB, b *domain.Budget) (BudgetView, error) {
	spent, err := alerts.Spent(c.Request.Context(), gdb, b.UserID, b.Category, b.Month)
	if err != nil {
		return BudgetView{}, apperr.Internal("Failed to compute spending", err)
	}
	spent = math.Round(spent*100) / 100
	return BudgetView{Budget: *b, Spent: spent, Remaining: math.Round((b.Amount-spent)*100) / 100}, nil
}

// saveBudget maps unique index violations to a validation error
func saveBudget(gdb *gorm.DB, b *domain.Budget, create bool) error {
	var err error
	if create {
		err = gdb.Create(b).Error
	} else {
		err = gdb.Save(b).Error
	}
	if db.IsDuplicate(err) {
		return apperr.Validation(MsgBudgetExists)
	} else if err != nil {
		return apperr.Internal("Failed to save budget", err)
	}
	return nil
}

// CreateBudgetHandler creates a monthly budget for a category
func CreateBudgetHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		var req BudgetRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		month, err := parseMonth(req.Month)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		category := domain.NormalizeCategory(req.Category)
		if category == "" {
			middleware.Fail(c, apperr.Validation("category is required"))
			return
		}
		b := domain.Budget{
			UserID:        user.ID,
			Category:      category,
			Amount:        req.Amount,
			Month:         month,
			Notifications: req.Notifications == nil || *req.Notifications,
		}
		if err := saveBudget(gdb.WithContext(c.Request.Context()), &b, true); err != nil {
			middleware.Fail(c, err)
			return
		}
		// gorm skips zero values that carry a default on insert
		if !b.Notifications {
			if err := gdb.WithContext(c.Request.Context()).Model(&b).Update("notifications", false).Error; err != nil {
				middleware.Fail(c, apperr.Internal("Failed to save budget", err))
				return
			}
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"budget_id": b.ID,
			"user_id":   user.ID,
			"category":  b.Category,
			"month":     b.Month,
			"operation": "create_budget",
		}).Info("Budget created")
		view, err := budgetView(c, gdb, &b)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, view)
	}
}

// ListBudgetsHandler returns the caller's budgets, optionally for one month
func ListBudgetsHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		query := gdb.WithContext(c.Request.Context()).Where("user_id = ?", user.ID)
		if m := c.Query("month"); m != "" {
			month, err := parseMonth(m)
			if err != nil {
				middleware.Fail(c, err)
				return
			}
			query = query.Where("month = ?", month)
		}
		var budgets []domain.Budget
		if err := query.Order("month desc, category asc").Find(&budgets).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch budgets", err))
			return
		}
		views := make([]BudgetView, 0, len(budgets))
		for i := range budgets {
			v, err := budgetView(c, gdb, &budgets[i])
			if err != nil {
				middleware.Fail(c, err)
				return
			}
			views = append(views, v)
		}
		c.JSON(http.StatusOK, gin.H{"budgets": views})
	}
}

// GetBudgetHandler returns one budget
func GetBudgetHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		b, err := findOwned[domain.Budget](c, gdb, user, "Budget")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		view, err := budgetView(c, gdb, b)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// UpdateBudgetHandler applies a partial update to a budget
func UpdateBudgetHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		b, err := findOwned[domain.Budget](c, gdb, user, "Budget")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		var req BudgetPatch
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		if req.Category != nil {
			if b.Category = domain.NormalizeCategory(*req.Category); b.Category == "" {
				middleware.Fail(c, apperr.Validation("category is required"))
				return
			}
		}
		if req.Amount != nil {
			b.Amount = *req.Amount
		}
		if req.Month != nil {
			if b.Month, err = parseMonth(*req.Month); err != nil {
				middleware.Fail(c, err)
				return
			}
		}
		if req.Notifications != nil {
			b.Notifications = *req.Notifications
		}
		if err := saveBudget(gdb.WithContext(c.Request.Context()), b, false); err != nil {
			middleware.Fail(c, err)
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"budget_id": b.ID,
			"user_id":   b.UserID,
			"operation": "update_budget",
		}).Info("Budget updated")
		view, err := budgetView(c, gdb, b)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// DeleteBudgetHandler deletes a budget
func DeleteBudgetHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		b, err := findOwned[domain.Budget](c, gdb, user, "Budget")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := gdb.WithContext(c.Request.Context()).Delete(b).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to delete budget", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"budget_id": b.ID,
			"user_id":   b.UserID,
			"operation": "delete_budget",
		}).Info("Budget deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
	}
}
