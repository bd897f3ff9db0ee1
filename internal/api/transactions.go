package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Dates

	"finance_tracker/internal/alerts"     // Budget alerts
	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/auth"       // Auth messages
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Error reporting, logging
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// TransactionRequest is the body of a create request
type TransactionRequest struct {
	Type              string   `json:"type" binding:"required,oneof=income expense"`
	Amount            float64  `json:"amount" binding:"required,gt=0"`
	Category          string   `json:"category" binding:"required,oneof=food transport entertainment utilities salary other"`
	Description       string   `json:"description" binding:"max=500"`
	Tags              []string `json:"tags" binding:"max=20,dive,max=32"`
	IsRecurring       bool     `json:"is_recurring"`
	RecurrencePattern string   `json:"recurrence_pattern" binding:"omitempty,oneof=daily weekly monthly yearly"`
	RecurrenceEndDate string   `json:"recurrence_end_date"`
	Date              string   `json:"date"` // Defaults to now
}

// TransactionPatch is the body of an update request; nil means unchanged
type TransactionPatch struct {
	Type              *string   `json:"type" binding:"omitempty,oneof=income expense"`
	Amount            *float64  `json:"amount" binding:"omitempty,gt=0"`
	Category          *string   `json:"category" binding:"omitempty,oneof=food transport entertainment utilities salary other"`
	Description       *string   `json:"description" binding:"omitempty,max=500"`
	Tags              *[]string `json:"tags" binding:"omitempty,max=20,dive,max=32"`
	IsRecurring       *bool     `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern" binding:"omitempty,oneof=daily weekly monthly yearly"`
	RecurrenceEndDate *string   `json:"recurrence_end_date"`
	Date              *string   `json:"date"`
}

// cleanTags trims tags and drops empty ones
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeRecurrence clears recurrence details on non-recurring transactions
func normalizeRecurrence(t *domain.Transaction) error {
	if !t.IsRecurring {
		t.RecurrencePattern = ""
		t.RecurrenceEndDate = nil
		return nil
	}
	if t.RecurrencePattern == "" {
		return apperr.Validation("recurrence_pattern is required for recurring transactions")
	}
	if t.RecurrenceEndDate != nil && t.RecurrenceEndDate.Before(t.Date) {
		return apperr.Validation("recurrence_end_date must not be before date")
	}
	return nil
}

// invalidateReports drops cached reports of a user and the admin listings
func invalidateReports(c *gin.Context, cache *utils.Cache, userID string) {
	ctx := c.Request.Context()
	for _, prefix := range []string{reportCachePrefix + userID + ":", adminTxCachePrefix} {
		if err := cache.DeletePrefix(ctx, prefix); err != nil {
			middleware.Log(c).WithFields(logrus.Fields{
				"prefix": prefix,
				"error":  err.Error(),
			}).Warn("Failed to invalidate cache")
		}
	}
}

// checkBudget raises a budget alert if the change pushed spending over a limit.
// Alert failures are logged; the transaction itself has already been saved.
func checkBudget(c *gin.Context, checker *alerts.Checker, t *domain.Transaction, delta float64) {
	if t.Type != domain.TypeExpense {
		return
	}
	if _, err := checker.Check(c.Request.Context(), t.UserID, t.Category, t.Month(), delta); err != nil {
		middleware.Log(c).WithFields(logrus.Fields{
			"transaction_id": t.ID,
			"error":          err.Error(),
		}).Error("Budget check failed")
	}
}

// transactionFilterKey renders the filters applyTransactionFilters uses, normalised
// the same way, for cache keys
func transactionFilterKey(c *gin.Context) string {
	return strings.Join([]string{
		"type=" + strings.ToLower(c.Query("type")),
		"category=" + domain.NormalizeCategory(c.Query("category")),
		"tag=" + strings.ToLower(strings.TrimSpace(c.Query("tag"))),
		"from=" + strings.TrimSpace(c.Query("from")),
		"to=" + strings.TrimSpace(c.Query("to")),
	}, ":")
}

// applyTransactionFilters narrows query by the type, category, tag, from and to parameters
func applyTransactionFilters(c *gin.Context, query *gorm.DB) (*gorm.DB, error) {
	if v := c.Query("type"); v != "" {
		query = query.Where("type = ?", strings.ToLower(v))
	}
	if v := c.Query("category"); v != "" {
		query = query.Where("LOWER(category) = ?", domain.NormalizeCategory(v))
	}
	if v := strings.TrimSpace(c.Query("tag")); v != "" {
		// Tags are stored as a JSON array; match the quoted element
		query = query.Where("LOWER(tags) LIKE ?", `%"`+strings.ToLower(v)+`"%`)
	}
	from, err := optionalDate("from", c.Query("from"))
	if err != nil {
		return nil, err
	}
	to, err := optionalDate("to", c.Query("to"))
	if err != nil {
		return nil, err
	}
	to = endOfDay(c.Query("to"), to)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}
	return query, nil
}

// CreateTransactionHandler records a transaction for the caller
func CreateTransactionHandler(db *gorm.DB, checker *alerts.Checker, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		var req TransactionRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		date := time.Now().UTC()
		if strings.TrimSpace(req.Date) != "" {
			d, err := parseDate("date", req.Date)
			if err != nil {
				middleware.Fail(c, err)
				return
			}
			date = d
		}
		end, err := optionalDate("recurrence_end_date", req.RecurrenceEndDate)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		tx := domain.Transaction{
			UserID:            user.ID,
			Type:              req.Type,
			Amount:            req.Amount,
			Category:          req.Category,
			Description:       strings.TrimSpace(req.Description),
			Tags:              cleanTags(req.Tags),
			IsRecurring:       req.IsRecurring,
			RecurrencePattern: req.RecurrencePattern,
			RecurrenceEndDate: end,
			Date:              date,
		}
		if err := normalizeRecurrence(&tx); err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&tx).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to create transaction", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"user_id":        user.ID,
			"type":           tx.Type,
			"amount":         tx.Amount,
			"operation":      "create_transaction",
		}).Info("Transaction created")
		checkBudget(c, checker, &tx, tx.Amount)
		invalidateReports(c, cache, user.ID)
		c.JSON(http.StatusCreated, tx)
	}
}

// listTransactions writes one page of the user's transactions
func listTransactions(c *gin.Context, db *gorm.DB, userID string) {
	p := parsePagination(c)
	query := db.WithContext(c.Request.Context()).Model(&domain.Transaction{}).Where("user_id = ?", userID)
	query, err := applyTransactionFilters(c, query)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		middleware.Fail(c, apperr.Internal("Failed to count transactions", err))
		return
	}
	txs := []domain.Transaction{}
	if err := query.Order("date desc").Offset(p.Offset()).Limit(p.PageSize).Find(&txs).Error; err != nil {
		middleware.Fail(c, apperr.Internal("Failed to fetch transactions", err))
		return
	}
	c.JSON(http.StatusOK, transactionsPage{
		Transactions: txs,
		Page:         p.Page,
		PageSize:     p.PageSize,
		Total:        total,
		TotalPages:   p.TotalPages(total),
	})
}

// ListTransactionsHandler returns the caller's transactions, newest first
func ListTransactionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		listTransactions(c, db, user.ID)
	}
}

// UserTransactionsHandler returns another user's transactions; callers may only
// view their own unless they are admins
func UserTransactionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		userID := c.Param("userId")
		if userID != user.ID && !user.IsAdmin() {
			middleware.Fail(c, apperr.Forbidden(auth.MsgForbidden))
			return
		}
		listTransactions(c, db, userID)
	}
}

// GetTransactionHandler returns one transaction
func GetTransactionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		tx, err := findOwned[domain.Transaction](c, db, user, "Transaction")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}

// UpdateTransactionHandler applies a partial update to a transaction
func UpdateTransactionHandler(db *gorm.DB, checker *alerts.Checker, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		tx, err := findOwned[domain.Transaction](c, db, user, "Transaction")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		var req TransactionPatch
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		old := *tx
		if req.Type != nil {
			tx.Type = *req.Type
		}
		if req.Amount != nil {
			tx.Amount = *req.Amount
		}
		if req.Category != nil {
			tx.Category = *req.Category
		}
		if req.Description != nil {
			tx.Description = strings.TrimSpace(*req.Description)
		}
		if req.Tags != nil {
			tx.Tags = cleanTags(*req.Tags)
		}
		if req.IsRecurring != nil {
			tx.IsRecurring = *req.IsRecurring
		}
		if req.RecurrencePattern != nil {
			tx.RecurrencePattern = *req.RecurrencePattern
		}
		if req.RecurrenceEndDate != nil {
			if tx.RecurrenceEndDate, err = optionalDate("recurrence_end_date", *req.RecurrenceEndDate); err != nil {
				middleware.Fail(c, err)
				return
			}
		}
		if req.Date != nil {
			d, err := parseDate("date", *req.Date)
			if err != nil {
				middleware.Fail(c, err)
				return
			}
			tx.Date = d
		}
		if err := normalizeRecurrence(tx); err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Save(tx).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to update transaction", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"user_id":        tx.UserID,
			"operation":      "update_transaction",
		}).Info("Transaction updated")

		// Only growth within the same budget bucket counts as new spending
		delta := tx.Amount
		if old.Type == domain.TypeExpense && domain.NormalizeCategory(old.Category) == domain.NormalizeCategory(tx.Category) && old.Month() == tx.Month() {
			delta = tx.Amount - old.Amount
		}
		checkBudget(c, checker, tx, delta)
		invalidateReports(c, cache, tx.UserID)
		c.JSON(http.StatusOK, tx)
	}
}

// DeleteTransactionHandler deletes a transaction
func DeleteTransactionHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		tx, err := findOwned[domain.Transaction](c, db, user, "Transaction")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(tx).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to delete transaction", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"user_id":        tx.UserID,
			"operation":      "delete_transaction",
		}).Info("Transaction deleted")
		invalidateReports(c, cache, tx.UserID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
	}
}
