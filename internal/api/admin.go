package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation

	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Error reporting
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

const adminTxCachePrefix = "admin:txs:"

// transactionsPage is a page of transactions
type transactionsPage struct {
	Transactions []domain.Transaction `json:"transactions"` // List of transactions
	Page         int                  `json:"page"`         // Current page
	PageSize     int                  `json:"page_size"`    // Page size
	Total        int64                `json:"total"`        // Total number of transactions
	TotalPages   int                  `json:"total_pages"`  // Total pages
	Cached       bool                 `json:"cached"`       // Served from cache
}

// ListAllTransactionsHandler returns transactions across users, with optional
// filtering by user, type, category or date
func ListAllTransactionsHandler(gdb *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		p := parsePagination(c)
		cacheKey := adminTxCachePrefix + strings.Join([]string{
			"page=" + strconv.Itoa(p.Page),
			"size=" + strconv.Itoa(p.PageSize),
			"user_id=" + c.Query("user_id"),
			transactionFilterKey(c),
		}, ":")

		var resp transactionsPage
		if found, err := cache.Get(ctx, cacheKey, &resp); err == nil && found {
			resp.Cached = true
			c.JSON(http.StatusOK, resp)
			return
		}
		query := gdb.WithContext(ctx).Model(&domain.Transaction{})
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}
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
		resp = transactionsPage{
			Transactions: txs,
			Page:         p.Page,
			PageSize:     p.PageSize,
			Total:        total,
			TotalPages:   p.TotalPages(total),
		}
		_ = cache.Set(ctx, cacheKey, resp) // Cache the response for future requests
		c.JSON(http.StatusOK, resp)
	}
}
