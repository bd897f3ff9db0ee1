package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Error reporting
	"finance_tracker/internal/report"     // Aggregation
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

const reportCachePrefix = "report:"

// reportResponse wraps a summary with its cache status
type reportResponse struct {
	UserID string         `json:"user_id"`
	Report report.Summary `json:"report"`
	Cached bool           `json:"cached"`
}

// writeReport builds or serves from cache the report of userID for the query
func writeReport(c *gin.Context, gdb *gorm.DB, cache *utils.Cache, userID string) {
	ctx := c.Request.Context()
	period, err := report.ParsePeriod(c.Query("period"))
	if err != nil {
		middleware.Fail(c, apperr.Validation("period must be one of: daily weekly monthly yearly"))
		return
	}
	from, err := optionalDate("from", c.Query("from"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	to, err := optionalDate("to", c.Query("to"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	f := report.Filter{
		Category: strings.TrimSpace(c.Query("category")),
		Tag:      strings.TrimSpace(c.Query("tag")),
		From:     from,
		To:       endOfDay(c.Query("to"), to),
	}
	// Build cache key from the owner and every query parameter
	cacheKey := reportCachePrefix + userID + ":" + strings.Join([]string{
		string(period), strings.ToLower(f.Category), strings.ToLower(f.Tag), c.Query("from"), c.Query("to"),
	}, ":")

	var resp reportResponse
	if found, err := cache.Get(ctx, cacheKey, &resp); err == nil && found {
		resp.Cached = true
		c.JSON(http.StatusOK, resp)
		return
	}

	// Narrow by date in SQL, the rest of the filter is applied while aggregating
	query := gdb.WithContext(ctx).Where("user_id = ?", userID)
	if f.From != nil {
		query = query.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("date <= ?", *f.To)
	}
	var txs []domain.Transaction
	if err := query.Order("date asc").Find(&txs).Error; err != nil {
		middleware.Fail(c, apperr.Internal("Failed to fetch transactions", err))
		return
	}
	resp = reportResponse{UserID: userID, Report: report.Build(txs, period, f)}
	_ = cache.Set(ctx, cacheKey, resp) // Cache the response for future requests
	c.JSON(http.StatusOK, resp)
}

// SummaryReportHandler returns the caller's report
func SummaryReportHandler(gdb *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		writeReport(c, gdb, cache, user.ID)
	}
}

// UserReportHandler returns the report of any user; mounted behind the admin role
func UserReportHandler(gdb *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		err := gdb.WithContext(c.Request.Context()).Select("id").Where("id = ?", userID).First(&domain.User{}).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFound("User not found"))
			return
		} else if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch user", err))
			return
		}
		writeReport(c, gdb, cache, userID)
	}
}
