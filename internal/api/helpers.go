package api

import (
	"errors"  // Error inspection
	"fmt"     // Messages
	"reflect" // Validator tag names
	"strconv" // String conversion
	"strings" // String manipulation
	"time"    // Date parsing

	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/auth"       // Auth messages
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Current user

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Request binding
	"github.com/go-playground/validator/v10" // Validation errors
	"gorm.io/gorm"                           // GORM ORM library
)

func init() {
	// Report JSON field names in validation messages
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON binds the request body into req, translating failures into validation errors
func bindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation(fieldMessage(verrs[0]))
		}
		return apperr.Validation("Invalid request")
	}
	return nil
}

// fieldMessage renders a single validation failure
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " is too short"
	case "max":
		return field + " is too long"
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// Accepted date layouts, most specific first
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// parseDate parses an RFC 3339 timestamp or a plain YYYY-MM-DD date as UTC
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation(field + " must be a date (YYYY-MM-DD or RFC 3339)")
}

// optionalDate parses s unless it is empty
func optionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// endOfDay moves a bare date to its last instant so "to" filters are inclusive
func endOfDay(s string, t *time.Time) *time.Time {
	if t == nil || len(strings.TrimSpace(s)) != len("2006-01-02") {
		return t
	}
	e := t.Add(24*time.Hour - time.Nanosecond)
	return &e
}

// requireUser returns the authenticated user or fails the request
func requireUser(c *gin.Context) (*domain.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		middleware.Fail(c, apperr.Unauthorized(auth.MsgTokenInvalid))
		return nil, false
	}
	return user, true
}

// findOwned loads a record by id that the user owns; admins may load any record.
// Records the caller may not see are reported as not found.
func findOwned[T any, P interface {
	*T
	domain.Owned
}](c *gin.Context, db *gorm.DB, user *domain.User, label string) (P, error) {
	var rec T
	err := db.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(label + " not found")
	} else if err != nil {
		return nil, apperr.Internal("Failed to fetch "+strings.ToLower(label), err)
	}
	p := P(&rec)
	if p.OwnerID() != user.ID && !user.IsAdmin() {
		return nil, apperr.NotFound(label + " not found")
	}
	return p, nil
}

// pagination holds page parameters
type pagination struct {
	Page     int
	PageSize int
}

// Offset of the first row of the page
func (p pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// TotalPages for total rows
func (p pagination) TotalPages(total int64) int {
	return (int(total) + p.PageSize - 1) / p.PageSize
}

// parsePagination reads page and page_size, defaulting to 1 and 20
func parsePagination(c *gin.Context) pagination {
	p := pagination{Page: 1, PageSize: 20}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v // Set page if valid
	}
	// Page size within limits
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		p.PageSize = v
	}
	return p
}
