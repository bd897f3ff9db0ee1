// Package alerts raises notifications when spending crosses a budget limit.
package alerts

import (
	"context" // Request scoping
	"errors"  // Error inspection
	"fmt"     // Messages
	"time"    // Month boundaries

	"finance_tracker/internal/domain" // Models
	"finance_tracker/internal/events" // Event publishing

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// MonthRange returns the [start, end) bounds of a YYYY-MM month in UTC
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(domain.MonthLayout, month, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Spent sums the owner's expenses in category during month
func Spent(ctx context.Context, db *gorm.DB, userID, category, month string) (float64, error) {
	start, end, err := MonthRange(month)
	if err != nil {
		return 0, err
	}
	var total float64
	err = db.WithContext(ctx).Model(&domain.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND LOWER(category) = ?", userID, domain.TypeExpense, domain.NormalizeCategory(category)).
		Where("date >= ? AND date < ?", start, end).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// Checker stores a notification when a change pushes spending over a budget
type Checker struct {
	db        *gorm.DB
	publisher events.Publisher
}

// NewChecker returns a checker; a nil publisher drops events
func NewChecker(db *gorm.DB, publisher events.Publisher) *Checker {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Checker{db: db, publisher: publisher}
}

// Check evaluates the budget for (userID, category, month) after a change
// that added delta to that bucket's spending. It returns the notification it
// stored, or nil when no limit was crossed.
func (c *Checker) Check(ctx context.Context, userID, category, month string, delta float64) (*domain.Notification, error) {
	if delta <= 0 {
		return nil, nil // Spending went down or did not move
	}
	var budget domain.Budget
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND month = ?", userID, domain.NormalizeCategory(category), month).
		First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}
	if !budget.Notifications {
		return nil, nil
	}
	after, err := Spent(ctx, c.db, userID, category, month)
	if err != nil {
		return nil, err
	}
	before := after - delta
	// Only the change that crosses the limit raises an alert
	if !(before <= budget.Amount && after > budget.Amount) {
		return nil, nil
	}
	n := &domain.Notification{
		UserID:  userID,
		Message: fmt.Sprintf("Budget exceeded for %s in %s: spent %.2f of %.2f", budget.Category, month, after, budget.Amount),
	}
	if err := c.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"budget_id": budget.ID,
		"category":  budget.Category,
		"month":     month,
		"spent":     after,
		"limit":     budget.Amount,
	}).Info("Budget exceeded")
	c.Publish(ctx, events.NewEvent(events.TypeBudgetExceeded, userID, n.ID, n.Message))
	return n, nil
}

// Publish sends an event, logging rather than failing when the broker is unavailable
func (c *Checker) Publish(ctx context.Context, e events.Event) {
	if err := c.publisher.Publish(ctx, e); err != nil {
		logrus.WithFields(logrus.Fields{
			"type":    e.Type,
			"user_id": e.UserID,
			"error":   err.Error(),
		}).Warn("Failed to publish event")
	}
}
