package domain

import "time"

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Transaction categories
var Categories = []string{"food", "transport", "entertainment", "utilities", "salary", "other"}

// Recurrence patterns
var RecurrencePatterns = []string{"daily", "weekly", "monthly", "yearly"}

// Transaction Model
type Transaction struct {
	Base
	UserID            string     `gorm:"type:varchar(36);index;not null" json:"user_id"`  // Owner
	Type              string     `gorm:"type:varchar(16);not null" json:"type"`           // income or expense
	Amount            float64    `gorm:"not null" json:"amount"`                          // Always positive
	Category          string     `gorm:"type:varchar(32);index;not null" json:"category"` // One of Categories
	Description       string     `json:"description"`                                     // Free text
	Tags              []string   `gorm:"serializer:json;type:text" json:"tags"`           // Free-form labels
	IsRecurring       bool       `gorm:"not null;default:false" json:"is_recurring"`      // Recurrence flag
	RecurrencePattern string     `gorm:"type:varchar(16)" json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`
	Date              time.Time  `gorm:"index;not null" json:"date"` // When the money moved
}

// OwnerID implements Owned
func (t *Transaction) OwnerID() string { return t.UserID }

// HasTag reports whether the transaction carries tag, ignoring case
func (t *Transaction) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if equalFold(tg, tag) {
			return true
		}
	}
	return false
}

// Month returns the YYYY-MM month the transaction falls in
func (t *Transaction) Month() string {
	return t.Date.Format(MonthLayout)
}
