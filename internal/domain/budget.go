package domain

import "strings"

// MonthLayout is the format of Budget.Month
const MonthLayout = "2006-01"

// Budget Model
type Budget struct {
	Base
	UserID        string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_budget_owner_category_month" json:"user_id"`
	Category      string  `gorm:"type:varchar(64);not null;uniqueIndex:idx_budget_owner_category_month" json:"category"` // Lower-cased category name
	Amount        float64 `gorm:"not null" json:"amount"`                                                                // Spending limit
	Month         string  `gorm:"type:varchar(7);not null;uniqueIndex:idx_budget_owner_category_month" json:"month"`     // YYYY-MM
	Notifications bool    `gorm:"not null;default:true" json:"notifications"`                                            // Alert when exceeded
}

// OwnerID implements Owned
func (b *Budget) OwnerID() string { return b.UserID }

// NormalizeCategory lower-cases and trims a category name
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }
