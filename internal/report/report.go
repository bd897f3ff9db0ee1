// Package report aggregates transactions into totals, per-category
// breakdowns and time series.
package report

import (
	"fmt"     // Bucket keys
	"math"    // Rounding
	"sort"    // Ordering
	"strings" // Case-insensitive matching
	"time"    // Periods

	"finance_tracker/internal/domain" // Transaction model
)

// Period is the bucket size of a time series
type Period string

// Periods
const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// ParsePeriod parses a period name; empty means monthly
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Monthly, nil
	case Daily, Weekly, Monthly, Yearly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// BucketKey returns the series key of t for the period
func BucketKey(t time.Time, p Period) string {
	t = t.UTC()
	switch p {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Yearly:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// Filter narrows the transactions a report covers
type Filter struct {
	Category string     // Exact category, case-insensitive
	Tag      string     // Transactions carrying this tag
	From     *time.Time // Inclusive lower bound on Date
	To       *time.Time // Inclusive upper bound on Date
}

// Match reports whether t passes the filter
func (f Filter) Match(t *domain.Transaction) bool {
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	return true
}

// Totals sums income and expenses
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
	Count   int     `json:"count"`
}

func (t *Totals) add(txn *domain.Transaction) {
	switch txn.Type {
	case domain.TypeIncome:
		t.Income += txn.Amount
	case domain.TypeExpense:
		t.Expense += txn.Amount
	}
	t.Count++
}

func (t *Totals) round() {
	t.Income = round2(t.Income)
	t.Expense = round2(t.Expense)
	t.Net = round2(t.Income - t.Expense)
}

// CategoryTotal is the share of one category
type CategoryTotal struct {
	Category string `json:"category"`
	Totals
}

// Bucket is one point of the time series
type Bucket struct {
	Key string `json:"key"`
	Totals
}

// Summary is a complete report
type Summary struct {
	Period     Period          `json:"period"`
	Totals     Totals          `json:"totals"`
	ByCategory []CategoryTotal `json:"by_category"`
	Series     []Bucket        `json:"series"`
}

// Build aggregates the transactions matching f
func Build(txns []domain.Transaction, period Period, f Filter) Summary {
	s := Summary{Period: period, ByCategory: []CategoryTotal{}, Series: []Bucket{}}
	byCat := map[string]*CategoryTotal{}
	byKey := map[string]*Bucket{}

	for i := range txns {
		t := &txns[i]
		if !f.Match(t) {
			continue
		}
		s.Totals.add(t)

		cat := strings.ToLower(t.Category)
		ct, ok := byCat[cat]
		if !ok {
			ct = &CategoryTotal{Category: cat}
			byCat[cat] = ct
		}
		ct.add(t)

		key := BucketKey(t.Date, period)
		b, ok := byKey[key]
		if !ok {
			b = &Bucket{Key: key}
			byKey[key] = b
		}
		b.add(t)
	}

	s.Totals.round()
	for _, ct := range byCat {
		ct.round()
		s.ByCategory = append(s.ByCategory, *ct)
	}
	// Largest spend first, then name for stable output
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if a.Expense != b.Expense {
			return a.Expense > b.Expense
		}
		return a.Category < b.Category
	})
	for _, b := range byKey {
		b.round()
		s.Series = append(s.Series, *b)
	}
	sort.Slice(s.Series, func(i, j int) bool { return s.Series[i].Key < s.Series[j].Key })
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
