package api

import (
	"net/http"

	"finance_tracker/internal/domain"

	"github.com/gin-gonic/gin"
)

func (s *APISuite) TestTransactions_OwnerScoping() {
	ana, anaID := s.signup("Ana", "ana@example.com")
	bob, _ := s.signup("Bob", "bob@example.com")

	tx := s.createTx(ana, gin.H{"type": "expense", "amount": 12.5, "category": "food", "date": "2024-03-10"})
	s.Equal(anaID, tx.UserID)
	s.Equal("2024-03-10", tx.Date.Format("2006-01-02"))

	var page transactionsPage
	s.decode(s.do(http.MethodGet, "/api/transactions", ana, nil), &page)
	s.Equal(int64(1), page.Total)
	s.Require().Len(page.Transactions, 1)
	s.Equal(tx.ID, page.Transactions[0].ID)

	s.decode(s.do(http.MethodGet, "/api/transactions", bob, nil), &page)
	s.Equal(int64(0), page.Total)
	s.Empty(page.Transactions)

	w := s.do(http.MethodGet, "/api/transactions/"+tx.ID, bob, nil)
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodPut, "/api/transactions/"+tx.ID, bob, gin.H{"amount": 1})
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/api/transactions/"+tx.ID, bob, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/transactions/user/"+anaID, bob, nil)
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do(http.MethodGet, "/api/transactions/user/"+anaID, ana, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/transactions/"+tx.ID, ana, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/transactions/"+tx.ID, ana, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestTransactions_AdminSeesAll() {
	ana, _ := s.signup("Ana", "ana@example.com")
	admin, adminID := s.signup("Root", "root@example.com")
	s.promote(adminID)

	tx := s.createTx(ana, gin.H{"type": "income", "amount": 100, "category": "salary"})

	w := s.do(http.MethodGet, "/api/transactions/"+tx.ID, admin, nil)
	s.Equal(http.StatusOK, w.Code)

	var page transactionsPage
	s.decode(s.do(http.MethodGet, "/api/admin/transactions", admin, nil), &page)
	s.Equal(int64(1), page.Total)
	s.False(page.Cached)

	s.decode(s.do(http.MethodGet, "/api/admin/transactions", admin, nil), &page)
	s.True(page.Cached)

	// A new transaction drops the cached listing
	s.createTx(ana, gin.H{"type": "expense", "amount": 5, "category": "food"})
	s.decode(s.do(http.MethodGet, "/api/admin/transactions", admin, nil), &page)
	s.False(page.Cached)
	s.Equal(int64(2), page.Total)
}

func (s *APISuite) TestTransactions_Validation() {
	ana, _ := s.signup("Ana", "ana@example.com")

	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"zero amount", gin.H{"type": "expense", "amount": 0, "category": "food"}, "amount is required"},
		{"negative amount", gin.H{"type": "expense", "amount": -3, "category": "food"}, "amount must be greater than 0"},
		{"unknown type", gin.H{"type": "gift", "amount": 3, "category": "food"}, "type must be one of: income expense"},
		{"unknown category", gin.H{"type": "expense", "amount": 3, "category": "pets"}, "category must be one of: food transport entertainment utilities salary other"},
		{"bad date", gin.H{"type": "expense", "amount": 3, "category": "food", "date": "yesterday"}, "date must be a date (YYYY-MM-DD or RFC 3339)"},
		{"recurring without pattern", gin.H{"type": "expense", "amount": 3, "category": "food", "is_recurring": true}, "recurrence_pattern is required for recurring transactions"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/api/transactions", ana, tt.body)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal(tt.want, s.errorOf(w))
		})
	}
}

func (s *APISuite) TestTransactions_Recurrence() {
	ana, _ := s.signup("Ana", "ana@example.com")

	tx := s.createTx(ana, gin.H{
		"type": "expense", "amount": 9.99, "category": "entertainment", "date": "2024-01-01",
		"is_recurring": true, "recurrence_pattern": "monthly", "recurrence_end_date": "2024-12-31",
	})
	s.True(tx.IsRecurring)
	s.Equal("monthly", tx.RecurrencePattern)
	s.Require().NotNil(tx.RecurrenceEndDate)

	// Turning recurrence off clears the details
	w := s.do(http.MethodPut, "/api/transactions/"+tx.ID, ana, gin.H{"is_recurring": false})
	s.Require().Equal(http.StatusOK, w.Code)
	var updated domain.Transaction
	s.decode(w, &updated)
	s.False(updated.IsRecurring)
	s.Empty(updated.RecurrencePattern)
	s.Nil(updated.RecurrenceEndDate)
}

func (s *APISuite) TestTransactions_Filters() {
	ana, _ := s.signup("Ana", "ana@example.com")
	s.createTx(ana, gin.H{"type": "expense", "amount": 10, "category": "food", "tags": []string{"Groceries"}, "date": "2024-01-05"})
	s.createTx(ana, gin.H{"type": "expense", "amount": 20, "category": "transport", "date": "2024-02-05"})
	s.createTx(ana, gin.H{"type": "income", "amount": 500, "category": "salary", "date": "2024-02-28"})

	tests := []struct {
		query string
		want  int64
	}{
		{"", 3},
		{"?type=expense", 2},
		{"?category=FOOD", 1},
		{"?tag=groceries", 1},
		{"?from=2024-02-01", 2},
		{"?to=2024-02-05", 2},
		{"?from=2024-02-01&to=2024-02-28&type=income", 1},
	}
	for _, tt := range tests {
		s.Run(tt.query, func() {
			var page transactionsPage
			w := s.do(http.MethodGet, "/api/transactions"+tt.query, ana, nil)
			s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
			s.decode(w, &page)
			s.Equal(tt.want, page.Total)
		})
	}

	var page transactionsPage
	s.decode(s.do(http.MethodGet, "/api/transactions?page=2&page_size=2", ana, nil), &page)
	s.Equal(2, page.TotalPages)
	s.Require().Len(page.Transactions, 1)
	s.Equal("2024-01-05", page.Transactions[0].Date.Format("2006-01-02")) // Newest first

	w := s.do(http.MethodGet, "/api/transactions?from=soon", ana, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestAdminTransactions_CachedPerFilter() {
	ana, _ := s.signup("Ana", "ana@example.com")
	admin, adminID := s.signup("Root", "root@example.com")
	s.promote(adminID)
	s.createTx(ana, gin.H{"type": "expense", "amount": 5, "category": "utilities", "tags": []string{"rent"}})
	s.createTx(ana, gin.H{"type": "expense", "amount": 7, "category": "food", "tags": []string{"groceries"}})

	list := func(query string) transactionsPage {
		var page transactionsPage
		w := s.do(http.MethodGet, "/api/admin/transactions"+query, admin, nil)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		s.decode(w, &page)
		return page
	}

	page := list("?tag=rent")
	s.Equal(int64(1), page.Total)
	s.Require().Len(page.Transactions, 1)
	s.Equal(5.0, page.Transactions[0].Amount)

	page = list("?tag=groceries")
	s.False(page.Cached)
	s.Equal(int64(1), page.Total)
	s.Require().Len(page.Transactions, 1)
	s.Equal(7.0, page.Transactions[0].Amount)

	page = list("")
	s.False(page.Cached)
	s.Equal(int64(2), page.Total)

	// Equivalent filters share an entry
	page = list("?tag=RENT")
	s.True(page.Cached)
	s.Equal(5.0, page.Transactions[0].Amount)

	page = list("?category=food")
	s.False(page.Cached)
	s.Equal(int64(1), page.Total)
}
