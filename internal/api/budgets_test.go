package api

import (
	"net/http"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/gin-gonic/gin"
)

type notificationList struct {
	Notifications []domain.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

func (s *APISuite) TestBudgets_CRUD() {
	ana, _ := s.signup("Ana", "ana@example.com")
	bob, _ := s.signup("Bob", "bob@example.com")

	w := s.do(http.MethodPost, "/api/budgets", ana, gin.H{"category": " Food ", "amount": 200, "month": "2024-03"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var b BudgetView
	s.decode(w, &b)
	s.Equal("food", b.Category)
	s.True(b.Notifications)

	w = s.do(http.MethodPost, "/api/budgets", ana, gin.H{"category": "FOOD", "amount": 50, "month": "2024-03"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(MsgBudgetExists, s.errorOf(w))

	w = s.do(http.MethodPost, "/api/budgets", ana, gin.H{"category": "food", "amount": 50, "month": "March"})
	s.Equal(http.StatusBadRequest, w.Code)

	s.createTx(ana, gin.H{"type": "expense", "amount": 75.5, "category": "food", "date": "2024-03-02"})
	s.decode(s.do(http.MethodGet, "/api/budgets/"+b.ID, ana, nil), &b)
	s.Equal(75.5, b.Spent)
	s.Equal(124.5, b.Remaining)

	w = s.do(http.MethodGet, "/api/budgets/"+b.ID, bob, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/api/budgets/"+b.ID, ana, gin.H{"amount": 300, "notifications": false})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &b)
	s.Equal(300.0, b.Amount)
	s.False(b.Notifications)

	var list struct {
		Budgets []BudgetView `json:"budgets"`
	}
	s.decode(s.do(http.MethodGet, "/api/budgets?month=2024-03", ana, nil), &list)
	s.Len(list.Budgets, 1)
	s.decode(s.do(http.MethodGet, "/api/budgets?month=2024-04", ana, nil), &list)
	s.Empty(list.Budgets)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/api/budgets/"+b.ID, ana, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/budgets/"+b.ID, ana, nil).Code)
}

func (s *APISuite) TestBudgets_AlertFiresOnce() {
	ana, anaID := s.signup("Ana", "ana@example.com")
	w := s.do(http.MethodPost, "/api/budgets", ana, gin.H{"category": "food", "amount": 100, "month": "2024-03"})
	s.Require().Equal(http.StatusCreated, w.Code)

	unread := func() int64 {
		var list notificationList
		s.decode(s.do(http.MethodGet, "/api/notifications?unread=true", ana, nil), &list)
		return list.Unread
	}

	s.createTx(ana, gin.H{"type": "expense", "amount": 60, "category": "food", "date": "2024-03-05"})
	s.Equal(int64(0), unread())

	// Spending in another month or category does not count
	s.createTx(ana, gin.H{"type": "expense", "amount": 80, "category": "food", "date": "2024-04-05"})
	s.createTx(ana, gin.H{"type": "expense", "amount": 80, "category": "transport", "date": "2024-03-05"})
	s.Equal(int64(0), unread())

	s.createTx(ana, gin.H{"type": "expense", "amount": 50, "category": "food", "date": "2024-03-06"})
	s.Equal(int64(1), unread())

	s.createTx(ana, gin.H{"type": "expense", "amount": 10, "category": "food", "date": "2024-03-07"})
	s.Equal(int64(1), unread())

	s.Require().Len(s.publisher.events, 1)
	s.Equal(events.TypeBudgetExceeded, s.publisher.events[0].Type)
	s.Equal(anaID, s.publisher.events[0].UserID)
}

func (s *APISuite) TestBudgets_AlertOnUpdate() {
	ana, _ := s.signup("Ana", "ana@example.com")
	w := s.do(http.MethodPost, "/api/budgets", ana, gin.H{"category": "food", "amount": 100, "month": "2024-03"})
	s.Require().Equal(http.StatusCreated, w.Code)

	tx := s.createTx(ana, gin.H{"type": "expense", "amount": 90, "category": "food", "date": "2024-03-05"})
	s.Empty(s.publisher.events)

	w = s.do(http.MethodPut, "/api/transactions/"+tx.ID, ana, gin.H{"amount": 120})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.publisher.events, 1)
}
