package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *APISuite) TestReports_Summary() {
	ana, anaID := s.signup("Ana", "ana@example.com")
	bob, _ := s.signup("Bob", "bob@example.com")
	s.createTx(ana, gin.H{"type": "income", "amount": 1000, "category": "salary", "date": "2024-01-31"})
	s.createTx(ana, gin.H{"type": "expense", "amount": 50, "category": "food", "tags": []string{"groceries"}, "date": "2024-01-03"})
	s.createTx(ana, gin.H{"type": "expense", "amount": 30.1, "category": "food", "date": "2024-02-14"})
	s.createTx(bob, gin.H{"type": "expense", "amount": 999, "category": "food", "date": "2024-02-14"})

	w := s.do(http.MethodGet, "/api/reports/summary", ana, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp reportResponse
	s.decode(w, &resp)
	s.Equal(anaID, resp.UserID)
	s.False(resp.Cached)
	s.Equal(1000.0, resp.Report.Totals.Income)
	s.Equal(80.1, resp.Report.Totals.Expense)
	s.Equal(919.9, resp.Report.Totals.Net)
	s.Equal(3, resp.Report.Totals.Count)
	s.Require().Len(resp.Report.Series, 2)
	s.Equal("2024-01", resp.Report.Series[0].Key)
	s.Equal("2024-02", resp.Report.Series[1].Key)
	s.Equal("food", resp.Report.ByCategory[0].Category)

	s.decode(s.do(http.MethodGet, "/api/reports/summary?period=yearly&tag=Groceries", ana, nil), &resp)
	s.Equal(1, resp.Report.Totals.Count)
	s.Require().Len(resp.Report.Series, 1)
	s.Equal("2024", resp.Report.Series[0].Key)

	s.decode(s.do(http.MethodGet, "/api/reports/summary?from=2024-02-01&to=2024-02-14", ana, nil), &resp)
	s.Equal(30.1, resp.Report.Totals.Expense)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/reports/summary?period=hourly", ana, nil).Code)
}

func (s *APISuite) TestReports_CachedUntilTransactionsChange() {
	ana, _ := s.signup("Ana", "ana@example.com")
	tx := s.createTx(ana, gin.H{"type": "expense", "amount": 10, "category": "food", "date": "2024-01-03"})

	var resp reportResponse
	s.decode(s.do(http.MethodGet, "/api/reports/summary", ana, nil), &resp)
	s.False(resp.Cached)
	s.decode(s.do(http.MethodGet, "/api/reports/summary", ana, nil), &resp)
	s.True(resp.Cached)
	s.Equal(10.0, resp.Report.Totals.Expense)

	w := s.do(http.MethodPut, "/api/transactions/"+tx.ID, ana, gin.H{"amount": 25})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(s.do(http.MethodGet, "/api/reports/summary", ana, nil), &resp)
	s.False(resp.Cached)
	s.Equal(25.0, resp.Report.Totals.Expense)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/api/transactions/"+tx.ID, ana, nil).Code)
	s.decode(s.do(http.MethodGet, "/api/reports/summary", ana, nil), &resp)
	s.False(resp.Cached)
	s.Zero(resp.Report.Totals.Count)
}

func (s *APISuite) TestReports_UserReportIsAdminOnly() {
	ana, anaID := s.signup("Ana", "ana@example.com")
	admin, adminID := s.signup("Root", "root@example.com")
	s.createTx(ana, gin.H{"type": "expense", "amount": 10, "category": "food"})

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/reports/users/"+anaID, ana, nil).Code)

	s.promote(adminID)
	w := s.do(http.MethodGet, "/api/reports/users/"+anaID, admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resp reportResponse
	s.decode(w, &resp)
	s.Equal(anaID, resp.UserID)
	s.Equal(1, resp.Report.Totals.Count)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/reports/users/nobody", admin, nil).Code)
}
