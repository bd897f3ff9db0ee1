package api

import (
	"net/http"

	"finance_tracker/internal/auth"
	"finance_tracker/internal/domain"

	"github.com/gin-gonic/gin"
)

func (s *APISuite) TestUsers_List() {
	ana, _ := s.signup("Ana", "ana@example.com")
	s.signup("Bob", "bob@example.com")

	w := s.do(http.MethodGet, "/api/auth/users", ana, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page usersPage
	s.decode(w, &page)
	s.Equal(int64(2), page.Total)
	s.False(page.Cached)
	s.NotContains(w.Body.String(), "password")

	s.decode(s.do(http.MethodGet, "/api/auth/users", ana, nil), &page)
	s.True(page.Cached)

	// Registration drops the cached listing
	s.signup("Cy", "cy@example.com")
	s.decode(s.do(http.MethodGet, "/api/auth/users", ana, nil), &page)
	s.False(page.Cached)
	s.Equal(int64(3), page.Total)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/users", "", nil).Code)
}

func (s *APISuite) TestUsers_ListRestricted() {
	s.cfg.RestrictUserList = true
	s.rebuild()
	ana, anaID := s.signup("Ana", "ana@example.com")

	w := s.do(http.MethodGet, "/api/auth/users", ana, nil)
	s.Equal(http.StatusForbidden, w.Code)

	s.promote(anaID)
	w = s.do(http.MethodGet, "/api/auth/users", ana, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestUsers_Me() {
	ana, anaID := s.signup("Ana", "ana@example.com")

	w := s.do(http.MethodGet, "/api/auth/me", ana, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var me domain.User
	s.decode(w, &me)
	s.Equal(anaID, me.ID)
	s.Equal(domain.DefaultCurrency, me.Currency)
	s.NotContains(w.Body.String(), "password")
}

func (s *APISuite) TestUsers_GetAndUpdate() {
	ana, anaID := s.signup("Ana", "ana@example.com")
	bob, bobID := s.signup("Bob", "bob@example.com")

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/auth/"+anaID, ana, nil).Code)
	w := s.do(http.MethodGet, "/api/auth/"+anaID, bob, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(auth.MsgForbidden, s.errorOf(w))

	w = s.do(http.MethodPut, "/api/auth/"+anaID, ana, gin.H{"name": "Ana Maria", "currency": "eur"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		User domain.User `json:"user"`
	}
	s.decode(w, &updated)
	s.Equal("Ana Maria", updated.User.Name)
	s.Equal("EUR", updated.User.Currency)

	w = s.do(http.MethodPut, "/api/auth/"+anaID, ana, gin.H{"email": "bob@example.com"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Email already in use", s.errorOf(w))

	// Only admins change roles
	w = s.do(http.MethodPut, "/api/auth/"+anaID, ana, gin.H{"role": "admin"})
	s.Equal(http.StatusForbidden, w.Code)

	s.promote(bobID)
	w = s.do(http.MethodPut, "/api/auth/"+anaID, bob, gin.H{"role": "admin"})
	s.Require().Equal(http.StatusOK, w.Code)
	var ana2 domain.User
	s.Require().NoError(s.db.Where("id = ?", anaID).First(&ana2).Error)
	s.Equal(domain.RoleAdmin, ana2.Role)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/auth/missing-id", bob, nil).Code)
}

func (s *APISuite) TestUsers_DeleteCascades() {
	ana, anaID := s.signup("Ana", "ana@example.com")
	s.createTx(ana, gin.H{"type": "expense", "amount": 5, "category": "food"})
	w := s.do(http.MethodPost, "/api/goals", ana, gin.H{"goal_name": "Bike", "target_amount": 300, "deadline": "2030-01-01"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodDelete, "/api/auth/"+anaID, ana, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var n int64
	s.Require().NoError(s.db.Model(&domain.Transaction{}).Where("user_id = ?", anaID).Count(&n).Error)
	s.Zero(n)
	s.Require().NoError(s.db.Model(&domain.Goal{}).Where("user_id = ?", anaID).Count(&n).Error)
	s.Zero(n)

	// The token outlives the account but no longer authenticates
	w = s.do(http.MethodDelete, "/api/auth/"+anaID, ana, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	admin, adminID := s.signup("Root", "root@example.com")
	s.promote(adminID)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/auth/"+anaID, admin, nil).Code)
}
