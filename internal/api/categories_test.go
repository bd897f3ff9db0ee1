package api

import (
	"net/http"

	"finance_tracker/internal/domain"

	"github.com/gin-gonic/gin"
)

type categoryList struct {
	Categories []domain.Category `json:"categories"`
}

func (s *APISuite) TestCategories_SharedAndOwn() {
	ana, _ := s.signup("Ana", "ana@example.com")
	bob, _ := s.signup("Bob", "bob@example.com")
	admin, adminID := s.signup("Root", "root@example.com")
	s.promote(adminID)

	w := s.do(http.MethodPost, "/api/categories", admin, gin.H{"name": "Housing"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var shared domain.Category
	s.decode(w, &shared)
	s.True(shared.Shared)

	w = s.do(http.MethodPost, "/api/categories", ana, gin.H{"name": "Pets"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var pets domain.Category
	s.decode(w, &pets)
	s.False(pets.Shared)

	w = s.do(http.MethodPost, "/api/categories", ana, gin.H{"name": "housing"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(MsgCategoryExists, s.errorOf(w))

	var list categoryList
	s.decode(s.do(http.MethodGet, "/api/categories", ana, nil), &list)
	s.Len(list.Categories, 2)
	s.decode(s.do(http.MethodGet, "/api/categories", bob, nil), &list)
	s.Require().Len(list.Categories, 1)
	s.Equal("Housing", list.Categories[0].Name)

	// Shared categories belong to their admin creator
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/categories/"+shared.ID, bob, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPut, "/api/categories/"+pets.ID, bob, gin.H{"name": "Cats"}).Code)

	w = s.do(http.MethodPut, "/api/categories/"+pets.ID, ana, gin.H{"name": "Cats"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &pets)
	s.Equal("Cats", pets.Name)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/api/categories/"+pets.ID, ana, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/categories/"+pets.ID, ana, nil).Code)
}
