package api

import (
	"net/http"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (s *APISuite) TestGoals_CRUDAndProgress() {
	ana, _ := s.signup("Ana", "ana@example.com")
	bob, _ := s.signup("Bob", "bob@example.com")

	w := s.do(http.MethodPost, "/api/goals", ana, gin.H{"goal_name": "Laptop", "target_amount": 1200, "current_amount": 300, "deadline": "2030-06-01"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var g GoalView
	s.decode(w, &g)
	s.Equal(25.0, g.Progress)
	s.False(g.Achieved)
	s.Positive(g.DaysLeft)

	w = s.do(http.MethodPost, "/api/goals", ana, gin.H{"goal_name": "Nothing", "target_amount": 0, "deadline": "2030-06-01"})
	s.Equal(http.StatusBadRequest, w.Code)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/goals/"+g.ID, bob, nil).Code)

	w = s.do(http.MethodPut, "/api/goals/"+g.ID, ana, gin.H{"goal_name": "Gaming laptop", "target_amount": 1500})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &g)
	s.Equal("Gaming laptop", g.GoalName)
	s.Equal(20.0, g.Progress)

	var list struct {
		Goals []GoalView `json:"goals"`
	}
	s.decode(s.do(http.MethodGet, "/api/goals", ana, nil), &list)
	s.Len(list.Goals, 1)
	s.decode(s.do(http.MethodGet, "/api/goals", bob, nil), &list)
	s.Empty(list.Goals)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/api/goals/"+g.ID, ana, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/goals/"+g.ID, ana, nil).Code)
}

func (s *APISuite) TestGoals_ContributeNotifiesOnce() {
	ana, _ := s.signup("Ana", "ana@example.com")
	w := s.do(http.MethodPost, "/api/goals", ana, gin.H{"goal_name": "Trip", "target_amount": 100, "deadline": "2030-01-01"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var g GoalView
	s.decode(w, &g)

	w = s.do(http.MethodPost, "/api/goals/"+g.ID+"/contribute", ana, gin.H{"amount": 60})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &g)
	s.Equal(60.0, g.CurrentAmount)
	s.Empty(s.publisher.events)

	w = s.do(http.MethodPost, "/api/goals/"+g.ID+"/contribute", ana, gin.H{"amount": 50})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &g)
	s.Equal(110.0, g.CurrentAmount)
	s.Equal(100.0, g.Progress)
	s.True(g.Achieved)

	w = s.do(http.MethodPost, "/api/goals/"+g.ID+"/contribute", ana, gin.H{"amount": 5})
	s.Require().Equal(http.StatusOK, w.Code)

	s.Require().Len(s.publisher.events, 1)
	s.Equal(events.TypeNotification, s.publisher.events[0].Type)
	var n int64
	s.Require().NoError(s.db.Model(&domain.Notification{}).Where("user_id = ?", g.UserID).Count(&n).Error)
	s.Equal(int64(1), n)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/goals/"+g.ID+"/contribute", ana, gin.H{"amount": -1}).Code)
}

func (s *APISuite) TestGoals_AchievedStateReadInsideTransaction() {
	ana, _ := s.signup("Ana", "ana@example.com")
	w := s.do(http.MethodPost, "/api/goals", ana, gin.H{"goal_name": "Trip", "target_amount": 100, "deadline": "2030-01-01"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var view GoalView
	s.decode(w, &view)

	// A copy loaded before another request pushed the goal past its target
	var stale domain.Goal
	s.Require().NoError(s.db.Where("id = ?", view.ID).First(&stale).Error)
	s.Require().NoError(s.db.Model(&domain.Goal{}).Where("id = ?", view.ID).Update("current_amount", 120).Error)
	s.False(stale.Achieved())

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockGoal(tx, &stale); err != nil {
			return err
		}
		s.True(stale.Achieved())
		n, err := recordAchieved(tx, stale.Achieved(), &stale)
		s.Nil(n)
		return err
	})
	s.Require().NoError(err)

	var count int64
	s.Require().NoError(s.db.Model(&domain.Notification{}).Where("user_id = ?", stale.UserID).Count(&count).Error)
	s.Zero(count)

	// Contributing to an already achieved goal stays silent
	w = s.do(http.MethodPost, "/api/goals/"+view.ID+"/contribute", ana, gin.H{"amount": 5})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(s.publisher.events)
}
