package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Deadlines

	"finance_tracker/internal/alerts"     // Event publishing
	"finance_tracker/internal/apperr"     // Error taxonomy
	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/events"     // Event types
	"finance_tracker/internal/middleware" // Error reporting, logging

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Row locking
)

// GoalRequest is the body of a create request
type GoalRequest struct {
	GoalName      string  `json:"goal_name" binding:"required,max=100"`
	TargetAmount  float64 `json:"target_amount" binding:"required,gt=0"`
	CurrentAmount float64 `json:"current_amount" binding:"gte=0"`
	Deadline      string  `json:"deadline" binding:"required"`
}

// GoalPatch is the body of an update request; nil means unchanged
type GoalPatch struct {
	GoalName      *string  `json:"goal_name" binding:"omitempty,min=1,max=100"`
	TargetAmount  *float64 `json:"target_amount" binding:"omitempty,gt=0"`
	CurrentAmount *float64 `json:"current_amount" binding:"omitempty,gte=0"`
	Deadline      *string  `json:"deadline"`
}

// ContributeRequest adds savings to a goal
type ContributeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// GoalView is a goal with its derived progress
type GoalView struct {
	domain.Goal
	Progress float64 `json:"progress"` // Percentage of the target saved
	Achieved bool    `json:"achieved"`
	DaysLeft int     `json:"days_left"` // Whole days until the deadline, negative once passed
}

func goalView(g *domain.Goal) GoalView {
	return GoalView{
		Goal:     *g,
		Progress: g.Progress(),
		Achieved: g.Achieved(),
		DaysLeft: int(time.Until(g.Deadline).Hours() / 24),
	}
}

// lockGoal reloads g inside tx, holding its row until the transaction ends
func lockGoal(tx *gorm.DB, g *domain.Goal) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", g.ID).First(g).Error
}

// recordAchieved stores a notification in tx when a change moved g onto its target
func recordAchieved(tx *gorm.DB, before bool, g *domain.Goal) (*domain.Notification, error) {
	if before || !g.Achieved() {
		return nil, nil
	}
	n := &domain.Notification{UserID: g.UserID, Message: "Goal achieved: " + g.GoalName}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func publishAchieved(c *gin.Context, checker *alerts.Checker, n *domain.Notification) {
	if n == nil {
		return
	}
	checker.Publish(c.Request.Context(), events.NewEvent(events.TypeNotification, n.UserID, n.ID, n.Message))
}

// CreateGoalHandler creates a savings goal
func CreateGoalHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		var req GoalRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		deadline, err := parseDate("deadline", req.Deadline)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		g := domain.Goal{
			UserID:        user.ID,
			GoalName:      strings.TrimSpace(req.GoalName),
			TargetAmount:  req.TargetAmount,
			CurrentAmount: req.CurrentAmount,
			Deadline:      deadline,
		}
		if err := gdb.WithContext(c.Request.Context()).Create(&g).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to create goal", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"goal_id":   g.ID,
			"user_id":   user.ID,
			"operation": "create_goal",
		}).Info("Goal created")
		c.JSON(http.StatusCreated, goalView(&g))
	}
}

// ListGoalsHandler returns the caller's goals, nearest deadline first
func ListGoalsHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		var goals []domain.Goal
		if err := gdb.WithContext(c.Request.Context()).Where("user_id = ?", user.ID).Order("deadline asc").Find(&goals).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to fetch goals", err))
			return
		}
		views := make([]GoalView, 0, len(goals))
		for i := range goals {
			views = append(views, goalView(&goals[i]))
		}
		c.JSON(http.StatusOK, gin.H{"goals": views})
	}
}

// GetGoalHandler returns one goal
func GetGoalHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		g, err := findOwned[domain.Goal](c, gdb, user, "Goal")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, goalView(g))
	}
}

// UpdateGoalHandler applies a partial update to a goal
func UpdateGoalHandler(gdb *gorm.DB, checker *alerts.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		g, err := findOwned[domain.Goal](c, gdb, user, "Goal")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		var req GoalPatch
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		var deadline *time.Time
		if req.Deadline != nil {
			d, err := parseDate("deadline", *req.Deadline)
			if err != nil {
				middleware.Fail(c, err)
				return
			}
			deadline = &d
		}
		var note *domain.Notification
		err = gdb.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := lockGoal(tx, g); err != nil {
				return err
			}
			wasAchieved := g.Achieved()
			if req.GoalName != nil {
				g.GoalName = strings.TrimSpace(*req.GoalName)
			}
			if req.TargetAmount != nil {
				g.TargetAmount = *req.TargetAmount
			}
			if req.CurrentAmount != nil {
				g.CurrentAmount = *req.CurrentAmount
			}
			if deadline != nil {
				g.Deadline = *deadline
			}
			if err := tx.Save(g).Error; err != nil {
				return err
			}
			note, err = recordAchieved(tx, wasAchieved, g)
			return err
		})
		if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to update goal", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"goal_id":   g.ID,
			"user_id":   g.UserID,
			"operation": "update_goal",
		}).Info("Goal updated")
		publishAchieved(c, checker, note)
		c.JSON(http.StatusOK, goalView(g))
	}
}

// ContributeGoalHandler adds an amount to a goal's savings atomically
func ContributeGoalHandler(gdb *gorm.DB, checker *alerts.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		g, err := findOwned[domain.Goal](c, gdb, user, "Goal")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		var req ContributeRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		var note *domain.Notification
		err = gdb.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := lockGoal(tx, g); err != nil {
				return err
			}
			wasAchieved := g.Achieved()
			// Increment in SQL so concurrent contributions are not lost
			if err := tx.Model(g).Update("current_amount", gorm.Expr("current_amount + ?", req.Amount)).Error; err != nil {
				return err
			}
			if err := tx.Where("id = ?", g.ID).First(g).Error; err != nil {
				return err
			}
			note, err = recordAchieved(tx, wasAchieved, g)
			return err
		})
		if err != nil {
			middleware.Fail(c, apperr.Internal("Failed to update goal", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"goal_id":   g.ID,
			"user_id":   g.UserID,
			"amount":    req.Amount,
			"operation": "contribute_goal",
		}).Info("Goal contribution recorded")
		publishAchieved(c, checker, note)
		c.JSON(http.StatusOK, goalView(g))
	}
}

// DeleteGoalHandler deletes a goal
func DeleteGoalHandler(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}
		g, err := findOwned[domain.Goal](c, gdb, user, "Goal")
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		if err := gdb.WithContext(c.Request.Context()).Delete(g).Error; err != nil {
			middleware.Fail(c, apperr.Internal("Failed to delete goal", err))
			return
		}
		middleware.Log(c).WithFields(logrus.Fields{
			"goal_id":   g.ID,
			"user_id":   g.UserID,
			"operation": "delete_goal",
		}).Info("Goal deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Goal deleted successfully"})
	}
}
