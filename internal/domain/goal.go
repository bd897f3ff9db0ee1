package domain

import (
	"math"
	"time"
)

// Goal Model
type Goal struct {
	Base
	UserID        string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	GoalName      string    `gorm:"not null" json:"goal_name"`
	TargetAmount  float64   `gorm:"not null" json:"target_amount"`
	CurrentAmount float64   `gorm:"not null;default:0" json:"current_amount"`
	Deadline      time.Time `json:"deadline"`
}

// OwnerID implements Owned
func (g *Goal) OwnerID() string { return g.UserID }

// Progress returns the saved share of the target as a percentage, capped at 100
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CurrentAmount / g.TargetAmount * 100
	return math.Round(math.Min(p, 100)*100) / 100
}

// Achieved reports whether the target has been reached
func (g *Goal) Achieved() bool {
	return g.TargetAmount > 0 && g.CurrentAmount >= g.TargetAmount
}
