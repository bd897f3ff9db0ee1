package domain

// Category Model
type Category struct {
	Base
	UserID string `gorm:"type:varchar(36);index;not null" json:"user_id"` // Creator
	Name   string `gorm:"type:varchar(64);not null" json:"name"`
	Shared bool   `gorm:"not null;default:false" json:"shared"` // Created by an admin, visible to everyone
}

// OwnerID implements Owned
func (c *Category) OwnerID() string { return c.UserID }
