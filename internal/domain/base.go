package domain

import (
	"time" // Timestamps

	"github.com/google/uuid" // Record identifiers
	"gorm.io/gorm"           // GORM ORM library
)

// Base carries the identifier and timestamps shared by every record
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"` // UUID primary key
	CreatedAt time.Time `json:"created_at"`                            // Set by GORM on create
	UpdatedAt time.Time `json:"updated_at"`                            // Set by GORM on save
}

// BeforeCreate assigns a fresh UUID when the caller did not set one
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Owned is implemented by every record that belongs to a single user
type Owned interface {
	OwnerID() string
}
