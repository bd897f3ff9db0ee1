package db

import (
	"context" // Request scoping
	"errors"  // Error inspection
	"strings" // Driver error matching

	"finance_tracker/internal/auth"   // Store contract and sentinel errors
	"finance_tracker/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// UserStore is the GORM-backed credential store
type UserStore struct {
	db *gorm.DB
}

// NewUserStore returns a store on db
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

var _ auth.UserStore = (*UserStore)(nil)

// FindByEmail looks a user up by normalised email
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID looks a user up by primary key
func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a user, mapping unique-index violations to auth.ErrDuplicateEmail
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsDuplicate(err) {
			return auth.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// IsDuplicate reports whether err is a unique constraint violation
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") // MySQL
}
