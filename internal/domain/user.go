package domain

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultCurrency is assigned at registration
const DefaultCurrency = "USD"

// User Model
type User struct {
	Base
	Name     string `gorm:"not null" json:"name"`                                 // Display name
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`  // Unique, lower-cased email
	Password string `gorm:"not null" json:"-"`                                    // Hashed password, never serialised
	Role     string `gorm:"type:varchar(16);not null;default:user" json:"role"`   // Role: user or admin
	Currency string `gorm:"type:varchar(8);not null;default:USD" json:"currency"` // Default currency
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserSummary is the public-safe view of a user
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Summary returns the public-safe view of the user
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// ValidRole reports whether role is a known role
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
