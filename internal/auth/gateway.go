// Package auth turns credentials into signed, time-bounded identity claims
// and checks those claims on later requests.
package auth

import (
	"context"  // Request scoping
	"errors"   // Sentinel errors
	"net/mail" // Email syntax
	"strings"  // Input normalisation
	"time"     // Token lifetime

	"finance_tracker/internal/apperr" // Error taxonomy
	"finance_tracker/internal/domain" // User model
	"finance_tracker/internal/utils"  // JWT helpers

	"github.com/sirupsen/logrus" // Structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// Password length bounds; bcrypt only reads the first 72 bytes
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// Messages returned to clients
const (
	MsgFieldsRequired     = "All fields are required."
	MsgPasswordTooShort   = "Password must be at least 6 characters long."
	MsgPasswordTooLong    = "Password must be at most 72 bytes long."
	MsgInvalidEmail       = "email must be a valid email address"
	MsgInvalidRole        = "role must be one of: user admin"
	MsgUserExists         = "User already exists"
	MsgUserNotFound       = "User not found."
	MsgInvalidCredentials = "Invalid credentials."
	MsgTokenInvalid       = "Token is not valid"
	MsgForbidden          = "You do not have permission to perform this action"
)

// Store errors
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserStore is the credential store the gateway reads and writes
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// RegisterInput is the data needed to create an account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string // Empty means domain.RoleUser
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// Gateway verifies credentials, issues tokens and validates them
type Gateway struct {
	store         UserStore
	secret        string
	ttl           time.Duration
	hashCost      int
	genericErrors bool
}

// Option configures a Gateway
type Option func(*Gateway)

// WithGenericLoginErrors answers unknown emails with "invalid credentials"
func WithGenericLoginErrors(on bool) Option {
	return func(g *Gateway) { g.genericErrors = on }
}

// WithHashCost overrides the bcrypt cost
func WithHashCost(cost int) Option {
	return func(g *Gateway) { g.hashCost = cost }
}

// NewGateway creates a gateway signing tokens with secret that live for ttl
func NewGateway(store UserStore, secret string, ttl time.Duration, opts ...Option) *Gateway {
	g := &Gateway{store: store, secret: secret, ttl: ttl, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a password with a fresh salt
func (g *Gateway) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates a user with the default role and currency
func (g *Gateway) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation(MsgFieldsRequired)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Validation(MsgPasswordTooShort)
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, apperr.Validation(MsgPasswordTooLong)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.Validation(MsgInvalidEmail)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	} else if !domain.ValidRole(role) {
		return nil, apperr.Validation(MsgInvalidRole)
	}
	// Check if user already exists
	if _, err := g.store.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Validation(MsgUserExists)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Internal("Failed to look up user", err)
	}
	hash, err := g.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}
	user := &domain.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		Currency: domain.DefaultCurrency,
	}
	if err := g.store.Create(ctx, user); err != nil {
		// The unique index catches registrations racing past the lookup
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.Validation(MsgUserExists)
		}
		return nil, apperr.Internal("Failed to create user", err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
		"type":    "register",
	}).Info("User registered")
	return user, nil
}

// Login checks credentials and issues a token
func (g *Gateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation(MsgFieldsRequired)
	}
	user, err := g.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		logrus.WithField("reason", "unknown_email").Info("Login failed")
		if g.genericErrors {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, apperr.NotFound(MsgUserNotFound)
	} else if err != nil {
		return nil, apperr.Internal("Failed to look up user", err)
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "reason": "bad_password"}).Info("Login failed")
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	token, err := utils.GenerateJWT(user, g.secret, g.ttl)
	if err != nil {
		return nil, apperr.Internal("Failed to generate token", err)
	}
	logrus.WithField("user_id", user.ID).Info("Login succeeded")
	return &LoginResult{Token: token, User: user.Summary()}, nil
}

// Authenticate verifies a bearer token and resolves the user it names
func (g *Gateway) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized(MsgTokenInvalid)
	}
	claims, err := utils.ParseJWT(token, g.secret)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: MsgTokenInvalid, Err: err}
	}
	user, err := g.store.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Unauthorized(MsgTokenInvalid) // Deleted since the token was issued
	} else if err != nil {
		return nil, apperr.Internal("Failed to resolve user", err)
	}
	return user, nil
}

// Authorize fails with forbidden unless user holds one of roles
func (g *Gateway) Authorize(user *domain.User, roles ...string) error {
	if user == nil {
		return apperr.Unauthorized(MsgTokenInvalid)
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return apperr.Forbidden(MsgForbidden)
}
