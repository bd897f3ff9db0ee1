package utils

import (
	"fmt"  // Error formatting
	"time" // Time for token expiration

	"finance_tracker/internal/domain" // User model

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Issuer set on every token
const tokenIssuer = "finance-tracker"

// Claims carried by a session token
type Claims struct {
	UserID               string `json:"id"`    // User ID
	Email                string `json:"email"` // Email at issue time
	Role                 string `json:"role"`  // Role at issue time
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a signed token for the given user that expires after ttl
func GenerateJWT(user *domain.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Short-lived, no refresh tokens
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a token string, rejecting non-HMAC algorithms and expired tokens
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithExpirationRequired(), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
