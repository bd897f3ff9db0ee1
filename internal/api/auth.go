package api

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/auth"       // Auth gateway
	"finance_tracker/internal/middleware" // Error reporting
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the registration body. Presence, email syntax and
// password length are checked by the gateway so every client gets the same messages.
type RegisterRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Email    string `json:"email" binding:"max=255"`
	Password string `json:"password"`
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Message string `json:"message"`
	auth.LoginResult
}

// RegisterHandler creates an account with the default role
func RegisterHandler(gw *auth.Gateway, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		_, err := gw.Register(c.Request.Context(), auth.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		invalidateUsers(c, cache)
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully."})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(gw *auth.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := bindJSON(c, &req); err != nil {
			middleware.Fail(c, err)
			return
		}
		res, err := gw.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, LoginResponse{Message: "Login successful.", LoginResult: *res})
	}
}
