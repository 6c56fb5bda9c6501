package api

import (
	"net/http"

	"license-api/internal/config"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and sets the session cookie
// POST /api/auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	authService := services.NewAuthService()
	session, user, err := authService.Login(req.Email, req.Password)
	if err != nil {
		serviceError(c, err)
		return
	}

	maxAge := config.AppConfig.SessionTTLHours * 3600
	c.SetCookie("session_token", session.Token, maxAge, "/", "", false, true)

	response.SuccessJSON(c, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// Logout removes the session and clears the cookie
// POST /api/auth/logout
func Logout(c *gin.Context) {
	token, err := c.Cookie("session_token")
	if err == nil && token != "" {
		authService := services.NewAuthService()
		if err := authService.Logout(token); err != nil {
			serviceError(c, err)
			return
		}
	}

	c.SetCookie("session_token", "", -1, "/", "", false, true)
	response.SuccessJSON(c, nil)
}
