package middleware

import (
	"errors"
	"net/http"
	"strings"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/internal/response"
	"license-api/internal/services"
	"license-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the middleware below
const (
	CtxUser     = "user"
	CtxReseller = "reseller"
)

var (
	authService      *services.AuthService
	rateLimitService *services.RateLimitService
)

// InitMiddleware initializes the shared middleware services
func InitMiddleware() {
	authService = services.NewAuthService()
	rateLimitService = services.NewRateLimitService(config.AppConfig.RateLimitPerMinute)
}

// ResellerAuthMiddleware authenticates reseller API requests by bearer API
// key. Unknown keys are 401; known keys on a non-approved account are 403.
func ResellerAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		apiKey := strings.TrimPrefix(header, "Bearer ")
		if header == "" || apiKey == header {
			response.ErrorJSON(c, http.StatusUnauthorized, "Missing bearer API key")
			c.Abort()
			return
		}

		reseller, err := database.GetResellerByAPIKey(apiKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.ErrorJSON(c, http.StatusUnauthorized, "Invalid API key")
			} else {
				logging.Errorf("Failed to look up API key: %v", err)
				response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
			}
			c.Abort()
			return
		}

		if !reseller.IsApproved() {
			response.ErrorJSON(c, http.StatusForbidden, "Reseller account is not approved")
			c.Abort()
			return
		}

		c.Set(CtxReseller, reseller)
		c.Next()
	}
}

// RateLimitMiddleware throttles by API key. Runs after ResellerAuthMiddleware.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reseller := GetReseller(c)
		if reseller == nil {
			c.Next()
			return
		}

		allowed, err := rateLimitService.Allow(c.Request.Context(), reseller.APIKey)
		if err != nil {
			logging.Warnf("Rate limit check failed, allowing request: %v", err)
		}
		if !allowed {
			response.ErrorJSON(c, http.StatusTooManyRequests, "Rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionAuthMiddleware authenticates dashboard requests by session cookie.
func SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("session_token")
		if err != nil || token == "" {
			response.ErrorJSON(c, http.StatusUnauthorized, "Missing session")
			c.Abort()
			return
		}

		user, err := authService.Authenticate(token)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				response.ErrorJSON(c, http.StatusUnauthorized, "Invalid or expired session")
			} else {
				logging.Errorf("Failed to authenticate session: %v", err)
				response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
			}
			c.Abort()
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// AdminMiddleware restricts a route to admin users. Runs after
// SessionAuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			response.ErrorJSON(c, http.StatusForbidden, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUser returns the authenticated user from the context, or nil.
func GetUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CtxUser); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// GetReseller returns the authenticated reseller from the context, or nil.
func GetReseller(c *gin.Context) *models.Reseller {
	if v, exists := c.Get(CtxReseller); exists {
		if reseller, ok := v.(*models.Reseller); ok {
			return reseller
		}
	}
	return nil
}
