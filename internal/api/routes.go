package api

import (
	"errors"
	"net/http"

	"license-api/internal/middleware"
	"license-api/internal/response"
	"license-api/internal/services"
	"license-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine) {
	// Initialize middleware services
	middleware.InitMiddleware()

	// API route group
	api := r.Group("/api")
	{
		// Session login/logout
		auth := api.Group("/auth")
		{
			auth.POST("/login", Login)
			auth.POST("/logout", Logout)
		}

		// Public plan catalog
		api.GET("/plans", GetPlans)

		// Client license routes (the key itself is the credential)
		license := api.Group("/license")
		{
			license.POST("/activate", ActivateLicense)
			license.POST("/heartbeat", LicenseHeartbeat)
			license.GET("/status", GetLicenseStatus)
		}

		// Buyer routes (session cookie)
		user := api.Group("/user")
		user.Use(middleware.SessionAuthMiddleware())
		{
			user.GET("/licenses", GetUserLicenses)
		}

		orders := api.Group("/orders")
		orders.Use(middleware.SessionAuthMiddleware())
		{
			orders.POST("", CreateOrder)
			orders.GET("", GetUserOrders)
			orders.GET("/:code", GetOrder)
		}

		// Reseller API (bearer API key + rate limit)
		reseller := api.Group("/reseller")
		reseller.Use(middleware.ResellerAuthMiddleware(), middleware.RateLimitMiddleware())
		{
			reseller.GET("/free-key", GetFreeKeyQuota)
			reseller.POST("/free-key", IssueFreeKeys)
			reseller.GET("/plans", GetResellerPlans)
			reseller.GET("/keys", GetResellerKeys)
			reseller.POST("/keys", PurchaseKeys)
			reseller.GET("/balance", GetResellerBalance)
			reseller.GET("/stats", GetResellerStats)
		}

		// Reseller profile uses the dashboard session, not the API key
		resellerProfile := api.Group("/reseller")
		resellerProfile.Use(middleware.SessionAuthMiddleware())
		{
			resellerProfile.GET("/profile", GetResellerProfile)
			resellerProfile.PUT("/profile", UpdateResellerProfile)
		}

		// Admin routes (session + ADMIN role)
		admin := api.Group("/admin")
		admin.Use(middleware.SessionAuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.PATCH("/orders/:id", PatchOrder)
			admin.POST("/resellers/:id/credit", CreditReseller)
			admin.POST("/licenses/:key/status", SetLicenseStatus)
			admin.GET("/plans", GetAdminPlans)
			admin.POST("/plans", CreatePlan)
			admin.PUT("/plans/:id", UpdatePlan)
			admin.DELETE("/plans/:id", DeletePlan)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "license-service",
		})
	})
}

// serviceError maps service sentinels onto the HTTP error taxonomy.
// Anything unrecognized is logged and becomes a generic 500.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.ErrorJSON(c, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrInvalidQuantity):
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPlanInactive):
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoFreeKeyPlan):
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		response.ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAlreadyConfirmed):
		response.ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNotCancellable):
		response.ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrCapacityExceeded):
		response.ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrLicenseNotUsable):
		response.ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrTerminalStatus):
		response.ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInsufficientBalance):
		response.ErrorJSON(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		response.ErrorJSON(c, http.StatusUnauthorized, err.Error())
	default:
		logging.Errorf("Unexpected service error: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
}
