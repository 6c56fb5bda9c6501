package api

import (
	"net/http"

	"license-api/internal/middleware"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

// ActivateLicenseRequest represents a device activation request
type ActivateLicenseRequest struct {
	Key        string `json:"key" binding:"required"`
	DeviceID   string `json:"device_id" binding:"required"`
	DeviceName string `json:"device_name"`
}

// ActivateLicense activates a device against a license key
// POST /api/license/activate
func ActivateLicense(c *gin.Context) {
	var req ActivateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	license, err := licenseService.Activate(req.Key, req.DeviceID, req.DeviceName)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"key":          license.Key,
		"status":       license.Status,
		"activated_at": license.ActivatedAt,
		"expires_at":   license.ExpiresAt,
		"max_devices":  license.MaxDevices,
	})
}

// LicenseHeartbeatRequest represents a device heartbeat
type LicenseHeartbeatRequest struct {
	Key      string `json:"key" binding:"required"`
	DeviceID string `json:"device_id" binding:"required"`
}

// LicenseHeartbeat refreshes a device's last-seen timestamp
// POST /api/license/heartbeat
func LicenseHeartbeat(c *gin.Context) {
	var req LicenseHeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	if err := licenseService.Heartbeat(req.Key, req.DeviceID); err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, nil)
}

// GetLicenseStatus returns the derived view of a key
// GET /api/license/status?key=XXXX-XXXX-XXXX-XXXX
func GetLicenseStatus(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "key is required")
		return
	}

	licenseService := services.NewLicenseService()
	view, err := licenseService.Status(key)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, view)
}

// GetUserLicenses returns the caller's licenses with derived fields
// GET /api/user/licenses
func GetUserLicenses(c *gin.Context) {
	user := middleware.GetUser(c)

	licenseService := services.NewLicenseService()
	views, err := licenseService.UserLicenses(user.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{"licenses": views})
}
