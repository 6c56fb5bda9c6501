package api

import (
	"net/http"
	"strconv"

	"license-api/internal/models"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.ErrorJSON(c, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// PatchOrderRequest represents an admin order update
type PatchOrderRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// PatchOrder confirms or cancels an order
// PATCH /api/admin/orders/:id
func PatchOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req PatchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	orderService := services.NewOrderService()

	switch {
	case req.PaymentStatus == models.PaymentCompleted || req.Status == models.OrderCompleted:
		order, err := orderService.ConfirmPayment(orderID)
		if err != nil {
			serviceError(c, err)
			return
		}
		response.SuccessJSON(c, order)
	case req.PaymentStatus == models.PaymentCancelled || req.Status == models.OrderCancelled:
		order, err := orderService.CancelOrder(orderID)
		if err != nil {
			serviceError(c, err)
			return
		}
		response.SuccessJSON(c, order)
	default:
		response.ErrorJSON(c, http.StatusBadRequest, "status or payment_status must be COMPLETED or CANCELLED")
	}
}

// CreditResellerRequest represents a balance top-up
type CreditResellerRequest struct {
	Amount      int64  `json:"amount" binding:"required,min=1"`
	Description string `json:"description"`
}

// CreditReseller tops up a reseller's prepaid balance
// POST /api/admin/resellers/:id/credit
func CreditReseller(c *gin.Context) {
	resellerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreditResellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	description := req.Description
	if description == "" {
		description = "Balance credit"
	}

	resellerService := services.NewResellerService()
	transaction, err := resellerService.CreditBalance(resellerID, req.Amount, description)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, transaction)
}

// SetLicenseStatusRequest represents a forced license transition
type SetLicenseStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetLicenseStatus suspends, resumes, revokes or bans a key
// POST /api/admin/licenses/:key/status
func SetLicenseStatus(c *gin.Context) {
	var req SetLicenseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	license, err := licenseService.SetStatus(c.Param("key"), req.Status)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"key":    license.Key,
		"status": license.Status,
	})
}

// GetAdminPlans lists every plan including inactive ones
// GET /api/admin/plans
func GetAdminPlans(c *gin.Context) {
	planService := services.NewPlanService()
	plans, err := planService.AllPlans()
	if err != nil {
		serviceError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"plans": plans})
}

// CreatePlanRequest represents a new plan
type CreatePlanRequest struct {
	Name          string   `json:"name" binding:"required"`
	NameEn        string   `json:"name_en"`
	Price         int64    `json:"price" binding:"required,min=0"`
	PriceUSD      int64    `json:"price_usd" binding:"min=0"`
	ResellerPrice int64    `json:"reseller_price" binding:"min=0"`
	DurationType  string   `json:"duration_type" binding:"required"`
	DurationValue int      `json:"duration_value"`
	MaxDevices    int      `json:"max_devices" binding:"min=1"`
	Features      []string `json:"features"`
	IsPopular     bool     `json:"is_popular"`
	IsFeatured    bool     `json:"is_featured"`
	Priority      int      `json:"priority"`
}

// CreatePlan creates a plan
// POST /api/admin/plans
func CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}
	if !models.ValidDurationType(req.DurationType) {
		response.ErrorJSON(c, http.StatusBadRequest, "invalid duration_type")
		return
	}

	plan := &models.Plan{
		Name:          req.Name,
		NameEn:        req.NameEn,
		Price:         req.Price,
		PriceUSD:      req.PriceUSD,
		ResellerPrice: req.ResellerPrice,
		DurationType:  req.DurationType,
		DurationValue: req.DurationValue,
		MaxDevices:    req.MaxDevices,
		IsActive:      true,
		IsPopular:     req.IsPopular,
		IsFeatured:    req.IsFeatured,
		Priority:      req.Priority,
	}
	if plan.DurationValue == 0 {
		plan.DurationValue = 1
	}
	if plan.MaxDevices == 0 {
		plan.MaxDevices = 1
	}

	planService := services.NewPlanService()
	if err := planService.CreatePlan(plan, req.Features); err != nil {
		serviceError(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, response.Success(plan))
}

// UpdatePlanRequest represents a partial plan update
type UpdatePlanRequest struct {
	Name          string    `json:"name"`
	NameEn        string    `json:"name_en"`
	Price         *int64    `json:"price"`
	PriceUSD      *int64    `json:"price_usd"`
	ResellerPrice *int64    `json:"reseller_price"`
	MaxDevices    *int      `json:"max_devices"`
	Features      *[]string `json:"features"`
	IsActive      *bool     `json:"is_active"`
	IsPopular     *bool     `json:"is_popular"`
	IsFeatured    *bool     `json:"is_featured"`
	Priority      *int      `json:"priority"`
}

// UpdatePlan applies a partial plan update. Duration is immutable once a
// plan exists; issued keys copied it anyway.
// PUT /api/admin/plans/:id
func UpdatePlan(c *gin.Context) {
	planID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	// Build update map
	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.NameEn != "" {
		updates["name_en"] = req.NameEn
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.PriceUSD != nil {
		updates["price_usd"] = *req.PriceUSD
	}
	if req.ResellerPrice != nil {
		updates["reseller_price"] = *req.ResellerPrice
	}
	if req.MaxDevices != nil && *req.MaxDevices > 0 {
		updates["max_devices"] = *req.MaxDevices
	}
	if req.Features != nil {
		plan := models.Plan{}
		if err := plan.SetFeatures(*req.Features); err != nil {
			response.ErrorJSON(c, http.StatusBadRequest, "invalid features")
			return
		}
		updates["features"] = plan.Features
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsPopular != nil {
		updates["is_popular"] = *req.IsPopular
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}

	planService := services.NewPlanService()
	if err := planService.UpdatePlan(planID, updates); err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, nil)
}

// DeletePlan soft-deletes a plan
// DELETE /api/admin/plans/:id
func DeletePlan(c *gin.Context) {
	planID, ok := parseID(c, "id")
	if !ok {
		return
	}

	planService := services.NewPlanService()
	if err := planService.DeletePlan(planID); err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, nil)
}
