package api

import (
	"errors"
	"net/http"
	"strconv"

	"license-api/internal/database"
	"license-api/internal/middleware"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const defaultPageSize = 20

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// GetFreeKeyQuota returns the caller's quota and free-key plan
// GET /api/reseller/free-key
func GetFreeKeyQuota(c *gin.Context) {
	reseller := middleware.GetReseller(c)

	resellerService := services.NewResellerService()
	quota, err := resellerService.CheckQuota(reseller.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	data := gin.H{"quota": quota}
	if reseller.FreeKeyPlanID != nil {
		if plan, err := database.GetPlanByID(*reseller.FreeKeyPlanID); err == nil {
			data["free_key_plan"] = plan
		}
	}

	response.SuccessJSON(c, data)
}

// IssueFreeKeysRequest represents a free key issuance request
type IssueFreeKeysRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=50"`
}

// IssueFreeKeys issues keys against the caller's free-key quota
// POST /api/reseller/free-key
func IssueFreeKeys(c *gin.Context) {
	reseller := middleware.GetReseller(c)

	var req IssueFreeKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	resellerService := services.NewResellerService()
	keys, quota, err := resellerService.IssueFreeKeys(reseller.ID, req.Quantity)
	if err != nil {
		serviceError(c, err)
		return
	}

	keyStrings := make([]string, 0, len(keys))
	for i := range keys {
		keyStrings = append(keyStrings, keys[i].Key)
	}

	response.SuccessJSON(c, gin.H{
		"keys":  keyStrings,
		"quota": quota,
	})
}

// GetResellerPlans lists active plans with the caller's discount applied
// GET /api/reseller/plans
func GetResellerPlans(c *gin.Context) {
	reseller := middleware.GetReseller(c)

	planService := services.NewPlanService()
	plans, err := planService.PlansForReseller(reseller)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"plans":            plans,
		"discount_percent": reseller.DiscountPercent,
	})
}

// PurchaseKeysRequest represents a key purchase request
type PurchaseKeysRequest struct {
	PlanID   uint `json:"plan_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1,max=50"`
}

// PurchaseKeys buys keys against the caller's prepaid balance
// POST /api/reseller/keys
func PurchaseKeys(c *gin.Context) {
	reseller := middleware.GetReseller(c)

	var req PurchaseKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	resellerService := services.NewResellerService()
	result, err := resellerService.PurchaseKeys(reseller.ID, req.PlanID, req.Quantity)
	if err != nil {
		serviceError(c, err)
		return
	}

	keyStrings := make([]string, 0, len(result.Keys))
	for i := range result.Keys {
		keyStrings = append(keyStrings, result.Keys[i].Key)
	}

	response.SuccessJSON(c, gin.H{
		"keys":              keyStrings,
		"total_cost":        result.TotalCost,
		"remaining_balance": result.RemainingBalance,
		"transaction":       result.Transaction,
	})
}

// GetResellerKeys lists the caller's issued keys
// GET /api/reseller/keys?type=PURCHASED|FREE&page=&page_size=
func GetResellerKeys(c *gin.Context) {
	reseller := middleware.GetReseller(c)
	page, pageSize := pageParams(c)

	resellerService := services.NewResellerService()
	keys, total, err := resellerService.Keys(reseller.ID, c.Query("type"), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusBadRequest, "type must be PURCHASED or FREE")
			return
		}
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"keys": keys,
		"pagination": response.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

// GetResellerBalance returns the current balance with ledger history
// GET /api/reseller/balance?page=&page_size=
func GetResellerBalance(c *gin.Context) {
	reseller := middleware.GetReseller(c)
	page, pageSize := pageParams(c)

	resellerService := services.NewResellerService()
	balance, err := resellerService.Balance(reseller.ID, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"balance":      balance.Balance,
		"transactions": balance.Transactions,
		"pagination": response.Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    balance.Total,
		},
	})
}

// GetResellerStats returns aggregate counts and recent activity
// GET /api/reseller/stats
func GetResellerStats(c *gin.Context) {
	reseller := middleware.GetReseller(c)

	resellerService := services.NewResellerService()
	stats, err := resellerService.Stats(reseller.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, stats)
}

// GetResellerProfile returns the caller's contact info. Session
// authenticated: the dashboard, not the partner API, manages profiles.
// GET /api/reseller/profile
func GetResellerProfile(c *gin.Context) {
	user := middleware.GetUser(c)

	reseller, err := database.GetResellerByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "No reseller account for this user")
			return
		}
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"email":            user.Email,
		"name":             user.Name,
		"status":           reseller.Status,
		"discount_percent": reseller.DiscountPercent,
	})
}

// UpdateResellerProfileRequest represents a profile update
type UpdateResellerProfileRequest struct {
	Name string `json:"name"`
}

// UpdateResellerProfile updates the caller's contact info
// PUT /api/reseller/profile
func UpdateResellerProfile(c *gin.Context) {
	user := middleware.GetUser(c)

	var req UpdateResellerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	if _, err := database.GetResellerByUserID(user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "No reseller account for this user")
			return
		}
		serviceError(c, err)
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if len(updates) > 0 {
		if err := database.UpdateResellerProfile(user.ID, updates); err != nil {
			serviceError(c, err)
			return
		}
	}

	response.SuccessJSON(c, nil)
}
