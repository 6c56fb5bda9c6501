package api

import (
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

// GetPlans lists active plans for the storefront
// GET /api/plans
func GetPlans(c *gin.Context) {
	planService := services.NewPlanService()
	plans, err := planService.ActivePlans()
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{"plans": plans})
}
