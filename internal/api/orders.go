package api

import (
	"net/http"

	"license-api/internal/middleware"
	"license-api/internal/models"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest represents a storefront purchase request
type CreateOrderRequest struct {
	PlanID        uint   `json:"plan_id" binding:"required"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
}

// CreateOrder opens a pending order for the caller
// POST /api/orders
func CreateOrder(c *gin.Context) {
	user := middleware.GetUser(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorDetailsJSON(c, http.StatusBadRequest, "Invalid request format", err.Error())
		return
	}

	orderService := services.NewOrderService()
	order, err := orderService.CreateOrder(user.ID, req.PlanID, req.Currency, req.PaymentMethod)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, response.Success(order))
}

// GetUserOrders returns the caller's order history
// GET /api/orders
func GetUserOrders(c *gin.Context) {
	user := middleware.GetUser(c)

	orderService := services.NewOrderService()
	orders, err := orderService.UserOrders(user.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{"orders": orders})
}

// GetOrder returns one order by code, scoped to its owner
// GET /api/orders/:code
func GetOrder(c *gin.Context) {
	user := middleware.GetUser(c)

	orderService := services.NewOrderService()
	order, err := orderService.GetOrder(c.Param("code"), user.ID, user.Role == models.RoleAdmin)
	if err != nil {
		serviceError(c, err)
		return
	}

	response.SuccessJSON(c, order)
}
