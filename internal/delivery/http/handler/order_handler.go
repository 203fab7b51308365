package handler

import (
	"net/http"
	"strconv"

	"movapp-backend/internal/middleware"
	"movapp-backend/internal/usecase/order"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	service *order.Service
}

func NewOrderHandler(service *order.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes mounts the public order routes. Create runs behind
// optional auth so a signed-in buyer is linked to the order.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, optionalAuth gin.HandlerFunc) {
	orders := router.Group("/orders")
	{
		orders.POST("", optionalAuth, h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.GET("/number/:orderNumber", h.GetOrderByNumber)
	}
}

func (h *OrderHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.GET("/orders/paid", h.ListPaidOrders)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req order.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	var userID *uuid.UUID
	if id, ok := middleware.GetUserUUID(c); ok {
		userID = &id
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Order created", resp)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondWithError(c, appErrors.NewAppError(appErrors.CodeValidation, "Invalid order ID", nil))
		return
	}

	resp, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved", resp)
}

func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	resp, err := h.service.GetOrderByNumber(c.Request.Context(), utils.SanitizeString(c.Param("orderNumber")))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Order retrieved", resp)
}

func (h *OrderHandler) ListPaidOrders(c *gin.Context) {
	userID, ok := middleware.GetUserUUID(c)
	if !ok {
		respondWithError(c, appErrors.ErrUnauthenticated)
		return
	}

	orders, err := h.service.ListPaidOrders(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Paid orders retrieved", orders)
}
