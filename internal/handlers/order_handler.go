package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/apperrors"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/middleware"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/services"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
)

// CheckoutRequest is the body of POST /checkout
type CheckoutRequest struct {
	TicketIDs []int64 `json:"ticketIds"`
}

// OrderHandler handles checkout, order and payment requests
type OrderHandler struct {
	checkout   services.CheckoutService
	settlement services.SettlementService
	orders     services.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout services.CheckoutService, settlement services.SettlementService, orders services.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, settlement: settlement, orders: orders}
}

// Checkout handles POST /checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	detail, err := h.checkout.Checkout(c.Request.Context(), middleware.UserID(c), req.TicketIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GetOrder handles GET /orders/:id. Buyers only see their own orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")
	detail, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.GetString(middleware.ContextRole) != jwt.RoleAdmin && detail.Order.UserID != middleware.UserID(c) {
		respondError(c, apperrors.NotFound("order", id))
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListOrders handles GET /orders?limit=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.ListOrders(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CancelOrder handles POST /admin/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	detail, err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ConfirmPayment handles POST /payments/confirm from the payment gateway
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	var in services.PaymentConfirmation
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	detail, err := h.settlement.ConfirmPayment(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
