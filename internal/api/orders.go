package api

import (
	"net/http"

	"po-manager/internal/models"
	"po-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	ctx := c.Request.Context()

	createdBy := service.ActorFromContext(ctx)
	if createdBy == 0 {
		h.writeError(c, models.NewValidationError("created_by", "X-User-ID header is required"))
		return
	}

	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	req.CreatedBy = createdBy

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	detail, err := h.svc.Orders.CreateOrder(ctx, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// listOrders handles order listing
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.svc.Orders.ListOrders(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Orders.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Orders.DeleteOrder(c.Request.Context(), orderID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getRemainingBalance(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	remaining, err := h.svc.Payments.GetRemainingBalance(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":          orderID,
		"remaining_balance": remaining.StringFixed(2),
	})
}
