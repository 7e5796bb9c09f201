package api

import (
	"net/http"
	"strconv"

	"po-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// recordPayment handles a payment against an order
func (h *Handler) recordPayment(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req service.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	payment, err := h.svc.Payments.RecordPayment(c.Request.Context(), orderID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// listPayments lists all payments, or one order's with ?order_id=
func (h *Handler) listPayments(c *gin.Context) {
	var orderID int64
	if raw := c.Query("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order_id"})
			return
		}
		orderID = id
	}

	payments, err := h.svc.Payments.ListPayments(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) getPayment(c *gin.Context) {
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	payment, err := h.svc.Payments.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) updatePaymentStatus(c *gin.Context) {
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.svc.Payments.UpdatePaymentStatus(c.Request.Context(), paymentID, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
