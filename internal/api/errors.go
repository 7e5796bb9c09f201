package api

import (
	"errors"
	"net/http"

	"po-manager/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps a domain error to its HTTP status. Unclassified errors are
// logged and reported without detail.
func (h *Handler) writeError(c *gin.Context, err error) {
	var balance *models.BalanceExceededError
	if errors.As(err, &balance) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"code":      "balance_exceeded",
			"remaining": balance.Remaining.StringFixed(2),
		})
		return
	}

	var field string
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		field = validation.Field
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error", "code": code})
		return
	}

	body := gin.H{"error": err.Error(), "code": code}
	if field != "" {
		body["field"] = field
	}
	c.JSON(status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, models.ErrHasPayments):
		return http.StatusConflict, "has_payments"
	case errors.Is(err, models.ErrHasOrders):
		return http.StatusConflict, "has_orders"
	case errors.Is(err, models.ErrBalanceExceeded):
		return http.StatusConflict, "balance_exceeded"
	case errors.Is(err, models.ErrDuplicate):
		return http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrSequenceExhausted):
		return http.StatusUnprocessableEntity, "sequence_exhausted"
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
