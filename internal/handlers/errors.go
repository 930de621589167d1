package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/services"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{apperr.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{apperr.ErrConcurrentModification, http.StatusConflict, "concurrent_modification"},
	{apperr.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{apperr.ErrOrderTerminal, http.StatusConflict, "order_terminal"},
	{apperr.ErrOrderNotReady, http.StatusConflict, "order_not_ready"},
	{apperr.ErrTableHasOrders, http.StatusConflict, "table_has_orders"},
	{apperr.ErrCounterOrder, http.StatusConflict, "counter_order"},
	{apperr.ErrEmptyDraft, http.StatusConflict, "empty_order"},
	{apperr.ErrNoActiveOrder, http.StatusConflict, "no_active_order"},
	{apperr.ErrNoTableSelected, http.StatusConflict, "no_table_selected"},
	{apperr.ErrInsufficientPayment, http.StatusPaymentRequired, "insufficient_payment"},
	{apperr.ErrInvalidQuantity, http.StatusUnprocessableEntity, "invalid_quantity"},
	{apperr.ErrInvalidPaymentMethod, http.StatusUnprocessableEntity, "invalid_payment_method"},
	{apperr.ErrProductInactive, http.StatusUnprocessableEntity, "product_inactive"},
	{apperr.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{apperr.ErrTableNotFound, http.StatusNotFound, "table_not_found"},
	{apperr.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{apperr.ErrItemNotInOrder, http.StatusNotFound, "item_not_in_order"},
	{apperr.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{apperr.ErrUserNotFound, http.StatusUnauthorized, "unknown_user"},
	{services.ErrInsufficientPermissions, http.StatusForbidden, "forbidden"},
}

// respondError writes the failure of one command. The order, table and
// stock state were left unchanged by the failed command.
func respondError(c *gin.Context, err error) {
	var stockErr *apperr.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"code":      "insufficient_stock",
			"product":   stockErr.ProductName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.err.Error(), "code": m.code})
			return
		}
	}

	log.WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": "bad_request"})
}
