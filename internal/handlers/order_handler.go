package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/services"
)

// OrderHandler serves the order queue and order-level commands used by
// staff screens that are not tied to a terminal session.
type OrderHandler struct {
	controller *services.OrderController
}

func NewOrderHandler(controller *services.OrderController) *OrderHandler {
	return &OrderHandler{controller: controller}
}

func (h *OrderHandler) Register(r *gin.RouterGroup) {
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.PUT("/orders/:id/status", h.UpdateStatus)
	r.POST("/orders/:id/cancel", h.CancelOrder)
	r.POST("/orders/:id/pay", h.PayOrder)
	r.GET("/tables/:id/orders", h.TableOrders)
	r.GET("/kitchen/queue", h.KitchenQueue)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseRange(c *gin.Context) (from, to *time.Time, ok bool) {
	from, err := parseTime(c.Query("from"))
	if err != nil {
		badRequest(c, "invalid from")
		return nil, nil, false
	}
	to, err = parseTime(c.Query("to"))
	if err != nil {
		badRequest(c, "invalid to")
		return nil, nil, false
	}
	return from, to, true
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter repository.OrderFilter
	if raw := c.Query("table_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid table_id")
			return
		}
		tableID := uint(id)
		filter.TableID = &tableID
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = models.OrderStatus(raw)
		if !filter.Status.Valid() {
			badRequest(c, "invalid status")
			return
		}
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	orders, err := h.controller.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.controller.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	order, err := h.controller.AdvanceStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.controller.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) PayOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	receipt, err := h.controller.PayOrder(c.Request.Context(), id, services.PaymentRequest{
		UserID:         currentUser(c),
		Method:         req.PaymentMethod,
		AmountTendered: req.AmountTendered,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *OrderHandler) TableOrders(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	orders, err := h.controller.ActiveOrdersForTable(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) KitchenQueue(c *gin.Context) {
	orders, err := h.controller.KitchenQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
