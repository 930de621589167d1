package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/services"
)

// POSHandler serves terminal sessions: mode switching, cart edits, sending
// to the kitchen and paying.
type POSHandler struct {
	controller *services.OrderController
}

func NewPOSHandler(controller *services.OrderController) *POSHandler {
	return &POSHandler{controller: controller}
}

func (h *POSHandler) Register(r *gin.RouterGroup) {
	sessions := r.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.CloseSession)
	sessions.POST("/:id/counter", h.UseCounter)
	sessions.POST("/:id/table", h.SelectTable)
	sessions.POST("/:id/resume", h.ResumeOrder)
	sessions.POST("/:id/new-order", h.StartNewOrder)
	sessions.POST("/:id/items", h.AddItem)
	sessions.PATCH("/:id/items", h.ChangeItemQuantity)
	sessions.DELETE("/:id/items", h.RemoveItem)
	sessions.POST("/:id/send", h.SendToKitchen)
	sessions.POST("/:id/pay", h.Pay)
	sessions.POST("/:id/cancel", h.Cancel)
}

type itemRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	VariationID uint   `json:"variation_id"`
	Quantity    int    `json:"quantity"`
	Delta       int    `json:"delta"`
	Notes       string `json:"notes"`
}

func (r itemRequest) ref() services.StockRef {
	return services.StockRef{ProductID: r.ProductID, VariationID: r.VariationID}
}

type payRequest struct {
	PaymentMethod  models.PaymentMethod `json:"payment_method" binding:"required"`
	AmountTendered *decimal.Decimal     `json:"amount_tendered"`
}

func (h *POSHandler) loadSession(c *gin.Context) (*services.Session, bool) {
	session, err := h.controller.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

func (h *POSHandler) CreateSession(c *gin.Context) {
	session, err := h.controller.CreateSession(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *POSHandler) GetSession(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	response := gin.H{"session": session}
	if session.OrderID != nil {
		order, err := h.controller.GetOrder(c.Request.Context(), *session.OrderID)
		if err != nil {
			respondError(c, err)
			return
		}
		response["order"] = order
	}
	c.JSON(http.StatusOK, response)
}

func (h *POSHandler) CloseSession(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := h.controller.CloseSession(c.Request.Context(), session); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *POSHandler) UseCounter(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := h.controller.UseCounter(c.Request.Context(), session); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *POSHandler) SelectTable(c *gin.Context) {
	var req struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	selection, err := h.controller.SelectTable(c.Request.Context(), session, req.TableID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "selection": selection})
}

func (h *POSHandler) ResumeOrder(c *gin.Context) {
	var req struct {
		OrderID uint `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	order, err := h.controller.ResumeOrder(c.Request.Context(), session, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "order": order})
}

func (h *POSHandler) StartNewOrder(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	if err := h.controller.StartNewTableOrder(c.Request.Context(), session); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *POSHandler) AddItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	result, err := h.controller.AddItem(c.Request.Context(), session, req.ref(), req.Quantity, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *POSHandler) ChangeItemQuantity(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	result, err := h.controller.ChangeItemQuantity(c.Request.Context(), session, req.ref(), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *POSHandler) RemoveItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	result, err := h.controller.RemoveItem(c.Request.Context(), session, req.ref())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *POSHandler) SendToKitchen(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	order, err := h.controller.SendToKitchen(c.Request.Context(), session)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *POSHandler) Pay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	receipt, err := h.controller.Pay(c.Request.Context(), session, services.PaymentRequest{
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

func (h *POSHandler) Cancel(c *gin.Context) {
	session, ok := h.loadSession(c)
	if !ok {
		return
	}
	order, err := h.controller.Cancel(c.Request.Context(), session)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "order": order})
}
