package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/services"
)

type StockHandler struct {
	inventory services.InventoryService
}

func NewStockHandler(inventory services.InventoryService) *StockHandler {
	return &StockHandler{inventory: inventory}
}

func (h *StockHandler) Register(r *gin.RouterGroup) {
	stock := r.Group("/stock")
	stock.POST("/entries", h.RecordPurchase)
	stock.GET("/entries", h.ListEntries)
	stock.POST("/backfill", h.Backfill)
	stock.GET("/low", h.LowStock)
}

func (h *StockHandler) RecordPurchase(c *gin.Context) {
	var req services.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	entry, err := h.inventory.RecordPurchase(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	// A zero quantity records nothing.
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *StockHandler) ListEntries(c *gin.Context) {
	var filter repository.StockEntryFilter
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid product_id")
			return
		}
		productID := uint(id)
		filter.ProductID = &productID
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	entries, err := h.inventory.ListStockEntries(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *StockHandler) Backfill(c *gin.Context) {
	created, err := h.inventory.Backfill(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": len(created), "entries": created})
}

func (h *StockHandler) LowStock(c *gin.Context) {
	products, err := h.inventory.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
