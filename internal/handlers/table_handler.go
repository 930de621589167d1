package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/services"
)

// TableHandler serves the floor plan: table list and manual statuses.
type TableHandler struct {
	controller *services.OrderController
}

func NewTableHandler(controller *services.OrderController) *TableHandler {
	return &TableHandler{controller: controller}
}

func (h *TableHandler) Register(r *gin.RouterGroup) {
	r.GET("/tables", h.ListTables)
	r.PUT("/tables/:id/status", h.SetStatus)
}

func (h *TableHandler) ListTables(c *gin.Context) {
	tables, err := h.controller.ListTables(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *TableHandler) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.TableStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	table, err := h.controller.SetTableStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}
