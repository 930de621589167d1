package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"restaurant_pos/internal/services"
)

type RouterDeps struct {
	Controller *services.OrderController
	Inventory  services.InventoryService
	Users      services.UserService
	RateLimit  gin.HandlerFunc
}

// NewRouter builds the gin engine with every API route mounted under /api.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if deps.RateLimit != nil {
		router.Use(deps.RateLimit)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(UserIdentity(deps.Users))
	{
		NewPOSHandler(deps.Controller).Register(api)
		NewOrderHandler(deps.Controller).Register(api)
		NewTableHandler(deps.Controller).Register(api)
		NewStockHandler(deps.Inventory).Register(api)
	}
	return router
}
