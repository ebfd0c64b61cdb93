package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/grga023/latice-erp/internal/service"
	"github.com/grga023/latice-erp/internal/store"
	"github.com/grga023/latice-erp/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders *service.OrderService
	lager  *service.LagerService
	notify *service.NotifyService
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *service.OrderService, lager *service.LagerService, notify *service.NotifyService) *Handler {
	return &Handler{
		orders: orders,
		lager:  lager,
		notify: notify,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/orders", h.listOrders)
		api.GET("/orders/new", h.listByStatus("new"))
		api.GET("/orders/for_delivery", h.listByStatus("for_delivery"))
		api.GET("/orders/realized", h.listByStatus("realized"))
		api.POST("/orders", h.createOrder)
		api.GET("/order/:id", h.getOrder)
		api.POST("/update_status", h.updateStatus)
		api.POST("/update_order/:id", h.updateOrder)
		api.DELETE("/delete_order/:id", h.deleteOrder)
		api.POST("/order_from_lager", h.orderFromLager)
		api.POST("/return_to_lager/:id", h.returnToLager)

		api.GET("/lager", h.listItems)
		api.POST("/lager", h.createItem)
		api.DELETE("/lager/:id", h.deleteItem)
		api.POST("/lager/:id/increase_quantity", h.increaseQuantity)

		api.GET("/email_config", h.getEmailConfig)
		api.POST("/email_config", h.saveEmailConfig)
		api.POST("/test_email", h.testEmail)
		api.POST("/check_notifications", h.checkNotifications)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), "")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) listByStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.orders.ListOrders(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	var in service.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": order.ID})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Paid   *bool  `json:"paid"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), req.ID, req.Status, req.Paid); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) updateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.EditOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.EditOrder(c.Request.Context(), id, in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type orderFromLagerRequest struct {
	service.CreateOrderInput
	LagerID int64 `json:"lager_id"`
}

func (h *Handler) orderFromLager(c *gin.Context) {
	var req orderFromLagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.CreateOrderFromInventory(c.Request.Context(), req.LagerID, req.CreateOrderInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": order.ID})
}

func (h *Handler) returnToLager(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.orders.ReturnToInventory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.lager.ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) createItem(c *gin.Context) {
	var in service.CreateItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item, err := h.lager.CreateItem(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": item.ID})
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.lager.DeleteItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type increaseQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) increaseQuantity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req increaseQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	newQuantity, err := h.lager.IncreaseQuantity(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "new_quantity": newQuantity})
}

func (h *Handler) getEmailConfig(c *gin.Context) {
	settings, err := h.notify.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":        settings.Enabled,
		"sender_email":   settings.SenderEmail,
		"receiver_email": settings.ReceiverEmail,
		"days_before":    settings.DaysBefore,
		"has_password":   settings.AppPassword != "",
	})
}

func (h *Handler) saveEmailConfig(c *gin.Context) {
	var in service.SettingsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if _, err := h.notify.UpdateSettings(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) testEmail(c *gin.Context) {
	if err := h.notify.SendTestEmail(c.Request.Context()); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": verr.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) checkNotifications(c *gin.Context) {
	if err := h.notify.RunCheck(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrItemNotFound),
		errors.Is(err, store.ErrNoInventoryLink),
		errors.Is(err, store.ErrInventoryLinkGone):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
