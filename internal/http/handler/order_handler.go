package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/http/middleware"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

// OrderHandler exposes purchase and payment endpoints.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

func (h *OrderHandler) Place(c *gin.Context) {
	user, ok := middleware.Principal(c)
	if !ok {
		httperr.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		CourseID int64  `json:"course_id"`
		IntentID string `json:"payment_intent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.CourseID == 0 || req.IntentID == "" {
		badRequest(c, "course_id and payment_intent_id are required")
		return
	}

	order, err := h.Orders.Place(c.Request.Context(), user, req.CourseID, req.IntentID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.Orders.List(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func (h *OrderHandler) PublishableKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publishable_key": h.Orders.PublishableKey()})
}

func (h *OrderHandler) CreateIntent(c *gin.Context) {
	var req struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		badRequest(c, "a positive amount is required")
		return
	}

	intent, err := h.Orders.CreateIntent(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "client_secret": intent.ClientSecret})
}
