package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

// NotificationHandler exposes the admin notification feed.
type NotificationHandler struct {
	Notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.Notifications.List(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notification, err := h.Notifications.MarkRead(c.Request.Context(), id)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": notification})
}
