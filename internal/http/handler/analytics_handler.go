package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

// AnalyticsHandler exposes the admin dashboard series.
type AnalyticsHandler struct {
	Analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: analytics}
}

func (h *AnalyticsHandler) Users(c *gin.Context) {
	h.respond(c, h.Analytics.UsersByMonth)
}

func (h *AnalyticsHandler) Courses(c *gin.Context) {
	h.respond(c, h.Analytics.CoursesByMonth)
}

func (h *AnalyticsHandler) Orders(c *gin.Context) {
	h.respond(c, h.Analytics.OrdersByMonth)
}

func (h *AnalyticsHandler) respond(c *gin.Context, series func(ctx context.Context) ([]service.MonthCount, error)) {
	buckets, err := series(c.Request.Context())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "months": buckets})
}
