package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/http/httperr"
	"github.com/jackson0tr/lerko-backend/internal/service"
)

// LayoutHandler exposes the singleton layout documents.
type LayoutHandler struct {
	Layouts *service.LayoutService
}

func NewLayoutHandler(layouts *service.LayoutService) *LayoutHandler {
	return &LayoutHandler{Layouts: layouts}
}

type layoutRequest struct {
	Type       string            `json:"type"`
	Banner     *domain.Banner    `json:"banner"`
	FAQ        []domain.FAQItem  `json:"faq"`
	Categories []domain.Category `json:"categories"`
}

func (r layoutRequest) toDomain() (domain.Layout, bool) {
	t, ok := domain.ParseLayoutType(r.Type)
	if !ok {
		return domain.Layout{}, false
	}
	return domain.Layout{
		Type:       t,
		Banner:     r.Banner,
		FAQ:        r.FAQ,
		Categories: r.Categories,
	}, true
}

func (h *LayoutHandler) Create(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	layout, ok := req.toDomain()
	if !ok {
		badRequest(c, "unknown layout type")
		return
	}

	created, err := h.Layouts.Create(c.Request.Context(), layout)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "layout": created})
}

func (h *LayoutHandler) Update(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	layout, ok := req.toDomain()
	if !ok {
		badRequest(c, "unknown layout type")
		return
	}

	updated, err := h.Layouts.Update(c.Request.Context(), layout)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "layout": updated})
}

func (h *LayoutHandler) Get(c *gin.Context) {
	t, ok := domain.ParseLayoutType(c.Param("type"))
	if !ok {
		badRequest(c, "unknown layout type")
		return
	}

	layout, err := h.Layouts.Get(c.Request.Context(), t)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "layout": layout})
}
