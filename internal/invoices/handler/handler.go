package handler

import (
	"net/http"

	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/httpkit"
	"orcamento_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid invoice ID"
)

// Handler handles operator HTTP requests for invoices
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new invoices handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the invoice routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/clone", h.Clone)
	rg.PATCH("/:id/status", h.ChangeStatus)
	rg.POST("/:id/public-url/regenerate", h.RegeneratePublicURL)
	rg.PATCH("/:id/public-url", h.TogglePublicURL)
	rg.GET("/:id/pdf", h.DownloadPDF)
}

// List handles GET /api/v1/invoices
func (h *Handler) List(c *gin.Context) {
	var req transport.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	result, err := h.svc.FindAll(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Create handles POST /api/v1/invoices
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// GetByID handles GET /api/v1/invoices/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.FindOne(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Update handles PUT /api/v1/invoices/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Delete handles DELETE /api/v1/invoices/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}

	c.Status(http.StatusNoContent)
}

// Clone handles POST /api/v1/invoices/:id/clone?updatePrices=
func (h *Handler) Clone(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CloneInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Clone(c.Request.Context(), id, req.UpdatePrices)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// ChangeStatus handles PATCH /api/v1/invoices/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	result, err := h.svc.ChangeStatus(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// RegeneratePublicURL handles POST /api/v1/invoices/:id/public-url/regenerate
func (h *Handler) RegeneratePublicURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.RegeneratePublicURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// TogglePublicURL handles PATCH /api/v1/invoices/:id/public-url
func (h *Handler) TogglePublicURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.TogglePublicURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	result, err := h.svc.TogglePublicURL(c.Request.Context(), id, *req.Active)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DownloadPDF handles GET /api/v1/invoices/:id/pdf
func (h *Handler) DownloadPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.RenderPDF(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	servePDF(c, result, c.Query("download") == "true")
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
