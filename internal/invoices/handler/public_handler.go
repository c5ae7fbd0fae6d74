package handler

import (
	"errors"
	"io"
	"net/http"

	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/httpkit"
	"orcamento_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler handles unauthenticated requests made through an invoice's public link.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates a new public invoices handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers the public invoice routes (no auth middleware).
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:token", h.Get)
	rg.POST("/:token/approve", h.Approve)
	rg.POST("/:token/refuse", h.Refuse)
	rg.POST("/:token/abandon", h.Abandon)
	rg.GET("/:token/pdf", h.DownloadPDF)
}

// Get handles GET /api/v1/public/invoices/:token
func (h *PublicHandler) Get(c *gin.Context) {
	result, err := h.svc.GetPublic(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Approve handles POST /api/v1/public/invoices/:token/approve
func (h *PublicHandler) Approve(c *gin.Context) {
	result, err := h.svc.Approve(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Refuse handles POST /api/v1/public/invoices/:token/refuse
func (h *PublicHandler) Refuse(c *gin.Context) {
	req, ok := h.bindReason(c)
	if !ok {
		return
	}

	result, err := h.svc.Refuse(c.Request.Context(), c.Param("token"), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Abandon handles POST /api/v1/public/invoices/:token/abandon
func (h *PublicHandler) Abandon(c *gin.Context) {
	req, ok := h.bindReason(c)
	if !ok {
		return
	}

	result, err := h.svc.Abandon(c.Request.Context(), c.Param("token"), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DownloadPDF handles GET /api/v1/public/invoices/:token/pdf
func (h *PublicHandler) DownloadPDF(c *gin.Context) {
	result, err := h.svc.RenderPublicPDF(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}

	servePDF(c, result, c.Query("download") == "true")
}

// bindReason reads the optional JSON body. An empty body leaves the reason
// blank so the service reports it as missing.
func (h *PublicHandler) bindReason(c *gin.Context) (transport.PublicReasonRequest, bool) {
	var req transport.PublicReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, false
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return req, false
	}
	return req, true
}
