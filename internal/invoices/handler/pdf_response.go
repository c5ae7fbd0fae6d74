package handler

import (
	"fmt"
	"net/http"

	"orcamento_backend/internal/invoices/service"

	"github.com/gin-gonic/gin"
)

const contentTypePDF = "application/pdf"

// servePDF writes the rendered document. Browsers show it inline unless
// attachment is requested.
func servePDF(c *gin.Context, doc *service.RenderedPDF, attachment bool) {
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, doc.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentTypePDF, doc.Content)
}
