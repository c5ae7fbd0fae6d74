package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType("application/pdf"))
	assert.NoError(t, ValidateContentType("Application/PDF; charset=binary"))
	assert.Error(t, ValidateContentType("image/png"))
	assert.Error(t, ValidateContentType(""))
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(1))
	assert.NoError(t, ValidateFileSize(MaxObjectSize))
	assert.Error(t, ValidateFileSize(0))
	assert.Error(t, ValidateFileSize(MaxObjectSize+1))
}

func TestInvoicePDFKey(t *testing.T) {
	assert.Equal(t, "invoices/ORC-000042.pdf", InvoicePDFKey("ORC-000042"))
}
