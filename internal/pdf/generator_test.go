package pdf

import (
	"bytes"
	"testing"
	"time"

	"orcamento_backend/platform/branding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func sampleDocument() Document {
	valid := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	return Document{
		Company:     branding.Company{Name: "Marcenaria Silva", Email: "contato@silva.com.br", LogoPath: "/does/not/exist.png"},
		Code:        "ORC-000042",
		Status:      "READY",
		StatusLabel: "Pronto",
		IssuedAt:    time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		ValidUntil:  &valid,
		ClientName:  "João Araújo",
		ClientEmail: "joao@example.com",
		ClientPhone: "(11) 98765-4321",
		Groups: []Group{{
			Name: "Opção 1",
			Type: "PRODUCT",
			Lines: []Line{
				{Name: "Armário planejado - Carvalho", Description: "Portas de correr", Quantity: 2, UnitPrice: 1500, Total: 3000},
				{Name: "Instalação", Quantity: 1.5, UnitPrice: 200, Total: 300},
			},
			Total: 3300,
		}},
		PaymentConditions: []PaymentTerm{{Type: "Cartão", Installments: 10, InterestRate: 1.99}},
		TotalAmount:       3300,
		Discounts:         100,
		Displacement:      50,
		FinalAmount:       3250,
		Observations:      "Prazo de entrega de 30 dias.",
		PublicLink:        "https://app.example.com/orcamento/abc123",
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := NewGenerator().Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderWithoutOptionalBlocks(t *testing.T) {
	out, err := NewGenerator().Render(Document{Company: branding.Company{Name: "Empresa"}, Code: "ORC-000001"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFormatBRL(t *testing.T) {
	p := message.NewPrinter(language.BrazilianPortuguese)
	assert.Equal(t, "R$ 1.234,50", FormatBRL(p, 1234.5))
	assert.Equal(t, "R$ 0,00", FormatBRL(p, 0))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", formatQuantity(2))
	assert.Equal(t, "1.5", formatQuantity(1.5))
	assert.Equal(t, "0.125", formatQuantity(0.125))
}
