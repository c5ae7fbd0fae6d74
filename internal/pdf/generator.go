// Package pdf renders the printable summary of an orçamento using gofpdf.
// The document carries the issuing company header, the client contact, every
// option group with its lines, payment conditions, totals and a QR code that
// points back to the public link.
package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"orcamento_backend/platform/branding"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ── Colour palette ──────────────────────────────────────────────────────

type rgb struct{ r, g, b int }

var (
	colorPrimary   = rgb{17, 24, 39}    // near-black
	colorSecondary = rgb{107, 114, 128} // gray-500
	colorAccent    = rgb{37, 99, 235}   // blue-600
	colorTableHead = rgb{241, 245, 249} // slate-100
	colorTableAlt  = rgb{249, 250, 251} // gray-50
	colorGreen     = rgb{22, 163, 74}   // green-600
	colorRed       = rgb{220, 38, 38}   // red-600
	colorBorder    = rgb{226, 232, 240} // slate-200
)

const (
	pageMargin   = 15.0
	contentWidth = 180.0
	lineHeight   = 6.0
	qrSize       = 32.0
)

// ── Data struct ─────────────────────────────────────────────────────────

// Line is one printed item.
type Line struct {
	Name        string
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

// Group is one printed option bundle.
type Group struct {
	Name  string
	Type  string
	Lines []Line
	Total float64
}

// PaymentTerm is one printed payment condition.
type PaymentTerm struct {
	Type         string
	Description  string
	Installments int
	InterestRate float64
}

// Document holds everything printed on an orçamento PDF.
type Document struct {
	Company branding.Company

	Code        string
	Status      string
	StatusLabel string
	IssuedAt    time.Time
	ValidUntil  *time.Time

	ClientName  string
	ClientEmail string
	ClientPhone string

	Groups            []Group
	PaymentConditions []PaymentTerm

	TotalAmount  float64
	Discounts    float64
	Additions    float64
	Displacement float64
	FinalAmount  float64

	Observations string
	// PublicLink is encoded as a QR code when set.
	PublicLink string
}

// Generator renders Documents to PDF bytes.
type Generator struct {
	printer *message.Printer
}

// NewGenerator creates a Generator formatting amounts in Brazilian Portuguese.
func NewGenerator() *Generator {
	return &Generator{printer: message.NewPrinter(language.BrazilianPortuguese)}
}

// Render produces the PDF for doc.
func (g *Generator) Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin+5)
	pdf.SetTitle("Orçamento "+doc.Code, true)
	pdf.SetCreator(doc.Company.Name, true)
	pdf.AliasNbPages("")

	w := &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), printer: g.printer}
	pdf.SetFooterFunc(func() { w.footer(doc) })
	pdf.AddPage()

	w.header(doc)
	w.separator()
	w.clientBlock(doc)
	w.groups(doc.Groups)
	w.paymentConditions(doc.PaymentConditions)
	w.totals(doc)
	w.observations(doc.Observations)
	if err := w.qr(doc.PublicLink); err != nil {
		return nil, err
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// writer keeps the per-render state shared by the block builders.
type writer struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	printer *message.Printer
}

func (w *writer) money(amount float64) string {
	return FormatBRL(w.printer, amount)
}

func (w *writer) color(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }

func (w *writer) fill(c rgb) { w.pdf.SetFillColor(c.r, c.g, c.b) }

func (w *writer) cell(width float64, text, align string, fill bool) {
	w.pdf.CellFormat(width, lineHeight, w.tr(w.fit(text, width)), "", 0, align, fill, 0, "")
}

// fit truncates text so it does not overflow width.
func (w *writer) fit(text string, width float64) string {
	limit := width - 2
	if w.pdf.GetStringWidth(w.tr(text)) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && w.pdf.GetStringWidth(w.tr(string(runes)+"...")) > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// ── Header ──────────────────────────────────────────────────────────────

func (w *writer) header(doc Document) {
	top := w.pdf.GetY()
	textX := pageMargin

	if name, opts, ok := w.logo(doc.Company.LogoPath); ok {
		w.pdf.ImageOptions(name, pageMargin, top, 0, 18, false, opts, 0, "")
		textX = pageMargin + 40
	}

	w.pdf.SetXY(textX, top)
	w.pdf.SetFont("Helvetica", "B", 14)
	w.color(colorPrimary)
	w.pdf.CellFormat(100, 7, w.tr(doc.Company.Name), "", 2, "L", false, 0, "")

	w.pdf.SetFont("Helvetica", "", 8)
	w.color(colorSecondary)
	for _, line := range []string{
		doc.Company.Document,
		doc.Company.Address,
		joinParts([]string{doc.Company.Email, doc.Company.Phone, doc.Company.Website}, " | "),
	} {
		if line == "" {
			continue
		}
		w.pdf.CellFormat(100, 4, w.tr(line), "", 2, "L", false, 0, "")
	}
	bottom := w.pdf.GetY()

	w.pdf.SetXY(pageMargin+contentWidth-70, top)
	w.pdf.SetFont("Helvetica", "B", 20)
	w.color(colorAccent)
	w.pdf.CellFormat(70, 9, w.tr("ORÇAMENTO"), "", 2, "R", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.color(colorSecondary)
	w.pdf.CellFormat(70, 5, w.tr(doc.Code), "", 2, "R", false, 0, "")
	w.pdf.SetFont("Helvetica", "B", 9)
	w.color(statusColor(doc.Status))
	w.pdf.CellFormat(70, 5, w.tr(doc.StatusLabel), "", 2, "R", false, 0, "")

	if y := w.pdf.GetY(); y > bottom {
		bottom = y
	}
	w.pdf.SetXY(pageMargin, bottom+4)
}

// logo registers the company logo. A missing or unreadable file is skipped.
func (w *writer) logo(path string) (string, gofpdf.ImageOptions, bool) {
	if path == "" {
		return "", gofpdf.ImageOptions{}, false
	}
	var imageType string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		imageType = "PNG"
	case ".jpg", ".jpeg":
		imageType = "JPG"
	default:
		return "", gofpdf.ImageOptions{}, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", gofpdf.ImageOptions{}, false
	}
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	w.pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(raw))
	if w.pdf.Err() {
		w.pdf.ClearError()
		return "", gofpdf.ImageOptions{}, false
	}
	return "logo", opts, true
}

func (w *writer) separator() {
	y := w.pdf.GetY()
	w.pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	w.pdf.Line(pageMargin, y, pageMargin+contentWidth, y)
	w.pdf.Ln(5)
}

// ── Client block ────────────────────────────────────────────────────────

func (w *writer) clientBlock(doc Document) {
	w.sectionTitle("Cliente")

	w.pdf.SetFont("Helvetica", "B", 10)
	w.color(colorPrimary)
	w.cell(110, doc.ClientName, "L", false)

	w.pdf.SetFont("Helvetica", "", 9)
	w.color(colorSecondary)
	w.cell(70, "Emitido em "+doc.IssuedAt.Format("02/01/2006"), "R", false)
	w.pdf.Ln(lineHeight)

	contact := joinParts([]string{doc.ClientEmail, doc.ClientPhone}, " | ")
	w.cell(110, contact, "L", false)
	validity := "Sem data de validade"
	if doc.ValidUntil != nil {
		validity = "Válido até " + doc.ValidUntil.Format("02/01/2006")
	}
	w.cell(70, validity, "R", false)
	w.pdf.Ln(lineHeight + 4)
}

func (w *writer) sectionTitle(title string) {
	w.pdf.SetFont("Helvetica", "B", 11)
	w.color(colorAccent)
	w.pdf.CellFormat(contentWidth, 7, w.tr(title), "", 1, "L", false, 0, "")
}

// ── Groups ──────────────────────────────────────────────────────────────

var itemColumns = [4]float64{95, 20, 32.5, 32.5}

func (w *writer) groups(groups []Group) {
	for _, group := range groups {
		title := group.Name
		if label := groupTypeLabel(group.Type); label != "" {
			title += " (" + label + ")"
		}
		w.sectionTitle(title)
		w.itemTableHead()

		w.pdf.SetFont("Helvetica", "", 9)
		for i, line := range group.Lines {
			w.itemRow(line, i%2 == 1)
		}

		w.pdf.SetFont("Helvetica", "B", 9)
		w.color(colorPrimary)
		w.cell(itemColumns[0]+itemColumns[1]+itemColumns[2], "Subtotal", "R", false)
		w.cell(itemColumns[3], w.money(group.Total), "R", false)
		w.pdf.Ln(lineHeight + 4)
	}
}

func (w *writer) itemTableHead() {
	w.pdf.SetFont("Helvetica", "B", 9)
	w.color(colorSecondary)
	w.fill(colorTableHead)
	for i, title := range []string{"Item", "Qtd.", "Valor unit.", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		w.cell(itemColumns[i], title, align, true)
	}
	w.pdf.Ln(lineHeight)
}

func (w *writer) itemRow(line Line, alt bool) {
	w.fill(colorTableAlt)
	w.color(colorPrimary)
	w.cell(itemColumns[0], line.Name, "L", alt)
	w.cell(itemColumns[1], formatQuantity(line.Quantity), "R", alt)
	w.cell(itemColumns[2], w.money(line.UnitPrice), "R", alt)
	w.cell(itemColumns[3], w.money(line.Total), "R", alt)
	w.pdf.Ln(lineHeight)

	if line.Description != "" {
		w.pdf.SetFont("Helvetica", "I", 8)
		w.color(colorSecondary)
		w.pdf.MultiCell(itemColumns[0], 4, w.tr(line.Description), "", "L", false)
		w.pdf.SetFont("Helvetica", "", 9)
	}
}

// ── Payment conditions ──────────────────────────────────────────────────

func (w *writer) paymentConditions(terms []PaymentTerm) {
	if len(terms) == 0 {
		return
	}
	w.sectionTitle("Condições de pagamento")
	w.pdf.SetFont("Helvetica", "", 9)
	w.color(colorPrimary)
	for _, term := range terms {
		text := term.Type
		if term.Installments > 1 {
			text += fmt.Sprintf(" em %dx", term.Installments)
		}
		if term.InterestRate > 0 {
			text += " (juros de " + w.printer.Sprintf("%.2f", term.InterestRate) + "%)"
		}
		if term.Description != "" {
			text += " - " + term.Description
		}
		w.pdf.MultiCell(contentWidth, 5, w.tr("• "+text), "", "L", false)
	}
	w.pdf.Ln(4)
}

// ── Totals ──────────────────────────────────────────────────────────────

func (w *writer) totals(doc Document) {
	rows := []struct {
		label  string
		amount float64
		sign   string
	}{
		{"Total dos itens", doc.TotalAmount, ""},
		{"Descontos", doc.Discounts, "- "},
		{"Acréscimos", doc.Additions, "+ "},
		{"Deslocamento", doc.Displacement, "+ "},
	}

	labelX := pageMargin + contentWidth - 90
	w.pdf.SetFont("Helvetica", "", 9)
	w.color(colorSecondary)
	for _, row := range rows {
		if row.amount == 0 && row.sign != "" {
			continue
		}
		w.pdf.SetX(labelX)
		w.cell(50, row.label, "L", false)
		w.cell(40, row.sign+w.money(row.amount), "R", false)
		w.pdf.Ln(lineHeight)
	}

	w.pdf.SetX(labelX)
	w.fill(colorTableHead)
	w.pdf.SetFont("Helvetica", "B", 11)
	w.color(colorPrimary)
	w.cell(50, "Valor final", "L", true)
	w.cell(40, w.money(doc.FinalAmount), "R", true)
	w.pdf.Ln(lineHeight + 4)
}

// ── Observations ────────────────────────────────────────────────────────

func (w *writer) observations(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	w.sectionTitle("Observações")
	w.pdf.SetFont("Helvetica", "", 9)
	w.color(colorPrimary)
	w.pdf.MultiCell(contentWidth, 5, w.tr(text), "", "L", false)
	w.pdf.Ln(4)
}

// ── QR code ─────────────────────────────────────────────────────────────

func (w *writer) qr(link string) error {
	if link == "" {
		return nil
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr code: %w", err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	w.pdf.RegisterImageOptionsReader("public-link-qr", opts, bytes.NewReader(png))

	_, pageHeight := w.pdf.GetPageSize()
	if w.pdf.GetY()+qrSize+10 > pageHeight-pageMargin-5 {
		w.pdf.AddPage()
	}
	y := w.pdf.GetY()
	w.pdf.ImageOptions("public-link-qr", pageMargin, y, qrSize, qrSize, false, opts, 0, link)

	w.pdf.SetXY(pageMargin+qrSize+4, y+8)
	w.pdf.SetFont("Helvetica", "B", 9)
	w.color(colorPrimary)
	w.pdf.CellFormat(contentWidth-qrSize-4, 5, w.tr("Responda a este orçamento online"), "", 2, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 8)
	w.color(colorAccent)
	w.pdf.CellFormat(contentWidth-qrSize-4, 5, w.tr(w.fit(link, contentWidth-qrSize-4)), "", 2, "L", false, 0, link)
	w.pdf.SetXY(pageMargin, y+qrSize+2)
	return nil
}

// ── Footer ──────────────────────────────────────────────────────────────

func (w *writer) footer(doc Document) {
	w.pdf.SetY(-12)
	w.pdf.SetFont("Helvetica", "", 7)
	w.color(colorSecondary)
	left := joinParts([]string{doc.Company.Name, doc.Code}, " - ")
	w.pdf.CellFormat(contentWidth/2, 4, w.tr(left), "", 0, "L", false, 0, "")
	w.pdf.CellFormat(contentWidth/2, 4, fmt.Sprintf("%d/{nb}", w.pdf.PageNo()), "", 0, "R", false, 0, "")
}

// ── Helpers ─────────────────────────────────────────────────────────────

// FormatBRL formats amount as Brazilian reais, e.g. "R$ 1.234,50".
func FormatBRL(p *message.Printer, amount float64) string {
	return p.Sprintf("R$ %.2f", amount)
}

func statusColor(status string) rgb {
	switch status {
	case "APPROVED", "COMPLETED", "INVOICED":
		return colorGreen
	case "REFUSED", "ABANDONED", "DESISTED", "EXPIRED":
		return colorRed
	case "READY":
		return colorAccent
	default:
		return colorSecondary
	}
}

func groupTypeLabel(groupType string) string {
	switch groupType {
	case "PRODUCT":
		return "Produtos"
	case "SERVICE":
		return "Serviços"
	default:
		return ""
	}
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", q), "0"), ".")
}

func joinParts(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
