// Package render produces invoice documents.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// Issuer is the practice printed in the "Bill from" block.
type Issuer struct {
	Name         string
	Title        string   // document heading, e.g. "Physiotherapy Invoice"
	Address      []string // one entry per printed line
	Phone        string
	Email        string
	DefaultNotes string // intro line when the invoice has no notes
	Footer       []string
}

// DefaultIssuer is used when no profile is configured.
func DefaultIssuer() Issuer {
	return Issuer{
		Title:        "Invoice",
		DefaultNotes: "For services rendered:",
		Footer:       []string{"Thank you for your business"},
	}
}

// PDFRenderer renders invoices as A4 portrait PDF documents.
type PDFRenderer struct {
	issuer   Issuer
	compress bool
}

// Option configures a PDFRenderer.
type Option func(*PDFRenderer)

// WithoutCompression writes uncompressed page streams, which keeps the text
// searchable in the raw bytes.
func WithoutCompression() Option {
	return func(r *PDFRenderer) { r.compress = false }
}

// NewPDFRenderer returns a renderer printing issuer on every document.
func NewPDFRenderer(issuer Issuer, opts ...Option) *PDFRenderer {
	def := DefaultIssuer()
	if issuer.Title == "" {
		issuer.Title = def.Title
	}
	if issuer.DefaultNotes == "" {
		issuer.DefaultNotes = def.DefaultNotes
	}

	r := &PDFRenderer{issuer: issuer, compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ core.Renderer = (*PDFRenderer)(nil)

const (
	pageWidth    = 210.0
	marginLeft   = 20.0
	marginRight  = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	lineHeight   = 6.0
)

// Render writes inv as a PDF to w.
func (r *PDFRenderer) Render(ctx context.Context, inv core.Invoice, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 20, marginRight)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetCompression(r.compress)
	pdf.SetTitle(inv.Config.InvoiceNumber, true)
	pdf.SetCreator(r.issuer.Name, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	d := &doc{pdf: pdf, tr: tr}

	r.header(d)
	r.billFrom(d)
	billTo(d, inv.Config)
	details(d, inv.Config)
	r.intro(d, inv.Config)
	items(d, inv.Items)
	totals(d, inv)
	notes(d, inv.Config.Notes)
	r.footer(d)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// doc bundles the document with its cp1252 translator.
type doc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (d *doc) font(style string, size float64) {
	d.pdf.SetFont("Helvetica", style, size)
}

func (d *doc) line(text string) {
	d.pdf.CellFormat(contentWidth, lineHeight, d.tr(text), "", 1, "L", false, 0, "")
}

func (d *doc) heading(text string) {
	d.pdf.Ln(4)
	d.font("B", 12)
	d.line(text)
	d.font("", 10)
}

func (r *PDFRenderer) header(d *doc) {
	d.font("B", 20)
	d.pdf.CellFormat(contentWidth, 12, d.tr(r.issuer.Title), "", 1, "C", false, 0, "")
	d.pdf.Ln(2)
}

func (r *PDFRenderer) billFrom(d *doc) {
	if r.issuer.Name == "" && len(r.issuer.Address) == 0 && r.issuer.Email == "" && r.issuer.Phone == "" {
		return
	}

	d.heading("Bill from:")
	if r.issuer.Name != "" {
		d.font("B", 11)
		d.line(r.issuer.Name)
		d.font("", 10)
	}
	for _, l := range r.issuer.Address {
		d.line(l)
	}
	if r.issuer.Phone != "" {
		d.line(r.issuer.Phone)
	}
	if r.issuer.Email != "" {
		d.line(r.issuer.Email)
	}
}

func billTo(d *doc, cfg core.InvoiceConfig) {
	d.heading("Bill to:")
	if cfg.ClientName == "" {
		d.font("I", 10)
		d.line("Client information to be filled")
		d.font("", 10)
		return
	}

	d.font("B", 11)
	d.line(cfg.ClientName)
	d.font("", 10)
	if cfg.ClientEmail != "" {
		d.line(cfg.ClientEmail)
	}
	for _, l := range splitLines(cfg.ClientAddress) {
		d.line(l)
	}
}

func details(d *doc, cfg core.InvoiceConfig) {
	d.pdf.Ln(4)
	labelled(d, "Invoice number:", cfg.InvoiceNumber)
	labelled(d, "Date:", displayDate(cfg.Date))
	labelled(d, "Due date:", displayDate(cfg.DueDate))
}

func labelled(d *doc, label, value string) {
	d.font("B", 10)
	d.pdf.CellFormat(35, lineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.font("", 10)
	d.pdf.CellFormat(contentWidth-35, lineHeight, d.tr(value), "", 1, "L", false, 0, "")
}

func (r *PDFRenderer) intro(d *doc, cfg core.InvoiceConfig) {
	text := cfg.Notes
	if text == "" {
		text = r.issuer.DefaultNotes
	}
	d.pdf.Ln(4)
	d.font("", 10)
	d.pdf.MultiCell(contentWidth, lineHeight, d.tr(text), "", "L", false)
}

var columnWidths = [4]float64{contentWidth - 90, 25, 30, 35}

func items(d *doc, items []core.LineItem) {
	d.pdf.Ln(4)
	d.font("B", 10)
	d.pdf.SetFillColor(240, 240, 240)
	for i, h := range []string{"Description", "Quantity", "Rate", "Amount"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		d.pdf.CellFormat(columnWidths[i], 8, h, "B", 0, align, true, 0, "")
	}
	d.pdf.Ln(-1)

	d.font("", 10)
	for _, it := range items {
		d.pdf.CellFormat(columnWidths[0], 7, d.tr(it.Description), "B", 0, "L", false, 0, "")
		d.pdf.CellFormat(columnWidths[1], 7, strconv.Itoa(it.Quantity), "B", 0, "R", false, 0, "")
		d.pdf.CellFormat(columnWidths[2], 7, core.FormatCurrency(it.UnitPrice), "B", 0, "R", false, 0, "")
		d.pdf.CellFormat(columnWidths[3], 7, core.FormatCurrency(it.Amount), "B", 1, "R", false, 0, "")
	}
}

func totals(d *doc, inv core.Invoice) {
	const labelWidth, valueWidth = 35.0, 35.0
	offset := contentWidth - labelWidth - valueWidth

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		d.font(style, 10)
		d.pdf.CellFormat(offset, lineHeight, "", "", 0, "L", false, 0, "")
		d.pdf.CellFormat(labelWidth, lineHeight, label, "", 0, "L", false, 0, "")
		d.pdf.CellFormat(valueWidth, lineHeight, value, "", 1, "R", false, 0, "")
	}

	d.pdf.Ln(4)
	lines := core.TotalLines(inv)
	for i, l := range lines {
		row(l.Label+":", l.Value, i == len(lines)-1)
	}
}

func notes(d *doc, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.heading("Notes:")
	d.pdf.MultiCell(contentWidth, lineHeight, d.tr(text), "", "L", false)
}

func (r *PDFRenderer) footer(d *doc) {
	if len(r.issuer.Footer) == 0 {
		return
	}
	d.pdf.Ln(10)
	d.font("", 9)
	d.pdf.SetTextColor(100, 100, 100)
	for _, l := range r.issuer.Footer {
		d.pdf.CellFormat(contentWidth, 5, d.tr(l), "", 1, "C", false, 0, "")
	}
	d.pdf.SetTextColor(0, 0, 0)
}

// displayDate renders an ISO date as "11 July 2025"; other input is printed as given.
func displayDate(s string) string {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("02 January 2006")
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
