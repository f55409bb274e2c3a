package core

import (
	"fmt"
	"strings"
	"time"
)

// FieldType is the semantic type guessed for a dataset column.
// It is advisory only and never restricts which columns can be aggregated.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldNumeric
	FieldEmail
)

// String returns the lowercase name used in JSON and CLI output.
func (f FieldType) String() string {
	switch f {
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldEmail:
		return "email"
	default:
		return "text"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FieldType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FieldType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "text", "":
		*f = FieldText
	case "date":
		*f = FieldDate
	case "numeric":
		*f = FieldNumeric
	case "email":
		*f = FieldEmail
	default:
		return fmt.Errorf("unknown field type %q", string(b))
	}
	return nil
}

// Row maps a column name to the raw text uploaded for it.
type Row map[string]string

// Value returns the raw text for column, or "" when the row has no such column.
func (r Row) Value(column string) string {
	return r[column]
}

// Cell returns the parsed cell for column.
func (r Row) Cell(column string) Cell {
	return ParseCell(r[column])
}

// Dataset is parsed tabular input: ordered headers plus rows keyed by header.
// Header uniqueness is not enforced. A Dataset is never modified after ingest.
type Dataset struct {
	Headers  []string `json:"headers"`
	Rows     []Row    `json:"rows"`
	Filename string   `json:"filename,omitempty"`
}

// RowCount returns the number of data rows.
func (d Dataset) RowCount() int {
	return len(d.Rows)
}

// Sample returns at most the first n rows.
func (d Dataset) Sample(n int) []Row {
	if n < 0 || n >= len(d.Rows) {
		return d.Rows
	}
	return d.Rows[:n]
}

// HasColumn reports whether name appears in the header list.
func (d Dataset) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// FieldInfo pairs a header with its guessed type.
type FieldInfo struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// ColumnStatistic holds the reduction of one selected column over its numeric values.
// Count is the number of values that parsed as numbers, not the row count.
type ColumnStatistic struct {
	Sum     float64 `json:"sum"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Summary is the aggregator output for a column selection.
type Summary struct {
	Columns     []string                   `json:"columns"` // selection order, duplicates removed
	Stats       map[string]ColumnStatistic `json:"stats"`
	TotalAmount float64                    `json:"totalAmount"`
	ProcessedAt time.Time                  `json:"processedAt,omitzero"`
}

// InvoiceConfig is the caller-supplied header of an invoice.
// TaxRate and Discount are percentages in [0, 100].
type InvoiceConfig struct {
	InvoiceNumber string  `json:"invoiceNumber"`
	Date          string  `json:"date"`
	DueDate       string  `json:"dueDate"`
	ClientName    string  `json:"clientName"`
	ClientEmail   string  `json:"clientEmail"`
	ClientAddress string  `json:"clientAddress"`
	Notes         string  `json:"notes"`
	TaxRate       float64 `json:"taxRate"`
	Discount      float64 `json:"discount"`
}

// LineItem is one invoice row, produced from one aggregated column.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// Invoice is the computed invoice handed to renderers and stored in records.
type Invoice struct {
	Config      InvoiceConfig `json:"config"`
	Items       []LineItem    `json:"items"`
	Subtotal    float64       `json:"subtotal"`
	Tax         float64       `json:"tax"`
	Discount    float64       `json:"discount"`
	Total       float64       `json:"total"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// SavedInvoice is an immutable snapshot kept in the InvoiceStore.
// Callers must treat the nested slices and maps as read-only.
type SavedInvoice struct {
	ID           string    `json:"id"`
	Invoice      Invoice   `json:"invoice"`
	OriginalData Dataset   `json:"originalData"`
	CreatedAt    time.Time `json:"createdAt"`
	Filename     string    `json:"filename"`
}
