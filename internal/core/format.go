package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DateLayout is the calendar date format used for invoice dates.
const DateLayout = "2006-01-02"

// DefaultPaymentTermsDays is the due date offset used when none is configured.
const DefaultPaymentTermsDays = 30

var currencyPrinter = message.NewPrinter(language.MustParse("en-CA"))

// FormatCurrency renders amount as Canadian dollars, e.g. "$1,234.56" or "-$5.00".
func FormatCurrency(amount float64) string {
	cents := math.Round(amount * 100)
	sign := ""
	if cents < 0 {
		sign = "-"
	}
	cents = math.Abs(cents)
	return sign + "$" + currencyPrinter.Sprintf("%v", number.Decimal(cents/100, number.Scale(2)))
}

// TotalLine is one labelled amount in an invoice's totals block.
type TotalLine struct {
	Label string
	Value string
}

// TotalLines lists subtotal, tax, discount and total as displayed. Tax and
// discount appear whenever their rate is set, whatever the sign of the
// subtotal, so the lines always add up to the total.
func TotalLines(inv Invoice) []TotalLine {
	lines := []TotalLine{{"Subtotal", FormatCurrency(inv.Subtotal)}}
	if inv.Config.TaxRate > 0 {
		lines = append(lines, TotalLine{"Tax (" + FormatPercent(inv.Config.TaxRate) + ")", FormatCurrency(inv.Tax)})
	}
	if inv.Config.Discount > 0 {
		lines = append(lines, TotalLine{"Discount (" + FormatPercent(inv.Config.Discount) + ")", FormatCurrency(-inv.Discount)})
	}
	return append(lines, TotalLine{"Total", FormatCurrency(inv.Total)})
}

// FormatPercent renders a percentage without trailing zeros, e.g. "13%" or "7.5%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%s%%", formatPercent(v))
}

// GenerateInvoiceNumber returns a fresh number of the form INV-<last 6 digits
// of the unix millisecond clock>-<three random digits>. A nil intn uses math/rand/v2.
func GenerateInvoiceNumber(clock Clock, intn func(n int) int) string {
	if clock == nil {
		clock = SystemClock{}
	}
	if intn == nil {
		intn = rand.IntN
	}
	ms := clock.Now().UnixMilli()
	return fmt.Sprintf("INV-%06d-%03d", ms%1_000_000, intn(1000))
}

// FormatDate formats t as an invoice date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DefaultDueDate returns date plus days, both as invoice dates.
func DefaultDueDate(date string, days int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse invoice date %q: %w", date, err)
	}
	return FormatDate(t.AddDate(0, 0, days)), nil
}

// DefaultConfig returns an InvoiceConfig prefilled with a generated number,
// today's date and a due date termsDays later.
func DefaultConfig(clock Clock, termsDays int, taxRate float64) InvoiceConfig {
	if clock == nil {
		clock = SystemClock{}
	}
	now := clock.Now()
	return InvoiceConfig{
		InvoiceNumber: GenerateInvoiceNumber(clock, nil),
		Date:          FormatDate(now),
		DueDate:       FormatDate(now.AddDate(0, 0, termsDays)),
		TaxRate:       taxRate,
	}
}
