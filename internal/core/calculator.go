package core

import "time"

// Clock supplies the current time. It is injected wherever time is read so
// that ids, timestamps and the recent filter are reproducible in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Calculator turns aggregated statistics into invoice totals.
type Calculator struct {
	clock Clock
}

// NewCalculator returns a Calculator stamping invoices with clock.
// A nil clock falls back to SystemClock.
func NewCalculator(clock Clock) *Calculator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Calculator{clock: clock}
}

// Compute builds an Invoice from summary and cfg. It does not validate cfg;
// callers run ValidateConfig first.
//
// Each selected column becomes one line item (quantity = count, unit price =
// average, amount = sum). Tax and discount are both percentages of the
// subtotal; total = subtotal + tax - discount.
func (c *Calculator) Compute(summary Summary, cfg InvoiceConfig) Invoice {
	items := make([]LineItem, 0, len(summary.Columns))
	var subtotal float64

	for _, column := range summary.Columns {
		stat := summary.Stats[column]
		items = append(items, LineItem{
			Description: column,
			Quantity:    stat.Count,
			UnitPrice:   stat.Average,
			Amount:      stat.Sum,
		})
		subtotal += stat.Sum
	}

	tax := subtotal * (cfg.TaxRate / 100)
	discount := subtotal * (cfg.Discount / 100)

	return Invoice{
		Config:      cfg,
		Items:       items,
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		Total:       subtotal + tax - discount,
		GeneratedAt: c.clock.Now(),
	}
}
