package core

// validation.go checks caller input before it reaches the calculator or store.
//
// ValidateConfig collects every violation so a form can show them all at once.
// ValidateDataset is the guard applied to freshly ingested data.

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the outcome of validating an InvoiceConfig.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// Messages returns the human-readable messages in detection order.
func (r *ValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// Err returns nil when the result is valid, otherwise an error that wraps
// ErrInvalidConfiguration and unwraps to the result itself.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return &ConfigError{Result: *r}
}

// ConfigError carries a failed ValidationResult through error returns.
type ConfigError struct {
	Result ValidationResult
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, strings.Join(e.Result.Messages(), "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// ValidateConfig checks cfg and reports every violation found.
func ValidateConfig(cfg InvoiceConfig) ValidationResult {
	result := ValidationResult{Valid: true}

	add := func(field, value, msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Value:   value,
			Message: msg,
		})
	}

	if strings.TrimSpace(cfg.InvoiceNumber) == "" {
		add("invoiceNumber", cfg.InvoiceNumber, "Invoice number is required")
	}
	if strings.TrimSpace(cfg.Date) == "" {
		add("date", cfg.Date, "Invoice date is required")
	}
	if strings.TrimSpace(cfg.DueDate) == "" {
		add("dueDate", cfg.DueDate, "Due date is required")
	}
	if !inPercentRange(cfg.TaxRate) {
		add("taxRate", formatPercent(cfg.TaxRate), "Tax rate must be between 0 and 100")
	}
	if !inPercentRange(cfg.Discount) {
		add("discount", formatPercent(cfg.Discount), "Discount must be between 0 and 100")
	}

	return result
}

// inPercentRange rejects NaN along with values outside [0, 100].
func inPercentRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%g", v)
}

// ValidateDataset rejects data that cannot produce an invoice: no headers or no rows.
func ValidateDataset(ds Dataset) error {
	if len(ds.Headers) == 0 {
		return fmt.Errorf("%w: no header row", ErrInvalidDataset)
	}
	if len(ds.Rows) == 0 {
		return fmt.Errorf("%w: no data rows", ErrInvalidDataset)
	}
	return nil
}
