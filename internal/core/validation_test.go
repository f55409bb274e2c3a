package core

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestValidateConfig_TwoErrorScenario(t *testing.T) {
	got := ValidateConfig(InvoiceConfig{
		InvoiceNumber: "",
		Date:          "2025-01-01",
		DueDate:       "2025-01-31",
		TaxRate:       150,
		Discount:      0,
	})

	if got.Valid {
		t.Fatal("Valid = true, want false")
	}
	want := []string{"Invoice number is required", "Tax rate must be between 0 and 100"}
	if !reflect.DeepEqual(got.Messages(), want) {
		t.Errorf("Messages() = %v, want %v", got.Messages(), want)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InvoiceConfig)
		want   []string
	}{
		{"valid", func(*InvoiceConfig) {}, nil},
		{"bounds inclusive", func(c *InvoiceConfig) { c.TaxRate, c.Discount = 100, 0 }, nil},
		{"missing date", func(c *InvoiceConfig) { c.Date = "" }, []string{"Invoice date is required"}},
		{"blank due date", func(c *InvoiceConfig) { c.DueDate = "  " }, []string{"Due date is required"}},
		{"negative tax", func(c *InvoiceConfig) { c.TaxRate = -1 }, []string{"Tax rate must be between 0 and 100"}},
		{"discount above range", func(c *InvoiceConfig) { c.Discount = 100.5 }, []string{"Discount must be between 0 and 100"}},
		{"NaN discount", func(c *InvoiceConfig) { c.Discount = math.NaN() }, []string{"Discount must be between 0 and 100"}},
		{
			"everything wrong",
			func(c *InvoiceConfig) { *c = InvoiceConfig{TaxRate: 101, Discount: -5} },
			[]string{
				"Invoice number is required",
				"Invoice date is required",
				"Due date is required",
				"Tax rate must be between 0 and 100",
				"Discount must be between 0 and 100",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			got := ValidateConfig(cfg)

			if got.Valid != (len(tt.want) == 0) {
				t.Errorf("Valid = %v, want %v", got.Valid, len(tt.want) == 0)
			}
			if len(tt.want) == 0 && len(got.Errors) != 0 {
				t.Errorf("Errors = %v, want none", got.Errors)
			}
			if len(tt.want) > 0 && !reflect.DeepEqual(got.Messages(), tt.want) {
				t.Errorf("Messages() = %v, want %v", got.Messages(), tt.want)
			}
		})
	}
}

func TestValidationResult_Err(t *testing.T) {
	ok := ValidateConfig(validConfig())
	if err := ok.Err(); err != nil {
		t.Errorf("Err() on valid result = %v, want nil", err)
	}

	bad := ValidateConfig(InvoiceConfig{})
	err := bad.Err()
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Err() = %v, want ErrInvalidConfiguration", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Err() = %T, want *ConfigError", err)
	}
	if len(cfgErr.Result.Errors) != 3 {
		t.Errorf("ConfigError carries %d errors, want 3", len(cfgErr.Result.Errors))
	}
}

func TestValidateDataset(t *testing.T) {
	tests := []struct {
		name    string
		ds      Dataset
		wantErr bool
	}{
		{"valid", Dataset{Headers: []string{"a"}, Rows: []Row{{"a": "1"}}}, false},
		{"no headers", Dataset{Rows: []Row{{"a": "1"}}}, true},
		{"no rows", Dataset{Headers: []string{"a"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDataset(tt.ds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDataset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDataset) {
				t.Errorf("error %v does not wrap ErrInvalidDataset", err)
			}
		})
	}
}
