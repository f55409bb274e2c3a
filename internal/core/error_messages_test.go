package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped invalid dataset",
			err:         fmt.Errorf("stage: %w", ErrInvalidDataset),
			wantCode:    "DATA001",
			wantMessage: "The file has no header row or no data rows",
		},
		{
			name:     "dataset not found",
			err:      fmt.Errorf("dataset abc: %w", ErrDatasetNotFound),
			wantCode: "DATA002",
		},
		{
			name:     "unknown column",
			err:      fmt.Errorf("%w: %q", ErrUnknownColumn, "Hourz"),
			wantCode: "DATA003",
		},
		{
			name:     "config error",
			err:      (&ValidationResult{Errors: []ValidationError{{Message: "Due date is required"}}}).Err(),
			wantCode: "CFG001",
		},
		{
			name:     "document generation",
			err:      fmt.Errorf("%w: font missing", ErrDocumentGeneration),
			wantCode: "DOC001",
		},
		{
			name:     "malformed backup",
			err:      fmt.Errorf("%w: missing \"records\"", ErrMalformedBackup),
			wantCode: "BAK001",
		},
		{
			name:     "restore not confirmed",
			err:      ErrRestoreNotConfirmed,
			wantCode: "BAK002",
		},
		{
			name:     "record not found",
			err:      fmt.Errorf("invoice 1: %w", ErrRecordNotFound),
			wantCode: "STO001",
		},
		{
			name:     "duplicate record",
			err:      fmt.Errorf("insert: %w", ErrDuplicateRecord),
			wantCode: "STO002",
		},
		{
			name:     "too many uploads",
			err:      ErrTooManyUploads,
			wantCode: "UPL001",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("file too large: 20MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:     "csv parse error",
			err:      errors.New("invalid csv: record on line 3: wrong number of fields"),
			wantCode: "FILE002",
		},
		{
			name:     "unsupported type",
			err:      errors.New("unsupported file type \".pdf\""),
			wantCode: "FILE003",
		},
		{
			name:     "context canceled",
			err:      context.Canceled,
			wantCode: "UPL002",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("NO FILE PROVIDED"),
			wantCode: "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrRecordNotFound)
	if !strings.Contains(got, "(Code: STO001)") || !strings.HasPrefix(got, "Invoice not found") {
		t.Errorf("FormatUserError() = %q", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrMalformedBackup, true},
		{"pattern", errors.New("rate limit hit"), true},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	base := fmt.Errorf("load: %w", ErrRecordNotFound)
	ue := NewUserError(base)
	if ue.Error() != "Invoice not found" {
		t.Errorf("Error() = %q", ue.Error())
	}
	if !errors.Is(ue, ErrRecordNotFound) {
		t.Error("UserError does not unwrap to technical error")
	}
	if ue.User.Code != "STO001" {
		t.Errorf("Code = %q, want STO001", ue.User.Code)
	}
}
