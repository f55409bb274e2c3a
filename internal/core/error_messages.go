// Package core error codes reference.
//
// User-facing errors carry a short code that can be quoted when reporting a
// problem. Codes are grouped by category:
//
// # Data Errors (DATA001-DATA099)
//
//	DATA001 - Invalid dataset: the file has no header row or no data rows
//	          Action: Upload a CSV with a header row and at least one data row
//	DATA002 - Dataset expired: the uploaded dataset is no longer staged
//	          Action: Upload the file again
//	DATA003 - Unknown column: a selected column is not in the dataset
//	          Action: Pick columns from the uploaded file's headers
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid invoice details
//	         Action: Fix the highlighted fields and try again
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - Document generation failed
//	         Action: Try again; nothing was saved
//
// # Backup Errors (BAK001-BAK099)
//
//	BAK001 - Malformed backup file
//	BAK002 - Restore not confirmed
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Invoice not found
//	STO002 - Duplicate invoice id
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large        Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV           Patterns: "invalid csv", "parse error"
//	FILE003 - Unsupported file type Patterns: "unsupported file type", "invalid xlsx"
//	FILE004 - No file               Patterns: "no file provided"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy            ErrTooManyUploads
//	UPL002 - Request cancelled      Patterns: "context canceled"
//	UPL003 - Request timeout        Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests     Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred; check the logs for the technical error
//
// # Matching
//
// Sentinel errors are matched first with errors.Is, so wrapping never hides
// them. Anything else falls back to case-insensitive substring patterns; the
// first matching pattern wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{ErrInvalidDataset, UserMessage{
		Message: "The file has no header row or no data rows",
		Action:  "Upload a CSV with a header row and at least one data row",
		Code:    "DATA001",
	}},
	{ErrDatasetNotFound, UserMessage{
		Message: "The uploaded data is no longer available",
		Action:  "Upload the file again",
		Code:    "DATA002",
	}},
	{ErrUnknownColumn, UserMessage{
		Message: "A selected column is not in the uploaded file",
		Action:  "Pick columns from the file's headers",
		Code:    "DATA003",
	}},
	{ErrInvalidConfiguration, UserMessage{
		Message: "Some invoice details are invalid",
		Action:  "Fix the highlighted fields and try again",
		Code:    "CFG001",
	}},
	{ErrDocumentGeneration, UserMessage{
		Message: "The invoice document could not be generated",
		Action:  "Please try again; nothing was saved",
		Code:    "DOC001",
	}},
	{ErrMalformedBackup, UserMessage{
		Message: "The backup file is not a valid invoice backup",
		Action:  "Choose a file exported from the invoice manager",
		Code:    "BAK001",
	}},
	{ErrRestoreNotConfirmed, UserMessage{
		Message: "Restoring a backup replaces all saved invoices",
		Action:  "Confirm the restore to continue",
		Code:    "BAK002",
	}},
	{ErrRecordNotFound, UserMessage{
		Message: "Invoice not found",
		Action:  "Refresh the invoice list",
		Code:    "STO001",
	}},
	{ErrDuplicateRecord, UserMessage{
		Message: "An invoice with this id already exists",
		Action:  "Please try saving again",
		Code:    "STO002",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE004)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unneeded rows or columns and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unneeded rows or columns and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "The spreadsheet could not be read",
			Action:  "Save the sheet as .xlsx or export it to CSV",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Request Errors (UPL002-UPL003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels win over text patterns; ERR000 is the fallback.
//
// Example:
//
//	err := fmt.Errorf("save: %w", ErrRecordNotFound)
//	msg := MapError(err)
//	// msg.Code == "STO001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with the message shown to users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
