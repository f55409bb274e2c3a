package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionDatasetUpload AuditAction = "dataset_upload"
	ActionInvoiceSave   AuditAction = "invoice_save"
	ActionInvoiceDelete AuditAction = "invoice_delete"
	ActionBackupExport  AuditAction = "backup_export"
	ActionBackupRestore AuditAction = "backup_restore"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry is one line of the audit trail.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	InvoiceID    string        `json:"invoiceId,omitempty"`
	RowsAffected int           `json:"rowsAffected"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLog stores audit entries. Implementations live under internal/storage.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// DefaultAuditLimit caps Recent queries that pass no limit.
const DefaultAuditLimit = 50

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionInvoiceDelete:
		return SeverityHigh
	case ActionBackupRestore:
		return SeverityCritical
	case ActionDatasetUpload, ActionBackupExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// newAuditEntry builds an entry stamped with clock and the request metadata in ctx.
func newAuditEntry(ctx context.Context, clock Clock, action AuditAction, invoiceID string, rows int, detail string) AuditEntry {
	meta := RequestMetaFrom(ctx)
	return AuditEntry{
		ID:           uuid.NewString(),
		Action:       action,
		Severity:     determineSeverity(action),
		InvoiceID:    invoiceID,
		RowsAffected: rows,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Detail:       detail,
		CreatedAt:    clock.Now(),
	}
}
