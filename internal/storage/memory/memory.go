// Package memory provides in-process implementations of the storage ports.
// Data is lost when the process exits; it backs tests and --store=memory runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// RecordRepository keeps saved invoices in a slice.
type RecordRepository struct {
	mu   sync.RWMutex
	recs []core.SavedInvoice
}

var _ core.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository returns a repository seeded with recs.
func NewRecordRepository(recs ...core.SavedInvoice) *RecordRepository {
	return &RecordRepository{recs: append([]core.SavedInvoice(nil), recs...)}
}

// Load returns a copy of every record in insertion order.
func (r *RecordRepository) Load(_ context.Context) ([]core.SavedInvoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.SavedInvoice(nil), r.recs...), nil
}

// Insert appends rec.
func (r *RecordRepository) Insert(_ context.Context, rec core.SavedInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.recs {
		if existing.ID == rec.ID {
			return fmt.Errorf("record %s: %w", rec.ID, core.ErrDuplicateRecord)
		}
	}
	r.recs = append(r.recs, rec)
	return nil
}

// Delete removes the record with id, if any.
func (r *RecordRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.recs {
		if rec.ID == id {
			r.recs = append(r.recs[:i:i], r.recs[i+1:]...)
			return nil
		}
	}
	return nil
}

// ReplaceAll swaps the record set.
func (r *RecordRepository) ReplaceAll(_ context.Context, recs []core.SavedInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append([]core.SavedInvoice(nil), recs...)
	return nil
}

// AuditLog keeps audit entries in memory, bounded to the most recent max.
type AuditLog struct {
	mu      sync.RWMutex
	entries []core.AuditEntry
	max     int
}

var _ core.AuditLog = (*AuditLog)(nil)

// DefaultAuditCapacity bounds an AuditLog created with a non-positive capacity.
const DefaultAuditCapacity = 1000

// NewAuditLog returns an audit log holding at most capacity entries.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{max: capacity}
}

// Record appends entry, dropping the oldest entry when full.
func (a *AuditLog) Record(_ context.Context, entry core.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, entry)
	if len(a.entries) > a.max {
		a.entries = append([]core.AuditEntry(nil), a.entries[len(a.entries)-a.max:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (a *AuditLog) Recent(_ context.Context, limit int) ([]core.AuditEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.entries) {
		limit = len(a.entries)
	}
	out := make([]core.AuditEntry, 0, limit)
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.entries[i])
	}
	return out, nil
}
