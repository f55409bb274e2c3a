package core

// store.go keeps saved invoices in memory, in insertion order, on top of a
// RecordRepository that makes them durable.
//
// Every mutation goes to the repository first and is applied to memory only
// when the repository accepts it, so a failed write leaves both unchanged.

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// RecordRepository persists saved invoices. Implementations live under
// internal/storage.
type RecordRepository interface {
	// Load returns every record in insertion order.
	Load(ctx context.Context) ([]SavedInvoice, error)
	Insert(ctx context.Context, rec SavedInvoice) error
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	// ReplaceAll atomically swaps the full record set.
	ReplaceAll(ctx context.Context, recs []SavedInvoice) error
}

// Store defaults.
const (
	DefaultHighValueThreshold = 1000.0
	DefaultRecentDays         = 30
)

// StoreOptions tune the store's query filters. Fields that are zero or
// negative take the package defaults, so a threshold must be positive.
type StoreOptions struct {
	HighValueThreshold float64 // "high-value" means Total strictly above this
	RecentDays         int     // "recent" window, counted back from query time
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.HighValueThreshold <= 0 {
		o.HighValueThreshold = DefaultHighValueThreshold
	}
	if o.RecentDays <= 0 {
		o.RecentDays = DefaultRecentDays
	}
	return o
}

// InvoiceStore is the ordered collection of saved invoices.
// It is safe for concurrent use.
type InvoiceStore struct {
	repo  RecordRepository
	clock Clock
	opts  StoreOptions

	mu      sync.RWMutex
	records []SavedInvoice
	index   map[string]int
}

// OpenStore loads all records from repo.
func OpenStore(ctx context.Context, repo RecordRepository, clock Clock, opts StoreOptions) (*InvoiceStore, error) {
	if clock == nil {
		clock = SystemClock{}
	}

	recs, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load invoice records: %w", err)
	}

	s := &InvoiceStore{
		repo:  repo,
		clock: clock,
		opts:  opts.withDefaults(),
	}
	s.setRecords(recs)
	return s, nil
}

// setRecords replaces memory state. Caller must hold mu or own s exclusively.
func (s *InvoiceStore) setRecords(recs []SavedInvoice) {
	s.records = append([]SavedInvoice(nil), recs...)
	s.index = make(map[string]int, len(recs))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
}

// Options returns the effective filter options.
func (s *InvoiceStore) Options() StoreOptions {
	return s.opts
}

// Create snapshots inv and its source data as a new record with a unique id
// and inserts it.
func (s *InvoiceStore) Create(ctx context.Context, inv Invoice, data Dataset) (SavedInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	ms := now.UnixMilli()
	for {
		if _, taken := s.index[strconv.FormatInt(ms, 10)]; !taken {
			break
		}
		ms++
	}

	id := strconv.FormatInt(ms, 10)
	rec := SavedInvoice{
		ID:           id,
		Invoice:      inv,
		OriginalData: data,
		CreatedAt:    now,
		Filename:     RecordFilename(id),
	}

	if err := s.insertLocked(ctx, rec); err != nil {
		return SavedInvoice{}, err
	}
	return rec, nil
}

// RecordFilename is the document name for a record id.
func RecordFilename(id string) string {
	return "invoice_" + id + ".pdf"
}

// Insert appends rec. A record with the same id yields ErrDuplicateRecord.
func (s *InvoiceStore) Insert(ctx context.Context, rec SavedInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, rec)
}

func (s *InvoiceStore) insertLocked(ctx context.Context, rec SavedInvoice) error {
	if rec.ID == "" {
		return fmt.Errorf("insert invoice record: empty id")
	}
	if _, exists := s.index[rec.ID]; exists {
		return fmt.Errorf("insert invoice record %s: %w", rec.ID, ErrDuplicateRecord)
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert invoice record %s: %w", rec.ID, err)
	}

	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

// Delete removes the record with id. Unknown ids are a no-op.
// It reports whether a record was removed.
func (s *InvoiceStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete invoice record %s: %w", id, err)
	}

	recs := make([]SavedInvoice, 0, len(s.records)-1)
	recs = append(recs, s.records[:pos]...)
	recs = append(recs, s.records[pos+1:]...)
	s.setRecords(recs)
	return true, nil
}

// ReplaceAll swaps the whole collection, as a restore does.
func (s *InvoiceStore) ReplaceAll(ctx context.Context, recs []SavedInvoice) error {
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("replace invoice records: id %s: %w", r.ID, ErrDuplicateRecord)
		}
		seen[r.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ReplaceAll(ctx, recs); err != nil {
		return fmt.Errorf("replace invoice records: %w", err)
	}
	s.setRecords(recs)
	return nil
}

// Get returns the record with id or ErrRecordNotFound.
func (s *InvoiceStore) Get(id string) (SavedInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return SavedInvoice{}, fmt.Errorf("invoice %s: %w", id, ErrRecordNotFound)
	}
	return s.records[pos], nil
}

// All returns every record in insertion order.
func (s *InvoiceStore) All() []SavedInvoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SavedInvoice(nil), s.records...)
}

// Len returns the number of records.
func (s *InvoiceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// TotalValue sums the invoice totals of recs.
func TotalValue(recs []SavedInvoice) float64 {
	var total float64
	for _, r := range recs {
		total += r.Invoice.Total
	}
	return total
}
