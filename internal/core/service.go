package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Renderer turns a computed invoice into a document.
type Renderer interface {
	Render(ctx context.Context, inv Invoice, w io.Writer) error
}

// DefaultDatasetTTL is how long an uploaded dataset stays staged.
const DefaultDatasetTTL = time.Hour

// DefaultMaxDatasets bounds the number of staged datasets.
const DefaultMaxDatasets = 32

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Store       *InvoiceStore
	Renderer    Renderer
	Audit       AuditLog // optional
	Clock       Clock
	DatasetTTL  time.Duration
	MaxDatasets int
}

// Service is the entry point used by the web and CLI front ends. It stages
// uploaded datasets, runs the pure pipeline and applies store mutations.
type Service struct {
	store    *InvoiceStore
	renderer Renderer
	audit    AuditLog
	clock    Clock
	calc     *Calculator

	datasetTTL  time.Duration
	maxDatasets int

	mu       sync.Mutex
	datasets map[string]stagedDataset
}

type stagedDataset struct {
	data      Dataset
	expiresAt time.Time
}

// DatasetInfo describes a staged dataset to the caller.
type DatasetInfo struct {
	ID        string      `json:"id"`
	Filename  string      `json:"filename"`
	Headers   []string    `json:"headers"`
	Fields    []FieldInfo `json:"fields"`
	Suggested []string    `json:"suggestedColumns"`
	RowCount  int         `json:"rowCount"`
	Preview   []Row       `json:"preview"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// PreviewRows is the number of rows returned in DatasetInfo.Preview.
const PreviewRows = 5

// NewService wires a Service. Store and Renderer are required.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("new service: nil store")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("new service: nil renderer")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.DatasetTTL <= 0 {
		cfg.DatasetTTL = DefaultDatasetTTL
	}
	if cfg.MaxDatasets <= 0 {
		cfg.MaxDatasets = DefaultMaxDatasets
	}

	return &Service{
		store:       cfg.Store,
		renderer:    cfg.Renderer,
		audit:       cfg.Audit,
		clock:       cfg.Clock,
		calc:        NewCalculator(cfg.Clock),
		datasetTTL:  cfg.DatasetTTL,
		maxDatasets: cfg.MaxDatasets,
		datasets:    make(map[string]stagedDataset),
	}, nil
}

// Store exposes the underlying invoice store.
func (s *Service) Store() *InvoiceStore {
	return s.store
}

// Clock returns the service clock.
func (s *Service) Clock() Clock {
	return s.clock
}

// ============================================================================
// Datasets
// ============================================================================

// StageDataset validates ds and keeps it for later summary and invoice calls.
// When the stage is full the dataset closest to expiry is evicted.
func (s *Service) StageDataset(ctx context.Context, ds Dataset) (DatasetInfo, error) {
	if err := ValidateDataset(ds); err != nil {
		return DatasetInfo{}, err
	}

	now := s.clock.Now()
	id := uuid.NewString()
	expiresAt := now.Add(s.datasetTTL)

	s.mu.Lock()
	s.pruneLocked(now)
	if len(s.datasets) >= s.maxDatasets {
		s.evictOldestLocked()
	}
	s.datasets[id] = stagedDataset{data: ds, expiresAt: expiresAt}
	s.mu.Unlock()

	s.recordAudit(ctx, newAuditEntry(ctx, s.clock, ActionDatasetUpload, "", ds.RowCount(), ds.Filename))
	slog.Info("dataset staged", "dataset_id", id, "filename", ds.Filename, "rows", ds.RowCount(), "columns", len(ds.Headers))

	return DescribeDataset(id, ds, expiresAt), nil
}

// DescribeDataset builds the DatasetInfo shown after an upload.
func DescribeDataset(id string, ds Dataset, expiresAt time.Time) DatasetInfo {
	preview := ds.Sample(PreviewRows)
	return DatasetInfo{
		ID:        id,
		Filename:  ds.Filename,
		Headers:   ds.Headers,
		Fields:    ClassifyFields(ds),
		Suggested: SuggestColumns(ds, DefaultSuggestedColumns),
		RowCount:  ds.RowCount(),
		Preview:   preview,
		ExpiresAt: expiresAt,
	}
}

// Dataset returns a staged dataset or ErrDatasetNotFound.
func (s *Service) Dataset(id string) (Dataset, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	staged, ok := s.datasets[id]
	if !ok || !now.Before(staged.expiresAt) {
		delete(s.datasets, id)
		return Dataset{}, fmt.Errorf("dataset %s: %w", id, ErrDatasetNotFound)
	}
	return staged.data, nil
}

// DatasetInfo describes a staged dataset.
func (s *Service) DatasetInfo(id string) (DatasetInfo, error) {
	ds, err := s.Dataset(id)
	if err != nil {
		return DatasetInfo{}, err
	}
	s.mu.Lock()
	expiresAt := s.datasets[id].expiresAt
	s.mu.Unlock()
	return DescribeDataset(id, ds, expiresAt), nil
}

func (s *Service) pruneLocked(now time.Time) {
	for id, staged := range s.datasets {
		if !now.Before(staged.expiresAt) {
			delete(s.datasets, id)
		}
	}
}

func (s *Service) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, staged := range s.datasets {
		if oldestID == "" || staged.expiresAt.Before(oldest) {
			oldestID, oldest = id, staged.expiresAt
		}
	}
	delete(s.datasets, oldestID)
}

// ============================================================================
// Pipeline
// ============================================================================

// Summarize aggregates the selected columns of ds. Columns missing from the
// header row are rejected with ErrUnknownColumn.
func (s *Service) Summarize(ds Dataset, columns []string) (Summary, error) {
	for _, c := range columns {
		if !ds.HasColumn(c) {
			return Summary{}, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}

	summary := Aggregate(ds, columns)
	for _, c := range summary.Columns {
		stat := summary.Stats[c]
		if !isFinite(stat.Sum) || !isFinite(stat.Average) {
			return Summary{}, fmt.Errorf("%w: column %q total is out of range", ErrInvalidDataset, c)
		}
	}
	if !isFinite(summary.TotalAmount) {
		return Summary{}, fmt.Errorf("%w: total is out of range", ErrInvalidDataset)
	}
	summary.ProcessedAt = s.clock.Now()
	return summary, nil
}

// Generate validates cfg and computes the invoice for the selected columns.
// Validation failures are returned as a *ConfigError.
func (s *Service) Generate(ds Dataset, columns []string, cfg InvoiceConfig) (Invoice, error) {
	result := ValidateConfig(cfg)
	if err := result.Err(); err != nil {
		return Invoice{}, err
	}

	summary, err := s.Summarize(ds, columns)
	if err != nil {
		return Invoice{}, err
	}
	inv := s.calc.Compute(summary, cfg)
	if err := checkTotals(inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// checkTotals rejects an invoice whose amounts overflowed.
func checkTotals(inv Invoice) error {
	for _, v := range []float64{inv.Subtotal, inv.Tax, inv.Discount, inv.Total} {
		if !isFinite(v) {
			return fmt.Errorf("%w: invoice total is out of range", ErrInvalidDataset)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Render writes the document for inv to w. Nothing is written on failure.
func (s *Service) Render(ctx context.Context, inv Invoice, w io.Writer) error {
	var buf bytes.Buffer
	if err := s.renderer.Render(ctx, inv, &buf); err != nil {
		return fmt.Errorf("%w: %w", ErrDocumentGeneration, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// ============================================================================
// Saved invoices
// ============================================================================

// Save renders inv to check it produces a document, then stores it with its
// source data. A render failure leaves the store untouched.
func (s *Service) Save(ctx context.Context, inv Invoice, data Dataset) (SavedInvoice, error) {
	if err := checkTotals(inv); err != nil {
		return SavedInvoice{}, err
	}
	if err := s.Render(ctx, inv, io.Discard); err != nil {
		return SavedInvoice{}, err
	}

	rec, err := s.store.Create(ctx, inv, data)
	if err != nil {
		return SavedInvoice{}, err
	}

	s.recordAudit(ctx, newAuditEntry(ctx, s.clock, ActionInvoiceSave, rec.ID, 1, inv.Config.InvoiceNumber))
	slog.Info("invoice saved",
		"invoice_id", rec.ID,
		"invoice_number", inv.Config.InvoiceNumber,
		"total", inv.Total,
	)
	return rec, nil
}

// List queries the store.
func (s *Service) List(opts ListOptions) []SavedInvoice {
	return s.store.List(opts)
}

// Get returns one saved invoice.
func (s *Service) Get(id string) (SavedInvoice, error) {
	return s.store.Get(id)
}

// RenderRecord re-renders a saved invoice.
func (s *Service) RenderRecord(ctx context.Context, id string, w io.Writer) (SavedInvoice, error) {
	rec, err := s.store.Get(id)
	if err != nil {
		return SavedInvoice{}, err
	}
	return rec, s.Render(ctx, rec.Invoice, w)
}

// Delete removes a saved invoice, returning ErrRecordNotFound if it is absent.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("invoice %s: %w", id, ErrRecordNotFound)
	}

	s.recordAudit(ctx, newAuditEntry(ctx, s.clock, ActionInvoiceDelete, id, 1, ""))
	slog.Info("invoice deleted", "invoice_id", id)
	return nil
}

// ============================================================================
// Backup
// ============================================================================

// ExportBackup writes a backup of every saved invoice to w.
func (s *Service) ExportBackup(ctx context.Context, w io.Writer) (Backup, error) {
	b := NewBackup(s.store.All(), s.clock)
	if err := EncodeBackup(w, b); err != nil {
		return Backup{}, err
	}

	s.recordAudit(ctx, newAuditEntry(ctx, s.clock, ActionBackupExport, "", len(b.Records), ""))
	slog.Info("backup exported", "records", len(b.Records))
	return b, nil
}

// RestoreBackup decodes a backup from r and, when confirm is set, replaces
// every saved invoice with its records. Returns the number restored.
// A malformed payload is reported before the confirmation check.
func (s *Service) RestoreBackup(ctx context.Context, r io.Reader, confirm bool) (int, error) {
	b, err := DecodeBackup(r)
	if err != nil {
		return 0, err
	}
	if !confirm {
		return 0, ErrRestoreNotConfirmed
	}

	before := s.store.Len()
	if err := s.store.ReplaceAll(ctx, b.Records); err != nil {
		return 0, err
	}

	s.recordAudit(ctx, newAuditEntry(ctx, s.clock, ActionBackupRestore, "", len(b.Records),
		fmt.Sprintf("replaced %d records", before)))
	slog.Warn("backup restored", "records", len(b.Records), "replaced", before)
	return len(b.Records), nil
}

// ============================================================================
// Audit
// ============================================================================

// AuditLog returns up to limit recent audit entries, newest first.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if s.audit == nil {
		return []AuditEntry{}, nil
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return s.audit.Recent(ctx, limit)
}

// recordAudit logs audit failures without failing the operation.
func (s *Service) recordAudit(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		slog.Error("audit log write failed", "action", entry.Action, "error", err)
	}
}

// NewInvoiceNumber returns a fresh invoice number.
func (s *Service) NewInvoiceNumber() string {
	return GenerateInvoiceNumber(s.clock, nil)
}
