// Package sqlite persists saved invoices and the audit trail in a local
// SQLite database. It is the default store for both binaries.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/storage/sqlite/migrations"
)

// Store owns the database handle and hands out port implementations.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Records returns the invoice repository.
func (s *Store) Records() core.RecordRepository {
	return &recordRepository{db: s.db}
}

// Audit returns the audit log.
func (s *Store) Audit() core.AuditLog {
	return &auditLog{db: s.db}
}

// migrate applies every NNN_name.up.sql file newer than the recorded version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Repository ====================

type recordRepository struct {
	db *sql.DB
}

var _ core.RecordRepository = (*recordRepository)(nil)

const recordColumns = `id, invoice_number, client_name, total, filename, created_at, invoice_json, dataset_json`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *recordRepository) Load(ctx context.Context) ([]core.SavedInvoice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, created_at, filename, invoice_json, dataset_json FROM invoices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var out []core.SavedInvoice
	for rows.Next() {
		var (
			rec                  core.SavedInvoice
			createdAt            string
			invoiceJSON, dataset string
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Filename, &invoiceJSON, &dataset); err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("invoice %s: parsing created_at: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(invoiceJSON), &rec.Invoice); err != nil {
			return nil, fmt.Errorf("invoice %s: decoding invoice: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(dataset), &rec.OriginalData); err != nil {
			return nil, fmt.Errorf("invoice %s: decoding dataset: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordRepository) Insert(ctx context.Context, rec core.SavedInvoice) error {
	return insertRecord(ctx, r.db, rec)
}

func insertRecord(ctx context.Context, db execer, rec core.SavedInvoice) error {
	invoiceJSON, err := json.Marshal(rec.Invoice)
	if err != nil {
		return fmt.Errorf("encoding invoice %s: %w", rec.ID, err)
	}
	dataset, err := json.Marshal(rec.OriginalData)
	if err != nil {
		return fmt.Errorf("encoding dataset %s: %w", rec.ID, err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO invoices (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Invoice.Config.InvoiceNumber,
		rec.Invoice.Config.ClientName,
		rec.Invoice.Total,
		rec.Filename,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(invoiceJSON),
		string(dataset),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("inserting invoice %s: %w", rec.ID, core.ErrDuplicateRecord)
		}
		return fmt.Errorf("inserting invoice %s: %w", rec.ID, err)
	}
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}
	return nil
}

func (r *recordRepository) ReplaceAll(ctx context.Context, recs []core.SavedInvoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoices`); err != nil {
		return fmt.Errorf("clearing invoices: %w", err)
	}
	for _, rec := range recs {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ==================== Audit Log ====================

type auditLog struct {
	db *sql.DB
}

var _ core.AuditLog = (*auditLog)(nil)

func (a *auditLog) Record(ctx context.Context, e core.AuditEntry) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, severity, invoice_id, rows_affected, ip_address, user_agent, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), string(e.Severity), e.InvoiceID, e.RowsAffected,
		e.IPAddress, e.UserAgent, e.Detail, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func (a *auditLog) Recent(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		limit = core.DefaultAuditLimit
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, action, severity, invoice_id, rows_affected, ip_address, user_agent, detail, created_at
		FROM audit_log ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	out := []core.AuditEntry{}
	for rows.Next() {
		var (
			e                core.AuditEntry
			action, severity string
			createdAt        string
		)
		if err := rows.Scan(&e.ID, &action, &severity, &e.InvoiceID, &e.RowsAffected,
			&e.IPAddress, &e.UserAgent, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = core.AuditAction(action)
		e.Severity = core.AuditSeverity(severity)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("audit entry %s: parsing created_at: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
