// Package postgres persists saved invoices and the audit trail in PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/storage/postgres/migrations"
)

// uniqueViolation is the SQLSTATE raised for a duplicate key.
const uniqueViolation = "23505"

// PoolOptions tunes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store owns the connection pool and hands out port implementations.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, verifies the connection and applies migrations.
func Open(ctx context.Context, databaseURL string, opts PoolOptions) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// DatabaseName extracts the database name from a connection URL for logging.
func DatabaseName(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Records returns the invoice repository.
func (s *Store) Records() core.RecordRepository {
	return &recordRepository{pool: s.pool}
}

// Audit returns the audit log.
func (s *Store) Audit() core.AuditLog {
	return &auditLog{pool: s.pool}
}

func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
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
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version)
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
	}
	return nil
}

// ==================== Record Repository ====================

type recordRepository struct {
	pool *pgxpool.Pool
}

var _ core.RecordRepository = (*recordRepository)(nil)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *recordRepository) Load(ctx context.Context) ([]core.SavedInvoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, created_at, filename, invoice, dataset FROM invoices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var out []core.SavedInvoice
	for rows.Next() {
		var (
			rec              core.SavedInvoice
			invoice, dataset []byte
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Filename, &invoice, &dataset); err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		if err := json.Unmarshal(invoice, &rec.Invoice); err != nil {
			return nil, fmt.Errorf("invoice %s: decoding invoice: %w", rec.ID, err)
		}
		if err := json.Unmarshal(dataset, &rec.OriginalData); err != nil {
			return nil, fmt.Errorf("invoice %s: decoding dataset: %w", rec.ID, err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordRepository) Insert(ctx context.Context, rec core.SavedInvoice) error {
	return insertRecord(ctx, r.pool, rec)
}

func insertRecord(ctx context.Context, db execer, rec core.SavedInvoice) error {
	invoice, err := json.Marshal(rec.Invoice)
	if err != nil {
		return fmt.Errorf("encoding invoice %s: %w", rec.ID, err)
	}
	dataset, err := json.Marshal(rec.OriginalData)
	if err != nil {
		return fmt.Errorf("encoding dataset %s: %w", rec.ID, err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO invoices (id, invoice_number, client_name, total, filename, created_at, invoice, dataset)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID,
		rec.Invoice.Config.InvoiceNumber,
		rec.Invoice.Config.ClientName,
		rec.Invoice.Total,
		rec.Filename,
		rec.CreatedAt,
		invoice,
		dataset,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting invoice %s: %w", rec.ID, core.ErrDuplicateRecord)
		}
		return fmt.Errorf("inserting invoice %s: %w", rec.ID, err)
	}
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}
	return nil
}

func (r *recordRepository) ReplaceAll(ctx context.Context, recs []core.SavedInvoice) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM invoices`); err != nil {
			return fmt.Errorf("clearing invoices: %w", err)
		}
		for _, rec := range recs {
			if err := insertRecord(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// ==================== Audit Log ====================

type auditLog struct {
	pool *pgxpool.Pool
}

var _ core.AuditLog = (*auditLog)(nil)

func (a *auditLog) Record(ctx context.Context, e core.AuditEntry) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, severity, invoice_id, rows_affected, ip_address, user_agent, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, string(e.Action), string(e.Severity), e.InvoiceID, e.RowsAffected,
		e.IPAddress, e.UserAgent, e.Detail, e.CreatedAt,
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

	rows, err := a.pool.Query(ctx, `
		SELECT id, action, severity, invoice_id, rows_affected, ip_address, user_agent, detail, created_at
		FROM audit_log ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	out := []core.AuditEntry{}
	for rows.Next() {
		var (
			e                core.AuditEntry
			action, severity string
		)
		if err := rows.Scan(&e.ID, &action, &severity, &e.InvoiceID, &e.RowsAffected,
			&e.IPAddress, &e.UserAgent, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = core.AuditAction(action)
		e.Severity = core.AuditSeverity(severity)
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
