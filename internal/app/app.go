// Package app wires configuration, storage, rendering and the core service.
// Both binaries bootstrap through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/invoicer/internal/config"
	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/render"
	"github.com/JonMunkholm/invoicer/internal/storage/memory"
	"github.com/JonMunkholm/invoicer/internal/storage/postgres"
	"github.com/JonMunkholm/invoicer/internal/storage/sqlite"
)

// Storage is an opened persistence backend.
type Storage struct {
	Records core.RecordRepository
	Audit   core.AuditLog
	close   func() error
}

// Close releases the backend.
func (s Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage opens the backend selected by cfg.Driver.
func OpenStorage(ctx context.Context, cfg config.StoreConfig) (Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return Storage{
			Records: memory.NewRecordRepository(),
			Audit:   memory.NewAuditLog(memory.DefaultAuditCapacity),
		}, nil

	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolOptions{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return Storage{}, err
		}
		slog.Info("connected to database", "name", postgres.DatabaseName(cfg.DatabaseURL))
		return Storage{Records: pg.Records(), Audit: pg.Audit(), close: pg.Close}, nil

	case config.DriverSQLite, "":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return Storage{}, err
		}
		slog.Debug("opened sqlite store", "path", db.Path())
		return Storage{Records: db.Records(), Audit: db.Audit(), close: db.Close}, nil

	default:
		return Storage{}, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Issuer converts the TOML profile into the renderer's issuer block.
func Issuer(p config.Profile) render.Issuer {
	return render.Issuer{
		Name:         p.Issuer.Name,
		Title:        p.Issuer.Title,
		Address:      p.Issuer.Address,
		Phone:        p.Issuer.Phone,
		Email:        p.Issuer.Email,
		DefaultNotes: p.Issuer.DefaultNotes,
		Footer:       p.Issuer.Footer,
	}
}

// App is a fully wired service plus the resources it holds open.
type App struct {
	Config  *config.Config
	Service *core.Service
	storage Storage
}

// Open builds an App from cfg. Callers must Close it.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}

	storage, err := OpenStorage(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	clock := core.SystemClock{}
	store, err := core.OpenStore(ctx, storage.Records, clock, core.StoreOptions{
		HighValueThreshold: cfg.Invoice.HighValueThreshold,
		RecentDays:         cfg.Invoice.RecentDays,
	})
	if err != nil {
		return nil, errors.Join(err, storage.Close())
	}

	service, err := core.NewService(core.ServiceConfig{
		Store:       store,
		Renderer:    render.NewPDFRenderer(Issuer(profile)),
		Audit:       storage.Audit,
		Clock:       clock,
		DatasetTTL:  cfg.Upload.DatasetTTL,
		MaxDatasets: cfg.Upload.MaxDatasets,
	})
	if err != nil {
		return nil, errors.Join(err, storage.Close())
	}

	slog.Info("invoice store ready",
		"driver", cfg.Store.Driver,
		"invoices", store.Len(),
		"issuer", profile.Issuer.Name,
	)
	return &App{Config: cfg, Service: service, storage: storage}, nil
}

// DefaultInvoiceConfig returns a pre-filled configuration using the
// configured tax rate and payment terms.
func (a *App) DefaultInvoiceConfig() core.InvoiceConfig {
	return core.DefaultConfig(a.Service.Clock(), a.Config.Invoice.PaymentTermsDays, a.Config.Invoice.DefaultTaxRate)
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.storage.Close()
}
