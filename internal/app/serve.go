package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/web"
)

// Serve runs the HTTP server and the backup scheduler until ctx is cancelled,
// then shuts both down within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config
	server := web.NewServer(a.Service, cfg, a.DefaultInvoiceConfig)

	// Background jobs stop with the server
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Backup.BackupsEnabled() {
		go a.Service.StartBackupScheduler(jobCtx, core.BackupSchedule{
			Dir:      cfg.Backup.Dir,
			Interval: cfg.Backup.Interval,
			Keep:     cfg.Backup.Keep,
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}
