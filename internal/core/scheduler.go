package core

// scheduler.go runs periodic backups of the invoice store to a directory.
//
// Each run writes one timestamped backup file, then deletes the oldest files
// beyond the retention count. Failures are logged and the next tick retries.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const scheduledBackupPrefix = "invoice-manager-scheduled-"

// BackupSchedule holds configuration for the backup scheduler.
type BackupSchedule struct {
	Dir      string
	Interval time.Duration // default 24h
	Keep     int           // newest files retained, default 7
}

// StartBackupScheduler writes a backup immediately, then every Interval,
// until ctx is cancelled.
func (s *Service) StartBackupScheduler(ctx context.Context, cfg BackupSchedule) {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 7
	}

	slog.Info("backup scheduler started",
		"dir", cfg.Dir,
		"interval", cfg.Interval.String(),
		"keep", cfg.Keep,
	)

	s.runBackupJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			s.runBackupJob(ctx, cfg)
		}
	}
}

func (s *Service) runBackupJob(ctx context.Context, cfg BackupSchedule) {
	start := time.Now()

	path, n, err := s.WriteBackupFile(ctx, cfg.Dir)
	if err != nil {
		slog.Error("scheduled backup failed", "error", err)
		return
	}

	removed, err := pruneBackups(cfg.Dir, cfg.Keep)
	if err != nil {
		slog.Error("backup pruning failed", "error", err)
	}

	slog.Info("scheduled backup completed",
		"path", path,
		"records", n,
		"pruned", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// WriteBackupFile exports the store to a new timestamped file in dir and
// returns its path and record count.
func (s *Service) WriteBackupFile(ctx context.Context, dir string) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create backup dir: %w", err)
	}

	name := scheduledBackupPrefix + s.clock.Now().UTC().Format("20060102-150405.000") + ".json"
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create backup file: %w", err)
	}

	b, err := s.ExportBackup(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, len(b.Records), nil
}

// pruneBackups keeps the newest keep backup files in dir. Timestamped names
// sort chronologically.
func pruneBackups(dir string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), scheduledBackupPrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= keep {
		return 0, nil
	}

	sort.Strings(names)
	removed := 0
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
