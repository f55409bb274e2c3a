package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// BackupFormatVersion is written into every exported backup.
const BackupFormatVersion = "1.0"

// Backup is the portable export of the whole invoice store.
type Backup struct {
	Records       []SavedInvoice `json:"records"`
	ExportedAt    time.Time      `json:"exportedAt"`
	FormatVersion string         `json:"formatVersion"`
}

// NewBackup snapshots recs at the clock's current time.
func NewBackup(recs []SavedInvoice, clock Clock) Backup {
	if clock == nil {
		clock = SystemClock{}
	}
	if recs == nil {
		recs = []SavedInvoice{}
	}
	return Backup{
		Records:       recs,
		ExportedAt:    clock.Now(),
		FormatVersion: BackupFormatVersion,
	}
}

// BackupFilename is the download name for a backup taken at t.
func BackupFilename(t time.Time) string {
	return "invoice-manager-backup-" + t.Format(DateLayout) + ".json"
}

// EncodeBackup writes b as indented JSON.
func EncodeBackup(w io.Writer, b Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// DecodeBackup parses a backup document. Any structural problem, including a
// missing records, exportedAt or formatVersion key or a record without an id,
// yields an error wrapping ErrMalformedBackup.
func DecodeBackup(r io.Reader) (Backup, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Backup{}, fmt.Errorf("read backup: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Backup{}, fmt.Errorf("%w: not a JSON object", ErrMalformedBackup)
	}

	for _, key := range []string{"records", "exportedAt", "formatVersion"} {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return Backup{}, fmt.Errorf("%w: missing %q", ErrMalformedBackup, key)
		}
	}

	var b Backup
	if err := json.Unmarshal(raw["records"], &b.Records); err != nil {
		return Backup{}, fmt.Errorf("%w: records: %v", ErrMalformedBackup, err)
	}
	if err := json.Unmarshal(raw["exportedAt"], &b.ExportedAt); err != nil {
		return Backup{}, fmt.Errorf("%w: exportedAt: %v", ErrMalformedBackup, err)
	}
	if err := json.Unmarshal(raw["formatVersion"], &b.FormatVersion); err != nil || b.FormatVersion == "" {
		return Backup{}, fmt.Errorf("%w: formatVersion must be a non-empty string", ErrMalformedBackup)
	}

	for i, rec := range b.Records {
		if rec.ID == "" {
			return Backup{}, fmt.Errorf("%w: record %d has no id", ErrMalformedBackup, i)
		}
	}

	return b, nil
}
