package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/invoicer/internal/config"
	"github.com/JonMunkholm/invoicer/internal/core"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{
			Driver: driver,
			Path:   filepath.Join(t.TempDir(), "invoices.db"),
		},
		Invoice: config.InvoiceConfig{HighValueThreshold: 500, RecentDays: 7, DefaultTaxRate: 5, PaymentTermsDays: 14},
	}
}

func sessions() core.Dataset {
	return core.Dataset{
		Headers: []string{"Client", "Fee"},
		Rows: []core.Row{
			{"Client": "Ann", "Fee": "120"},
			{"Client": "Ann", "Fee": "80"},
		},
		Filename: "sessions.csv",
	}
}

func TestOpen_SQLitePersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.DriverSQLite)

	a, err := Open(ctx, cfg)
	require.NoError(t, err)

	invCfg := a.DefaultInvoiceConfig()
	assert.Equal(t, 5.0, invCfg.TaxRate)
	assert.NotEmpty(t, invCfg.InvoiceNumber)

	inv, err := a.Service.Generate(sessions(), []string{"Fee"}, invCfg)
	require.NoError(t, err)
	saved, err := a.Service.Save(ctx, inv, sessions())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	reopened, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Service.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 210.0, got.Invoice.Total)
	assert.Equal(t, 500.0, reopened.Service.Store().Options().HighValueThreshold)

	entries, err := reopened.Service.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, core.ActionInvoiceSave, entries[0].Action)
}

func TestOpen_Memory(t *testing.T) {
	a, err := Open(context.Background(), testConfig(t, config.DriverMemory))
	require.NoError(t, err)
	defer a.Close()

	var buf bytes.Buffer
	_, err = a.Service.ExportBackup(context.Background(), &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"records": []`)
}

func TestOpen_UsesProfile(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.ProfilePath = filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(cfg.ProfilePath, []byte("[issuer]\nname = \"Harbour Physiotherapy\"\n"), 0o600))

	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	inv, err := a.Service.Generate(sessions(), []string{"Fee"}, a.DefaultInvoiceConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.Service.Render(context.Background(), inv, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}

func TestIssuer(t *testing.T) {
	iss := Issuer(config.Profile{Issuer: config.IssuerProfile{
		Name:    "Harbour Physiotherapy",
		Address: []string{"188 Shore Road"},
	}})
	assert.Equal(t, "Harbour Physiotherapy", iss.Name)
	assert.Equal(t, []string{"188 Shore Road"}, iss.Address)
}

func TestServe_ReturnsWhenCancelledBeforeStart(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Server = config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}

	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}
