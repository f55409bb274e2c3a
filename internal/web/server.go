// Package web provides the local HTTP API and the browser page for the invoicer.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/invoicer/internal/config"
	"github.com/JonMunkholm/invoicer/internal/core"
	mw "github.com/JonMunkholm/invoicer/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the invoicer.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	uploads  *core.UploadLimiter
	defaults func() core.InvoiceConfig
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server. defaults supplies the pre-filled invoice
// configuration returned by GET /api/invoice-defaults; nil uses core.DefaultConfig.
func NewServer(service *core.Service, cfg *config.Config, defaults func() core.InvoiceConfig) *Server {
	if defaults == nil {
		defaults = func() core.InvoiceConfig {
			return core.DefaultConfig(service.Clock(), cfg.Invoice.PaymentTermsDays, cfg.Invoice.DefaultTaxRate)
		}
	}
	s := &Server{
		service:  service,
		cfg:      cfg,
		uploads:  core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		defaults: defaults,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Datasets
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware)
			}
			r.Post("/datasets", s.handleUploadDataset)
		})
		r.Get("/datasets/{datasetID}", s.handleGetDataset)
		r.Post("/datasets/{datasetID}/summary", s.handleSummarize)
		r.Post("/datasets/{datasetID}/invoice", s.handlePreviewInvoice)
		r.Post("/datasets/{datasetID}/invoice/pdf", s.handleInvoicePDF)

		// Saved invoices
		r.Get("/invoices", s.handleListInvoices)
		r.Post("/invoices", s.handleSaveInvoice)
		r.Get("/invoices/{invoiceID}", s.handleGetInvoice)
		r.Get("/invoices/{invoiceID}/pdf", s.handleSavedInvoicePDF)
		r.Delete("/invoices/{invoiceID}", s.handleDeleteInvoice)

		// Invoice helpers
		r.Get("/invoice-number", s.handleInvoiceNumber)
		r.Get("/invoice-defaults", s.handleInvoiceDefaults)

		// Backup
		r.Get("/backup", s.handleExportBackup)
		r.Post("/backup", s.handleRestoreBackup)

		// Audit log and upload queue
		r.Get("/audit-log", s.handleAuditLog)
		r.Get("/uploads/status", s.handleUploadQueueStatus)
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// once Shutdown has been called, including when Shutdown runs first.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown waits for in-flight uploads, then gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.uploads.WaitForDrain(ctx); err != nil {
		slog.Warn("uploads still active at shutdown", "active", s.uploads.Status().Active)
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
