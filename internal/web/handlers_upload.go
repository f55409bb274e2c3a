package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/ingest"
	"github.com/JonMunkholm/invoicer/internal/logging"
)

// multipartOverhead is allowed on top of the file size limit for form framing.
const multipartOverhead = 1 << 20

// columnsRequest selects the aggregated columns.
type columnsRequest struct {
	Columns []string `json:"columns"`
}

// invoiceRequest selects columns and carries the invoice details.
type invoiceRequest struct {
	Columns []string           `json:"columns"`
	Config  core.InvoiceConfig `json:"config"`
}

// handleUploadDataset parses an uploaded CSV or XLSX file and stages it.
// Concurrent parses are bounded by the upload limiter.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestMeta(r)

	if err := s.uploads.Acquire(ctx); err != nil {
		s.fail(w, r, err)
		return
	}
	defer s.uploads.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.fail(w, r, fmt.Errorf("parse upload form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	ds, err := ingest.Read(file, header.Filename, maxSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	info, err := s.service.StageDataset(ctx, ds)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	logging.FromContext(ctx).Debug("dataset uploaded",
		"dataset_id", info.ID,
		"size", header.Size,
		"suggested", info.Suggested,
	)
	writeJSON(w, http.StatusCreated, info)
}

// handleGetDataset describes a staged dataset.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.DatasetInfo(chi.URLParam(r, "datasetID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSummarize aggregates the selected columns of a staged dataset.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(chi.URLParam(r, "datasetID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req columnsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	summary, err := s.service.Summarize(ds, req.Columns)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// generate loads the dataset named in the URL and computes the invoice.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) (core.Invoice, bool) {
	ds, err := s.service.Dataset(chi.URLParam(r, "datasetID"))
	if err != nil {
		s.fail(w, r, err)
		return core.Invoice{}, false
	}

	var req invoiceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return core.Invoice{}, false
	}

	inv, err := s.service.Generate(ds, req.Columns, req.Config)
	if err != nil {
		s.fail(w, r, err)
		return core.Invoice{}, false
	}
	return inv, true
}

// handlePreviewInvoice computes an invoice without saving it.
// Invalid details yield 422 with every field error.
func (s *Server) handlePreviewInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.generate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handleInvoicePDF computes an invoice and returns its document without saving.
func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := s.generate(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.service.Render(r.Context(), inv, &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	writePDF(w, formatFilename(inv.Config), buf.Bytes())
}
