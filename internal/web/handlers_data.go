package web

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// saveRequest generates an invoice from a staged dataset and stores it.
type saveRequest struct {
	DatasetID string             `json:"datasetId"`
	Columns   []string           `json:"columns"`
	Config    core.InvoiceConfig `json:"config"`
}

// listResponse is the manager view: matching invoices plus stats.
type listResponse struct {
	Invoices   []core.SavedInvoice `json:"invoices"`
	Count      int                 `json:"count"`
	Total      int                 `json:"total"`
	TotalValue float64             `json:"totalValue"`
}

// handleListInvoices filters, sorts and searches saved invoices.
//
// Query: filter=all|recent|high-value, sort=date|amount|number, order=asc|desc, q=text
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := core.ParseFilter(q.Get("filter"))
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	key, err := core.ParseSortKey(q.Get("sort"))
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	order, err := core.ParseSortOrder(q.Get("order"))
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}

	recs := s.service.List(core.ListOptions{
		Filter:    filter,
		SortKey:   key,
		SortOrder: order,
		Search:    q.Get("q"),
	})
	if recs == nil {
		recs = []core.SavedInvoice{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Invoices:   recs,
		Count:      len(recs),
		Total:      s.service.Store().Len(),
		TotalValue: core.TotalValue(recs),
	})
}

// handleSaveInvoice generates and stores an invoice. Nothing is stored when
// validation or rendering fails.
func (s *Server) handleSaveInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestMeta(r)

	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	ds, err := s.service.Dataset(req.DatasetID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	inv, err := s.service.Generate(ds, req.Columns, req.Config)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := s.service.Save(ctx, inv, ds)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/invoices/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// handleGetInvoice returns one saved invoice.
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Get(chi.URLParam(r, "invoiceID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleSavedInvoicePDF re-renders a saved invoice as a download.
func (s *Server) handleSavedInvoicePDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	rec, err := s.service.RenderRecord(r.Context(), chi.URLParam(r, "invoiceID"), &buf)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePDF(w, rec.Filename, buf.Bytes())
}

// handleDeleteInvoice removes a saved invoice.
func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(withRequestMeta(r), chi.URLParam(r, "invoiceID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
