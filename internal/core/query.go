package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Filter selects a subset of saved invoices.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterRecent    Filter = "recent"
	FilterHighValue Filter = "high-value"
)

// SortKey names the field invoices are ordered by.
type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByAmount SortKey = "amount"
	SortByNumber SortKey = "number"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseFilter parses a filter name; "" means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterRecent, FilterHighValue:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, recent or high-value)", s)
	}
}

// ParseSortKey parses a sort key; "" means date.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByDate, nil
	case SortByDate, SortByAmount, SortByNumber:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want date, amount or number)", s)
	}
}

// ParseSortOrder parses a sort direction; "" means desc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortDesc, nil
	case SortAsc, SortDesc:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want asc or desc)", s)
	}
}

// ListOptions controls List. The zero value lists everything newest first.
type ListOptions struct {
	Filter    Filter
	SortKey   SortKey
	SortOrder SortOrder
	Search    string
}

// List returns the records matching opts, sorted. Sorting is stable, so
// records with equal keys keep their insertion order in both directions.
func (s *InvoiceStore) List(opts ListOptions) []SavedInvoice {
	now := s.clock.Now()

	s.mu.RLock()
	out := make([]SavedInvoice, 0, len(s.records))
	for _, r := range s.records {
		if s.matchesFilter(r, opts.Filter, now) && matchesSearch(r, opts.Search) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	less := lessFor(opts.SortKey)
	if opts.SortOrder == SortAsc {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return less(out[j], out[i]) })
	}
	return out
}

func (s *InvoiceStore) matchesFilter(r SavedInvoice, f Filter, now time.Time) bool {
	switch f {
	case FilterRecent:
		cutoff := now.AddDate(0, 0, -s.opts.RecentDays)
		return !r.CreatedAt.Before(cutoff)
	case FilterHighValue:
		return r.Invoice.Total > s.opts.HighValueThreshold
	default:
		return true
	}
}

// matchesSearch is a case-insensitive substring match. The query is used as
// given, whitespace included.
func matchesSearch(r SavedInvoice, q string) bool {
	q = strings.ToLower(q)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Invoice.Config.InvoiceNumber), q) ||
		strings.Contains(strings.ToLower(r.Invoice.Config.ClientName), q) ||
		strings.Contains(strings.ToLower(r.Filename), q)
}

func lessFor(key SortKey) func(a, b SavedInvoice) bool {
	switch key {
	case SortByAmount:
		return func(a, b SavedInvoice) bool { return a.Invoice.Total < b.Invoice.Total }
	case SortByNumber:
		return func(a, b SavedInvoice) bool {
			return a.Invoice.Config.InvoiceNumber < b.Invoice.Config.InvoiceNumber
		}
	default:
		return func(a, b SavedInvoice) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
