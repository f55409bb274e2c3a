package core

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeRepo is an in-package RecordRepository with injectable failures.
type fakeRepo struct {
	mu      sync.Mutex
	recs    []SavedInvoice
	failErr error
}

func (r *fakeRepo) Load(context.Context) ([]SavedInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SavedInvoice(nil), r.recs...), nil
}

func (r *fakeRepo) Insert(_ context.Context, rec SavedInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.recs = append(r.recs, rec)
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for i, rec := range r.recs {
		if rec.ID == id {
			r.recs = append(r.recs[:i], r.recs[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRepo) ReplaceAll(_ context.Context, recs []SavedInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.recs = append([]SavedInvoice(nil), recs...)
	return nil
}

func record(id, number, client string, total float64, createdAt time.Time) SavedInvoice {
	return SavedInvoice{
		ID: id,
		Invoice: Invoice{
			Config: InvoiceConfig{InvoiceNumber: number, ClientName: client},
			Total:  total,
		},
		CreatedAt: createdAt,
		Filename:  RecordFilename(id),
	}
}

func openTestStore(t *testing.T, recs ...SavedInvoice) (*InvoiceStore, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{recs: recs}
	s, err := OpenStore(context.Background(), repo, FixedClock{T: fixedNow}, StoreOptions{})
	if err != nil {
		t.Fatalf("OpenStore() error: %v", err)
	}
	return s, repo
}

func ids(recs []SavedInvoice) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestInvoiceStore_HighValueFilterStableSort(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, rec := range []SavedInvoice{
		record("1", "INV-B", "Ann", 1500, fixedNow.Add(-3*time.Hour)),
		record("2", "INV-A", "Bob", 999.99, fixedNow.Add(-2*time.Hour)),
		record("3", "INV-C", "Cyd", 1500, fixedNow.Add(-1*time.Hour)),
	} {
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error: %v", rec.ID, err)
		}
	}

	tests := []struct {
		name  string
		order SortOrder
		key   SortKey
		want  []string
	}{
		{"amount asc keeps insertion order on ties", SortAsc, SortByAmount, []string{"1", "3"}},
		{"amount desc keeps insertion order on ties", SortDesc, SortByAmount, []string{"1", "3"}},
		{"number asc", SortAsc, SortByNumber, []string{"1", "3"}},
		{"date desc", SortDesc, SortByDate, []string{"3", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.List(ListOptions{Filter: FilterHighValue, SortKey: tt.key, SortOrder: tt.order})
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("List() = %v, want %v", ids(got), tt.want)
			}
			for _, r := range got {
				if r.Invoice.Total <= 1000 {
					t.Errorf("record %s with total %v passed high-value filter", r.ID, r.Invoice.Total)
				}
			}
		})
	}
}

func TestInvoiceStore_ListDefaults(t *testing.T) {
	s, _ := openTestStore(t,
		record("1", "INV-1", "Ann", 10, fixedNow.Add(-48*time.Hour)),
		record("2", "INV-2", "Bob", 20, fixedNow.Add(-24*time.Hour)),
		record("3", "INV-3", "Cyd", 30, fixedNow),
	)

	got := s.List(ListOptions{})
	if want := []string{"3", "2", "1"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("List() = %v, want newest first %v", ids(got), want)
	}
}

func TestInvoiceStore_RecentFilter(t *testing.T) {
	s, _ := openTestStore(t,
		record("old", "INV-1", "Ann", 10, fixedNow.AddDate(0, 0, -31)),
		record("edge", "INV-2", "Bob", 20, fixedNow.AddDate(0, 0, -30)),
		record("new", "INV-3", "Cyd", 30, fixedNow.Add(-time.Minute)),
	)

	got := s.List(ListOptions{Filter: FilterRecent, SortOrder: SortAsc})
	if want := []string{"edge", "new"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("List(recent) = %v, want %v", ids(got), want)
	}
}

func TestInvoiceStore_Search(t *testing.T) {
	s, _ := openTestStore(t,
		record("100", "INV-ABC", "Ann Smith", 10, fixedNow),
		record("200", "INV-XYZ", "Bob Jones", 20, fixedNow),
	)

	tests := []struct {
		q    string
		want []string
	}{
		{"", []string{"100", "200"}},
		{"abc", []string{"100"}},
		{"JONES", []string{"200"}},
		{"invoice_200", []string{"200"}},
		{"nobody", []string{}},
		{"n s", []string{"100"}},
		{"  ", []string{}},
		{" abc", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			got := s.List(ListOptions{Search: tt.q, SortOrder: SortAsc})
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("List(q=%q) = %v, want %v", tt.q, ids(got), tt.want)
			}
		})
	}
}

func TestInvoiceStore_InsertDuplicate(t *testing.T) {
	s, repo := openTestStore(t, record("1", "INV-1", "Ann", 10, fixedNow))

	err := s.Insert(context.Background(), record("1", "INV-2", "Bob", 20, fixedNow))
	if !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("Insert() error = %v, want ErrDuplicateRecord", err)
	}
	if s.Len() != 1 || len(repo.recs) != 1 {
		t.Errorf("duplicate insert changed state: store %d, repo %d", s.Len(), len(repo.recs))
	}
}

func TestInvoiceStore_RepositoryFailureLeavesStoreUnchanged(t *testing.T) {
	s, repo := openTestStore(t, record("1", "INV-1", "Ann", 10, fixedNow))
	repo.failErr = errors.New("disk full")
	ctx := context.Background()

	if err := s.Insert(ctx, record("2", "INV-2", "Bob", 20, fixedNow)); err == nil {
		t.Error("Insert() expected error")
	}
	if _, err := s.Delete(ctx, "1"); err == nil {
		t.Error("Delete() expected error")
	}
	if err := s.ReplaceAll(ctx, nil); err == nil {
		t.Error("ReplaceAll() expected error")
	}

	if got := ids(s.All()); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("All() = %v, want [1]", got)
	}
}

func TestInvoiceStore_Delete(t *testing.T) {
	s, repo := openTestStore(t,
		record("1", "INV-1", "Ann", 10, fixedNow),
		record("2", "INV-2", "Bob", 20, fixedNow),
		record("3", "INV-3", "Cyd", 30, fixedNow),
	)
	ctx := context.Background()

	removed, err := s.Delete(ctx, "2")
	if err != nil || !removed {
		t.Fatalf("Delete(2) = %v, %v", removed, err)
	}
	removed, err = s.Delete(ctx, "missing")
	if err != nil || removed {
		t.Errorf("Delete(missing) = %v, %v, want no-op", removed, err)
	}

	if got := ids(s.All()); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Errorf("All() = %v, want [1 3]", got)
	}
	if len(repo.recs) != 2 {
		t.Errorf("repo has %d records, want 2", len(repo.recs))
	}
	if _, err := s.Get("3"); err != nil {
		t.Errorf("Get(3) after delete: %v", err)
	}
	if _, err := s.Get("2"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Get(2) error = %v, want ErrRecordNotFound", err)
	}
}

func TestInvoiceStore_CreateAssignsUniqueIDs(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, Invoice{Total: 1}, Dataset{})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	second, err := s.Create(ctx, Invoice{Total: 2}, Dataset{})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	wantFirst := "1752246245000"
	if first.ID != wantFirst {
		t.Errorf("first ID = %s, want %s", first.ID, wantFirst)
	}
	if second.ID != "1752246245001" {
		t.Errorf("second ID = %s, want bumped id", second.ID)
	}
	if first.Filename != "invoice_"+wantFirst+".pdf" {
		t.Errorf("Filename = %s", first.Filename)
	}
	if !first.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", first.CreatedAt, fixedNow)
	}
}

func TestInvoiceStore_ReplaceAll(t *testing.T) {
	s, _ := openTestStore(t, record("1", "INV-1", "Ann", 10, fixedNow))
	ctx := context.Background()

	next := []SavedInvoice{
		record("7", "INV-7", "Gus", 70, fixedNow),
		record("8", "INV-8", "Hal", 80, fixedNow),
	}
	if err := s.ReplaceAll(ctx, next); err != nil {
		t.Fatalf("ReplaceAll() error: %v", err)
	}
	if got := ids(s.All()); !reflect.DeepEqual(got, []string{"7", "8"}) {
		t.Errorf("All() = %v, want [7 8]", got)
	}

	dup := []SavedInvoice{record("9", "A", "", 0, fixedNow), record("9", "B", "", 0, fixedNow)}
	if err := s.ReplaceAll(ctx, dup); !errors.Is(err, ErrDuplicateRecord) {
		t.Errorf("ReplaceAll(dup) error = %v, want ErrDuplicateRecord", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d after rejected replace, want 2", s.Len())
	}
}

func TestTotalValue(t *testing.T) {
	recs := []SavedInvoice{
		record("1", "", "", 10.5, fixedNow),
		record("2", "", "", 20.25, fixedNow),
	}
	if got := TotalValue(recs); got != 30.75 {
		t.Errorf("TotalValue() = %v, want 30.75", got)
	}
	if got := TotalValue(nil); got != 0 {
		t.Errorf("TotalValue(nil) = %v, want 0", got)
	}
}

func TestParseListOptions(t *testing.T) {
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Errorf("ParseFilter(\"\") = %v, %v", f, err)
	}
	if f, err := ParseFilter("High-Value"); err != nil || f != FilterHighValue {
		t.Errorf("ParseFilter(High-Value) = %v, %v", f, err)
	}
	if _, err := ParseFilter("big"); err == nil {
		t.Error("ParseFilter(big) expected error")
	}
	if k, err := ParseSortKey(""); err != nil || k != SortByDate {
		t.Errorf("ParseSortKey(\"\") = %v, %v", k, err)
	}
	if _, err := ParseSortKey("client"); err == nil {
		t.Error("ParseSortKey(client) expected error")
	}
	if o, err := ParseSortOrder(""); err != nil || o != SortDesc {
		t.Errorf("ParseSortOrder(\"\") = %v, %v", o, err)
	}
	if o, err := ParseSortOrder("ASC"); err != nil || o != SortAsc {
		t.Errorf("ParseSortOrder(ASC) = %v, %v", o, err)
	}
}

func TestOpenStore_Thresholds(t *testing.T) {
	recs := []SavedInvoice{
		record("1", "INV-1", "Ann", 500, fixedNow.Add(-time.Hour)),
		record("2", "INV-2", "Bob", 50, fixedNow.Add(-time.Hour)),
	}

	tests := []struct {
		name      string
		opts      StoreOptions
		threshold float64
		wantIDs   []string
	}{
		{"zero takes default", StoreOptions{}, DefaultHighValueThreshold, nil},
		{"configured threshold honored", StoreOptions{HighValueThreshold: 100}, 100, []string{"1"}},
		{"small positive threshold honored", StoreOptions{HighValueThreshold: 0.01}, 0.01, []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := OpenStore(context.Background(), &fakeRepo{recs: recs}, FixedClock{T: fixedNow}, tt.opts)
			if err != nil {
				t.Fatalf("OpenStore() error: %v", err)
			}
			if got := s.Options().HighValueThreshold; got != tt.threshold {
				t.Errorf("HighValueThreshold = %v, want %v", got, tt.threshold)
			}
			got := ids(s.List(ListOptions{Filter: FilterHighValue, SortKey: SortByNumber, SortOrder: SortAsc}))
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("List(high-value) = %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Errorf("List(high-value) = %v, want %v", got, tt.wantIDs)
				}
			}
		})
	}
}
