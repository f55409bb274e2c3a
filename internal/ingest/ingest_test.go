package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/invoicer/internal/core"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRows    []core.Row
	}{
		{
			name:        "basic",
			input:       "Client,Hours\nAnn,1.5\nBob,2\n",
			wantHeaders: []string{"Client", "Hours"},
			wantRows:    []core.Row{{"Client": "Ann", "Hours": "1.5"}, {"Client": "Bob", "Hours": "2"}},
		},
		{
			name:        "bom and crlf",
			input:       "\xEF\xBB\xBFClient,Hours\r\nAnn,3\r\n",
			wantHeaders: []string{"Client", "Hours"},
			wantRows:    []core.Row{{"Client": "Ann", "Hours": "3"}},
		},
		{
			name:        "blank lines skipped",
			input:       "\n\nClient,Hours\n\nAnn,1\n,\nBob,2\n",
			wantHeaders: []string{"Client", "Hours"},
			wantRows:    []core.Row{{"Client": "Ann", "Hours": "1"}, {"Client": "Bob", "Hours": "2"}},
		},
		{
			name:        "ragged rows",
			input:       "A,B,C\n1\n1,2,3,4\n",
			wantHeaders: []string{"A", "B", "C"},
			wantRows:    []core.Row{{"A": "1"}, {"A": "1", "B": "2", "C": "3"}},
		},
		{
			name:        "excel artifacts cleaned",
			input:       "\"Id\",Fee\n=\"007\",\" 12.50 \"\n",
			wantHeaders: []string{"Id", "Fee"},
			wantRows:    []core.Row{{"Id": "007", "Fee": "12.50"}},
		},
		{
			name:        "quoted commas",
			input:       "Client,Notes\n\"Smith, Ann\",\"a, b\"\n",
			wantHeaders: []string{"Client", "Notes"},
			wantRows:    []core.Row{{"Client": "Smith, Ann", "Notes": "a, b"}},
		},
		{
			name:        "header only",
			input:       "Client,Hours\n",
			wantHeaders: []string{"Client", "Hours"},
			wantRows:    []core.Row{},
		},
		{
			name:        "empty input",
			input:       "",
			wantHeaders: nil,
			wantRows:    []core.Row{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ReadCSV(strings.NewReader(tt.input), "sessions.csv")
			if err != nil {
				t.Fatalf("ReadCSV() error: %v", err)
			}
			if !reflect.DeepEqual(ds.Headers, tt.wantHeaders) {
				t.Errorf("Headers = %q, want %q", ds.Headers, tt.wantHeaders)
			}
			if !reflect.DeepEqual(ds.Rows, tt.wantRows) {
				t.Errorf("Rows = %v, want %v", ds.Rows, tt.wantRows)
			}
			if ds.Filename != "sessions.csv" {
				t.Errorf("Filename = %q", ds.Filename)
			}
		})
	}
}

func TestReadCSV_InvalidUTF8IsReplaced(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Client\nCaf\xe9\n"), "x.csv")
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if got := ds.Rows[0]["Client"]; got != "Caf�" {
		t.Errorf("Client = %q, want replacement character", got)
	}
}

func TestReadCSV_HeaderOnlyFailsValidation(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Client,Hours\n"), "x.csv")
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if err := core.ValidateDataset(ds); !errors.Is(err, core.ErrInvalidDataset) {
		t.Errorf("ValidateDataset() error = %v, want ErrInvalidDataset", err)
	}
}

func TestRead_SizeLimit(t *testing.T) {
	input := strings.Repeat("a", 100)
	_, err := Read(strings.NewReader(input), "big.csv", 50)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Read() error = %v, want ErrFileTooLarge", err)
	}
	if core.MapError(err).Code != "FILE001" {
		t.Errorf("MapError code = %s, want FILE001", core.MapError(err).Code)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"a.csv", FormatCSV, false},
		{"A.CSV", FormatCSV, false},
		{"a.xlsx", FormatXLSX, false},
		{"a.pdf", 0, true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("DetectFormat(%q) error = %v", tt.name, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("DetectFormat(%q) error = %v, want ErrUnsupportedType", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func writeWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error: %v", err)
	}
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	data := writeWorkbook(t, [][]any{
		{"Client", "Hours", "Rate"},
		{"Ann", 3, 75},
		{"Bob", 4.5, 80},
	})

	ds, err := Read(bytes.NewReader(data), "sessions.xlsx", 0)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if !reflect.DeepEqual(ds.Headers, []string{"Client", "Hours", "Rate"}) {
		t.Errorf("Headers = %v", ds.Headers)
	}
	want := []core.Row{
		{"Client": "Ann", "Hours": "3", "Rate": "75"},
		{"Client": "Bob", "Hours": "4.5", "Rate": "80"},
	}
	if !reflect.DeepEqual(ds.Rows, want) {
		t.Errorf("Rows = %v, want %v", ds.Rows, want)
	}

	summary := core.Aggregate(ds, []string{"Hours"})
	if summary.TotalAmount != 7.5 {
		t.Errorf("TotalAmount = %v, want 7.5", summary.TotalAmount)
	}
}

func TestReadXLSX_Invalid(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("not a zip"), "bad.xlsx")
	if err == nil || !strings.Contains(err.Error(), "invalid xlsx") {
		t.Errorf("ReadXLSX() error = %v, want invalid xlsx", err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.csv")
	if err := os.WriteFile(path, []byte("Hours\n1\n2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if ds.Filename != "sessions.csv" || ds.RowCount() != 2 {
		t.Errorf("ds = %+v", ds)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("ReadFile(missing) expected error")
	}
}
