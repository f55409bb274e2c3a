// Package ingest turns uploaded CSV and XLSX files into core.Dataset values.
//
// The first non-empty record is the header row. Blank lines are skipped and
// ragged rows are tolerated: missing trailing cells are absent from the row
// and extra cells beyond the header are dropped. Every cell is cleaned of
// spreadsheet export artifacts with core.CleanCell.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// DefaultMaxFileSize bounds how much of an upload is read.
const DefaultMaxFileSize = 10 << 20

// ErrFileTooLarge is returned when the input exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrUnsupportedType is returned for file extensions other than CSV or XLSX.
var ErrUnsupportedType = errors.New("unsupported file type")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies an input encoding.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

// DetectFormat picks the reader for filename by extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnsupportedType, filepath.Ext(filename))
	}
}

// Read parses r in the format implied by filename, reading at most maxBytes
// (DefaultMaxFileSize when maxBytes <= 0).
func Read(r io.Reader, filename string, maxBytes int64) (core.Dataset, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return core.Dataset{}, err
	}

	if format == FormatCSV {
		return readCSV(r, filename, maxBytes)
	}

	// Workbooks are zip archives and need random access.
	data, err := readLimited(r, maxBytes)
	if err != nil {
		return core.Dataset{}, err
	}
	return ReadXLSX(bytes.NewReader(data), filename)
}

// ReadFile reads and parses the file at path.
func ReadFile(path string) (core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, filepath.Base(path), 0)
}

// ReadCSV parses comma-separated data from r, up to DefaultMaxFileSize bytes.
func ReadCSV(r io.Reader, filename string) (core.Dataset, error) {
	return readCSV(r, filename, 0)
}

func readCSV(r io.Reader, filename string, maxBytes int64) (core.Dataset, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	counter := &countingReader{r: io.LimitReader(r, maxBytes+1)}

	cr := csv.NewReader(newUTF8Sanitizer(skipBOM(counter)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if counter.n > maxBytes {
		return core.Dataset{}, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxBytes)
	}
	if err != nil {
		return core.Dataset{}, fmt.Errorf("invalid csv: %w", err)
	}
	return buildDataset(records, filename), nil
}

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader, filename string) (core.Dataset, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return core.Dataset{}, fmt.Errorf("invalid xlsx: workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return core.Dataset{}, fmt.Errorf("invalid xlsx: read sheet %q: %w", sheets[0], err)
	}
	return buildDataset(rows, filename), nil
}

// buildDataset maps records onto the header row. The result may have no
// headers or no rows; core.ValidateDataset decides whether that is usable.
func buildDataset(records [][]string, filename string) core.Dataset {
	ds := core.Dataset{Filename: filename, Rows: []core.Row{}}

	i := 0
	for ; i < len(records); i++ {
		if !isEmptyRow(records[i]) {
			break
		}
	}
	if i == len(records) {
		return ds
	}

	header := records[i]
	ds.Headers = make([]string, len(header))
	for j, h := range header {
		ds.Headers[j] = core.CleanCell(h)
	}

	for _, rec := range records[i+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make(core.Row, len(ds.Headers))
		for j, h := range ds.Headers {
			if j >= len(rec) {
				break
			}
			row[h] = core.CleanCell(rec[j])
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxBytes)
	}
	return data, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
