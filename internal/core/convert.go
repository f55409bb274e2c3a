package core

// convert.go turns raw uploaded text into typed cells.
//
// Every numeric read in the package goes through ParseCell so that empty and
// non-numeric values are classified once, explicitly, instead of being coerced
// at each call site. Parsing is locale-agnostic: no thousands separators, no
// currency symbols, no accounting parentheses.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex accepts plain decimal and scientific notation only.
// It rejects "Inf", "NaN", hex floats and underscores that strconv would accept.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CellKind says which variant of Cell is populated.
type CellKind int

const (
	// CellEmpty marks an absent or blank value.
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is a raw value classified at the dataset boundary.
type Cell struct {
	Kind   CellKind
	Raw    string  // trimmed input, empty for CellEmpty
	Number float64 // set only for CellNumber
}

// IsNumber reports whether the cell holds a finite number.
func (c Cell) IsNumber() bool {
	return c.Kind == CellNumber
}

// ParseCell classifies raw text as empty, number or text.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{Kind: CellEmpty}
	}

	if !numericRegex.MatchString(s) {
		return Cell{Kind: CellText, Raw: s}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Cell{Kind: CellText, Raw: s}
	}

	return Cell{Kind: CellNumber, Raw: s, Number: f}
}

// CleanCell removes spreadsheet export artifacts from a cell value:
// surrounding whitespace, the Excel formula wrapper (="...") and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
