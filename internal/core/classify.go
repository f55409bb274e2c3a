package core

import "strings"

// ClassifySampleSize is the number of leading rows inspected per column.
const ClassifySampleSize = 10

// DefaultSuggestedColumns is how many numeric columns are preselected for aggregation.
const DefaultSuggestedColumns = 3

// Classify guesses the semantic type of column from the leading rows of sample.
//
// Rules, in precedence order:
//   - numeric when at least 70% of the non-empty sampled values parse as numbers
//   - email when any sampled value contains '@'
//   - date when any sampled value contains '/'
//   - text otherwise, including when every sampled value is empty
func Classify(column string, sample []Row) FieldType {
	if len(sample) > ClassifySampleSize {
		sample = sample[:ClassifySampleSize]
	}

	var nonEmpty, numeric int
	var hasAt, hasSlash bool

	for _, row := range sample {
		cell := row.Cell(column)
		if cell.Kind == CellEmpty {
			continue
		}
		nonEmpty++
		if cell.IsNumber() {
			numeric++
		}
		if strings.Contains(cell.Raw, "@") {
			hasAt = true
		}
		if strings.Contains(cell.Raw, "/") {
			hasSlash = true
		}
	}

	if nonEmpty == 0 {
		return FieldText
	}

	// numeric/nonEmpty >= 0.7 without float rounding
	if numeric*10 >= nonEmpty*7 {
		return FieldNumeric
	}
	if hasAt {
		return FieldEmail
	}
	if hasSlash {
		return FieldDate
	}
	return FieldText
}

// ClassifyFields classifies every header of ds, in header order.
func ClassifyFields(ds Dataset) []FieldInfo {
	sample := ds.Sample(ClassifySampleSize)
	fields := make([]FieldInfo, 0, len(ds.Headers))
	for _, h := range ds.Headers {
		fields = append(fields, FieldInfo{Name: h, Type: Classify(h, sample)})
	}
	return fields
}

// SuggestColumns returns up to limit headers whose sampled values contain at
// least one number. The result is the default column selection offered to users.
func SuggestColumns(ds Dataset, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestedColumns
	}

	sample := ds.Sample(ClassifySampleSize)
	var out []string
	for _, h := range ds.Headers {
		if len(out) == limit {
			break
		}
		for _, row := range sample {
			if row.Cell(h).IsNumber() {
				out = append(out, h)
				break
			}
		}
	}
	return out
}
