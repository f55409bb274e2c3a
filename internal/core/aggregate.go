package core

// Aggregate reduces each selected column of ds to a ColumnStatistic.
//
// Only cells that parse as numbers contribute; empty and text cells are
// skipped, so Count may be lower than the row count. A column with no numeric
// values reports zeros for every field. Selecting the same column twice
// aggregates it once, at its first position. Unknown columns read as empty.
//
// Aggregate is pure. ProcessedAt is left zero for the caller to stamp.
func Aggregate(ds Dataset, selected []string) Summary {
	summary := Summary{
		Columns: make([]string, 0, len(selected)),
		Stats:   make(map[string]ColumnStatistic, len(selected)),
	}

	for _, column := range selected {
		if _, seen := summary.Stats[column]; seen {
			continue
		}

		stat := aggregateColumn(ds.Rows, column)
		summary.Columns = append(summary.Columns, column)
		summary.Stats[column] = stat
		summary.TotalAmount += stat.Sum
	}

	return summary
}

func aggregateColumn(rows []Row, column string) ColumnStatistic {
	var stat ColumnStatistic

	for _, row := range rows {
		cell := row.Cell(column)
		if !cell.IsNumber() {
			continue
		}

		v := cell.Number
		if stat.Count == 0 {
			stat.Min, stat.Max = v, v
		} else {
			stat.Min = min(stat.Min, v)
			stat.Max = max(stat.Max, v)
		}
		stat.Sum += v
		stat.Count++
	}

	if stat.Count > 0 {
		stat.Average = stat.Sum / float64(stat.Count)
	}
	return stat
}
