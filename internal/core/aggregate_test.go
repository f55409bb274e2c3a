package core

import (
	"reflect"
	"testing"
)

func sessionsDataset() Dataset {
	return Dataset{
		Headers: []string{"Client", "Hours", "Rate", "Fee"},
		Rows: []Row{
			{"Client": "Ann", "Hours": "1.5", "Rate": "75", "Fee": "112.5"},
			{"Client": "Bob", "Hours": "2", "Rate": "80", "Fee": ""},
			{"Client": "Cyd", "Hours": "n/a", "Rate": "90", "Fee": "90"},
			{"Client": "Dee", "Hours": " 0.5 ", "Rate": "1e2", "Fee": "-10"},
		},
	}
}

func TestAggregate_HoursScenario(t *testing.T) {
	ds := Dataset{
		Headers: []string{"Hours", "Rate"},
		Rows: []Row{
			{"Hours": "3", "Rate": "75"},
			{"Hours": "4", "Rate": "75"},
		},
	}

	got := Aggregate(ds, []string{"Hours"})

	want := ColumnStatistic{Sum: 7, Count: 2, Average: 3.5, Min: 3, Max: 4}
	if got.Stats["Hours"] != want {
		t.Errorf("Stats[Hours] = %+v, want %+v", got.Stats["Hours"], want)
	}
	if got.TotalAmount != 7 {
		t.Errorf("TotalAmount = %v, want 7", got.TotalAmount)
	}
	if !reflect.DeepEqual(got.Columns, []string{"Hours"}) {
		t.Errorf("Columns = %v, want [Hours]", got.Columns)
	}
}

func TestAggregate_SkipsNonNumeric(t *testing.T) {
	got := Aggregate(sessionsDataset(), []string{"Hours", "Fee"})

	hours := got.Stats["Hours"]
	if hours.Count != 3 || hours.Sum != 4 || hours.Min != 0.5 || hours.Max != 2 {
		t.Errorf("Stats[Hours] = %+v", hours)
	}

	fee := got.Stats["Fee"]
	want := ColumnStatistic{Sum: 192.5, Count: 3, Average: 192.5 / 3, Min: -10, Max: 112.5}
	if fee != want {
		t.Errorf("Stats[Fee] = %+v, want %+v", fee, want)
	}
}

func TestAggregate_EmptyColumnBoundary(t *testing.T) {
	ds := Dataset{
		Headers: []string{"Notes"},
		Rows:    []Row{{"Notes": "late"}, {"Notes": ""}, {}},
	}

	got := Aggregate(ds, []string{"Notes", "Missing"})

	for _, c := range []string{"Notes", "Missing"} {
		if stat := got.Stats[c]; stat != (ColumnStatistic{}) {
			t.Errorf("Stats[%s] = %+v, want all zero", c, stat)
		}
	}
	if got.TotalAmount != 0 {
		t.Errorf("TotalAmount = %v, want 0", got.TotalAmount)
	}
}

func TestAggregate_EmptySelection(t *testing.T) {
	got := Aggregate(sessionsDataset(), nil)

	if len(got.Stats) != 0 || len(got.Columns) != 0 {
		t.Errorf("Aggregate(nil) = %+v, want empty", got)
	}
	if got.TotalAmount != 0 {
		t.Errorf("TotalAmount = %v, want 0", got.TotalAmount)
	}
}

func TestAggregate_Additivity(t *testing.T) {
	ds := sessionsDataset()
	selections := [][]string{
		{"Hours"},
		{"Hours", "Rate"},
		{"Rate", "Fee", "Hours"},
		{"Client", "Fee"},
	}

	for _, sel := range selections {
		var want float64
		for _, c := range sel {
			want += Aggregate(ds, []string{c}).Stats[c].Sum
		}
		if got := Aggregate(ds, sel).TotalAmount; got != want {
			t.Errorf("Aggregate(%v).TotalAmount = %v, want %v", sel, got, want)
		}
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	ds := sessionsDataset()
	sel := []string{"Fee", "Rate", "Hours"}

	first := Aggregate(ds, sel)
	second := Aggregate(ds, sel)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregate not idempotent: %+v vs %+v", first, second)
	}
}

func TestAggregate_DuplicateSelection(t *testing.T) {
	ds := sessionsDataset()

	got := Aggregate(ds, []string{"Rate", "Hours", "Rate"})

	if !reflect.DeepEqual(got.Columns, []string{"Rate", "Hours"}) {
		t.Errorf("Columns = %v, want [Rate Hours]", got.Columns)
	}
	want := got.Stats["Rate"].Sum + got.Stats["Hours"].Sum
	if got.TotalAmount != want {
		t.Errorf("TotalAmount = %v, want %v", got.TotalAmount, want)
	}
}

func TestAggregate_CountNeverExceedsRows(t *testing.T) {
	ds := sessionsDataset()
	got := Aggregate(ds, ds.Headers)
	for c, stat := range got.Stats {
		if stat.Count > ds.RowCount() {
			t.Errorf("Stats[%s].Count = %d exceeds %d rows", c, stat.Count, ds.RowCount())
		}
	}
}
