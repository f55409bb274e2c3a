package core

import (
	"reflect"
	"strconv"
	"testing"
)

func column(name string, values ...string) []Row {
	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row{name: v}
	}
	return rows
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   FieldType
	}{
		{"all numeric", []string{"1", "2.5", "3"}, FieldNumeric},
		{"numeric precedes email", []string{"1", "2", "x@y.com", "3"}, FieldNumeric},
		{"exactly seventy percent", []string{"1", "2", "3", "4", "5", "6", "7", "a", "b", "c"}, FieldNumeric},
		{"below seventy percent", []string{"1", "2", "a", "b"}, FieldText},
		{"email", []string{"a@b.com", "c@d.org"}, FieldEmail},
		{"email precedes date", []string{"a@b.com", "1/2/2025"}, FieldEmail},
		{"date", []string{"01/02/2025", "03/04/2025"}, FieldDate},
		{"iso date is text", []string{"2025-01-02", "2025-01-03"}, FieldText},
		{"text", []string{"alpha", "beta"}, FieldText},
		{"all empty", []string{"", " ", ""}, FieldText},
		{"empties ignored in ratio", []string{"", "", "", "5", "6"}, FieldNumeric},
		{"no rows", nil, FieldText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify("c", column("c", tt.values...)); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestClassify_UsesFirstTenRowsOnly(t *testing.T) {
	values := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		values = append(values, "name")
	}
	for i := 0; i < 10; i++ {
		values = append(values, strconv.Itoa(i))
	}

	if got := Classify("c", column("c", values...)); got != FieldText {
		t.Errorf("Classify() = %v, want %v", got, FieldText)
	}
}

func TestClassify_MissingColumnIsText(t *testing.T) {
	rows := []Row{{"Other": "1"}, {"Other": "2"}}
	if got := Classify("Hours", rows); got != FieldText {
		t.Errorf("Classify() = %v, want %v", got, FieldText)
	}
}

func TestClassifyFields(t *testing.T) {
	ds := Dataset{
		Headers: []string{"Client", "Email", "Date", "Hours"},
		Rows: []Row{
			{"Client": "Ann", "Email": "ann@example.com", "Date": "01/02/2025", "Hours": "1"},
			{"Client": "Bob", "Email": "bob@example.com", "Date": "01/03/2025", "Hours": "1.5"},
		},
	}

	want := []FieldInfo{
		{Name: "Client", Type: FieldText},
		{Name: "Email", Type: FieldEmail},
		{Name: "Date", Type: FieldDate},
		{Name: "Hours", Type: FieldNumeric},
	}
	if got := ClassifyFields(ds); !reflect.DeepEqual(got, want) {
		t.Errorf("ClassifyFields() = %v, want %v", got, want)
	}
}

func TestSuggestColumns(t *testing.T) {
	ds := Dataset{
		Headers: []string{"Client", "Hours", "Rate", "Notes", "Fee", "Extra"},
		Rows: []Row{
			{"Client": "Ann", "Hours": "1", "Rate": "75", "Notes": "n/a", "Fee": "", "Extra": "9"},
			{"Client": "Bob", "Hours": "x", "Rate": "80", "Notes": "", "Fee": "10", "Extra": "9"},
		},
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"default limit", 0, []string{"Hours", "Rate", "Fee"}},
		{"limit one", 1, []string{"Hours"}},
		{"limit above available", 10, []string{"Hours", "Rate", "Fee", "Extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestColumns(ds, tt.limit); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SuggestColumns(%d) = %v, want %v", tt.limit, got, tt.want)
			}
		})
	}
}

func TestFieldType_Text(t *testing.T) {
	for _, ft := range []FieldType{FieldText, FieldDate, FieldNumeric, FieldEmail} {
		b, err := ft.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error: %v", ft, err)
		}
		var back FieldType
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", b, err)
		}
		if back != ft {
			t.Errorf("round trip of %v = %v", ft, back)
		}
	}

	var ft FieldType
	if err := ft.UnmarshalText([]byte("currency")); err == nil {
		t.Error("UnmarshalText(currency) expected error")
	}
}
