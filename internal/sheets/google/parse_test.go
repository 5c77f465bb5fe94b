package google

import (
	"reflect"
	"testing"

	"wydatki/internal/core"
)

func TestParseTaxonomy(t *testing.T) {
	values := []string{
		groupMarker,
		"Jedzenie",
		"Zakupy spożywcze",
		"Restauracje",
		".",
		groupMarker,
		"Dom",
		"Czynsz",
		"",
		"Prąd",
	}

	got := parseTaxonomy(values)
	want := core.Taxonomy{
		{Name: "Jedzenie", Items: []string{"Zakupy spożywcze", "Restauracje"}},
		{Name: "Dom", Items: []string{"Czynsz", "Prąd"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseTaxonomy mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseTaxonomyIgnoresItemsBeforeFirstGroup(t *testing.T) {
	got := parseTaxonomy([]string{"Sierota", groupMarker, "Dom", "Czynsz"})
	want := core.Taxonomy{{Name: "Dom", Items: []string{"Czynsz"}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseTaxonomyEmptyInput(t *testing.T) {
	if got := parseTaxonomy(nil); len(got) != 0 {
		t.Fatalf("expected empty taxonomy, got %+v", got)
	}
}

func TestParseCellValue(t *testing.T) {
	cases := []struct {
		raw  string
		want core.DayAmountEntry
	}{
		{"", core.DayAmountEntry{}},
		{"12.5", core.DayAmountEntry{Amount: 12.5}},
		{"12,50", core.DayAmountEntry{Amount: 12.5}},
		{"1 234,56", core.DayAmountEntry{Amount: 1234.56}},
		{"=5+3.1", core.DayAmountEntry{Formula: "=5+3.1"}},
		{"abc", core.DayAmountEntry{}},
		{"12.345", core.DayAmountEntry{Amount: 12.35}},
	}
	for i, tc := range cases {
		if got := parseCellValue(tc.raw); got != tc.want {
			t.Fatalf("case %d (%q): got %+v, want %+v", i, tc.raw, got, tc.want)
		}
	}
}

func TestColumnName(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{1, "A"},
		{8, "H"},
		{9, "I"},  // day 1
		{26, "Z"},
		{27, "AA"},
		{39, "AM"}, // day 31
	}
	for _, tc := range cases {
		if got := columnName(tc.index); got != tc.want {
			t.Fatalf("columnName(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestFlattenColumnKeepsRowPositions(t *testing.T) {
	values := [][]interface{}{
		{"a"},
		{},
		{"c"},
	}
	got := flattenColumn(values)
	want := []string{"a", "", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
