package google

import (
	"testing"
)

func sampleGrid() *monthGrid {
	return newMonthGrid(79, [][]interface{}{
		{"Jedzenie"},
		{"."},
		{"Dom"},
		{},
		{"Transport"},
	})
}

func TestMonthGridCategoryRow(t *testing.T) {
	mg := sampleGrid()

	cases := []struct {
		category string
		want     int
	}{
		{"Jedzenie", 79},
		{"Dom", 81},
		{"Transport", 83},
		{" Dom ", 81}, // labels are matched trimmed
		{"Nieznana", -1},
		{".", -1}, // filler rows never resolve
		{"", -1},
	}
	for _, tc := range cases {
		if got := mg.categoryRow(tc.category); got != tc.want {
			t.Fatalf("categoryRow(%q) = %d, want %d", tc.category, got, tc.want)
		}
	}
}

func TestMonthGridKeepsRawRows(t *testing.T) {
	mg := sampleGrid()
	row, ok := mg.rows[79]
	if !ok || len(row) != 1 || row[0] != "Jedzenie" {
		t.Fatalf("raw row 79 should be memoized, got %v ok=%v", row, ok)
	}
	if _, ok := mg.rows[82]; !ok {
		t.Fatal("empty rows keep their position in the memo")
	}
}

func TestGridCacheInvalidateIsPerMonth(t *testing.T) {
	g := newGridCache()
	g.put("Marzec", sampleGrid())
	g.put("Kwiecień", sampleGrid())

	g.invalidate("Marzec")

	if _, ok := g.month("Marzec"); ok {
		t.Fatal("invalidated month should be gone")
	}
	if _, ok := g.month("Kwiecień"); !ok {
		t.Fatal("other months must stay memoized")
	}

	// Invalidating an absent month is a no-op.
	g.invalidate("Maj")
}
