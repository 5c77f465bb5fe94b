package core

import (
	"testing"
	"time"
)

func TestTaxonomyValidate(t *testing.T) {
	cases := []struct {
		name string
		tax  Taxonomy
		ok   bool
	}{
		{"valid", Taxonomy{{Name: "Jedzenie", Items: []string{"Zakupy", "Restauracje"}}}, true},
		{"empty group list", Taxonomy{}, false},
		{"empty group name", Taxonomy{{Name: "  ", Items: []string{"a"}}}, false},
		{"duplicate group", Taxonomy{{Name: "Dom"}, {Name: "Dom"}}, false},
		{"empty item", Taxonomy{{Name: "Dom", Items: []string{""}}}, false},
		{"no items is fine", Taxonomy{{Name: "Dom"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tax.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestWriteRequestValidate(t *testing.T) {
	base := WriteRequest{Category: "Jedzenie", Day: 14, Month: "Marzec", Mode: ModeValue, Amount: 20}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*WriteRequest)
	}{
		{"empty category", func(r *WriteRequest) { r.Category = " " }},
		{"day zero", func(r *WriteRequest) { r.Day = 0 }},
		{"day out of range", func(r *WriteRequest) { r.Day = 32 }},
		{"empty month", func(r *WriteRequest) { r.Month = "" }},
		{"bad mode", func(r *WriteRequest) { r.Mode = "other" }},
		{"formula without equals", func(r *WriteRequest) { r.Mode = ModeFormula; r.Formula = "5+3" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{1.005, 1.0}, // float64 1.005 is just below the midpoint
		{14.255, 14.26},
		{-1.005, -1.0},
		{2, 2},
	}
	for i, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("case %d: Round2(%v) = %v, want %v", i, tc.in, got, tc.want)
		}
	}
}

func TestCurrentMonth(t *testing.T) {
	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	if got := CurrentMonth(jan); got != "Styczeń" {
		t.Fatalf("expected Styczeń, got %s", got)
	}
	dec := time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC)
	if got := CurrentMonth(dec); got != "Grudzień" {
		t.Fatalf("expected Grudzień, got %s", got)
	}
}

func TestDayAmountsClone(t *testing.T) {
	orig := DayAmounts{"Dom": {Amount: 10}}
	clone := orig.Clone()
	clone["Dom"] = DayAmountEntry{Amount: 99}
	if orig["Dom"].Amount != 10 {
		t.Fatal("clone must not share storage with the original")
	}
	if DayAmounts(nil).Clone() != nil {
		t.Fatal("nil clone should stay nil")
	}
}
