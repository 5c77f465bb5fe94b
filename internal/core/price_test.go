package core

import (
	"errors"
	"testing"
)

func TestParsePriceValues(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"20", 20},
		{"12.50+3-1.25", 14.25},
		{"12,50", 12.5},
		{"-5+10", 5},
		{" 7 + 3 ", 10},
		{"0.1+0.2", 0.3},
		{"5.", 5},
	}
	for i, tc := range cases {
		got, err := ParsePrice(tc.in)
		if err != nil {
			t.Fatalf("case %d (%q): unexpected error %v", i, tc.in, err)
		}
		if got.Mode != ModeValue {
			t.Fatalf("case %d (%q): expected value mode, got %s", i, tc.in, got.Mode)
		}
		if got.Amount != tc.want {
			t.Fatalf("case %d (%q): expected %v, got %v", i, tc.in, tc.want, got.Amount)
		}
	}
}

func TestParsePriceFormulas(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"=5+3.1", "=5+3.1"},
		{"=12,50 + 3", "=12.50+3"},
		{"=-2+4", "=-2+4"},
		{"=7", "=7"},
	}
	for i, tc := range cases {
		got, err := ParsePrice(tc.in)
		if err != nil {
			t.Fatalf("case %d (%q): unexpected error %v", i, tc.in, err)
		}
		if got.Mode != ModeFormula {
			t.Fatalf("case %d (%q): expected formula mode, got %s", i, tc.in, got.Mode)
		}
		if got.Formula != tc.want {
			t.Fatalf("case %d (%q): expected %q, got %q", i, tc.in, tc.want, got.Formula)
		}
	}
}

func TestParsePriceRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"12..5",
		"5++3",
		"5+-3",
		"abc",
		"1.234",
		"=",
		"=1.234",
		"=A1+5",
		"+",
		"5+",
		"3*4",
	}
	for i, in := range cases {
		if _, err := ParsePrice(in); !errors.Is(err, ErrInvalidPrice) {
			t.Fatalf("case %d (%q): expected ErrInvalidPrice, got %v", i, in, err)
		}
	}
}

func TestEvaluateExpressionRounds(t *testing.T) {
	got, err := EvaluateExpression("1.11+2.22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3.33 {
		t.Fatalf("expected 3.33, got %v", got)
	}
}
