package fuzzy

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestProcess(t *testing.T) {
	if got := Process("  JOSÉ  da-Silva! "); got != "jose da silva" {
		t.Fatalf("got %q", got)
	}
}

func TestRatio(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "aldenir luiz", b: "aldenir luiz", want: 100},
		{name: "one substitution", a: "aldenir luiz", b: "aldenir luis", want: 91.67},
		{name: "both empty", a: "", b: "", want: 100},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Ratio(tc.a, tc.b); !near(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestPartialRatio(t *testing.T) {
	if got := PartialRatio("dantas", "adriano dantas"); got != 100 {
		t.Fatalf("got %v", got)
	}
	if got := PartialRatio("", "x"); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestTokenRatios(t *testing.T) {
	if got := TokenSortRatio("dantas adriano", "adriano dantas"); got != 100 {
		t.Fatalf("sort got %v", got)
	}
	if got := TokenSetRatio("adriano dantas iboca", "adriano dantas"); got != 100 {
		t.Fatalf("set got %v", got)
	}
	if got := TokenSetRatio("", "adriano"); got != 0 {
		t.Fatalf("set empty got %v", got)
	}
	if got := PartialTokenRatio("jose souza", "souza"); got != 100 {
		t.Fatalf("partial token got %v", got)
	}
}

func TestWRatio(t *testing.T) {
	cases := []struct {
		name     string
		a, b     string
		min, max float64
	}{
		{name: "empty", a: "", b: "jose", min: 0, max: 0},
		{name: "identical", a: "andre vieira", b: "andre vieira", min: 100, max: 100},
		{name: "extra nickname token", a: "adriano dantas iboca", b: "adriano dantas", min: 94.99, max: 95.01},
		{name: "ocr letter swap", a: "andre vieiba", b: "andre vieira", min: 91, max: 92},
		{name: "unrelated", a: "jose silva", b: "maria oliveira", min: 0, max: 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WRatio(tc.a, tc.b)
			if got < tc.min || got > tc.max {
				t.Fatalf("got %v want [%v,%v]", got, tc.min, tc.max)
			}
		})
	}
}

func TestExtractOne(t *testing.T) {
	choices := []string{"Maria Oliveira", "ANDRÉ VIEIRA", "Andreia Souza"}
	m, ok := ExtractOne("Andre Vieiba", choices, nil)
	if !ok {
		t.Fatal("no match")
	}
	if m.Index != 1 || m.Candidate != "ANDRÉ VIEIRA" {
		t.Fatalf("match=%+v", m)
	}

	if _, ok := ExtractOne("x", nil, nil); ok {
		t.Fatal("expected no match on empty choices")
	}
}

func TestExtractOneTieKeepsFirst(t *testing.T) {
	constant := func(a, b string) float64 { return 50 }
	m, ok := ExtractOne("jose", []string{"a", "b", "c"}, constant)
	if !ok || m.Index != 0 {
		t.Fatalf("match=%+v", m)
	}
}
