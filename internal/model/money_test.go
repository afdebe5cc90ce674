package model_test

import (
	"testing"

	"fredetl/internal/model"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want float64
	}{
		{1234.567, 1234.57},
		{-1234.561, -1234.56},
		{0.125, 0.12},
		{0.375, 0.38},
		{1.115, 1.11},
		{100, 100},
	}
	for _, tc := range cases {
		if got := model.Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSum(t *testing.T) {
	t.Parallel()

	if got := model.Sum(0.1, 0.2); got != 0.3 {
		t.Fatalf("Sum=%v, want 0.3", got)
	}
	if got := model.Sum(); got != 0 {
		t.Fatalf("Sum()=%v, want 0", got)
	}
}

func TestGridPadsShortRows(t *testing.T) {
	t.Parallel()

	g := model.NewGrid([][]string{{"a", "b", "c"}, {"d"}})
	if g.Rows() != 2 || g.Cols() != 3 {
		t.Fatalf("size=%dx%d, want 2x3", g.Rows(), g.Cols())
	}
	if got := g.Cell(1, 2); got != "" {
		t.Fatalf("Cell(1,2)=%q, want empty", got)
	}
	if got := g.Cell(5, 5); got != "" {
		t.Fatalf("Cell(5,5)=%q, want empty", got)
	}
}

func TestValueSetAbsentDefault(t *testing.T) {
	t.Parallel()

	vs := model.NewValueSet()
	v := vs.Get("资产总计", "closing")
	if v.Value != 0 || v.Provenance != model.ProvenanceAbsent || v.Coord != nil {
		t.Fatalf("absent value=%+v", v)
	}

	vs.SetExtracted("资产总计", "closing", 10, model.Coord{Row: 3, Col: 2})
	vs.SetDerived("资产总计", "closing", 12)
	got := vs.Get("资产总计", "closing")
	if got.Provenance != model.ProvenanceDerived || got.Coord != nil || got.Value != 12 {
		t.Fatalf("derived value=%+v", got)
	}
	if hit, ok := vs.Hit("资产总计", "closing"); !ok || hit.Row != 3 {
		t.Fatalf("hit=%v,%v", hit, ok)
	}
}
