package parser_test

import (
	"testing"

	"fredetl/internal/parser"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"(1,234.56)", -1234.56, true},
		{"（1,234.56）", -1234.56, true},
		{"123", 0, false},
		{"4000", 4000, true},
		{"1,234,567", 1234567, true},
		{"-", 0, true},
		{"", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"12.00", 0, false},
		{"400.00", 0, false},
		{"401.00", 401, true},
		{"-400", 0, false},
		{"-400.00", 0, false},
		{"1.00", 0, false},
		{"0.50", 0.5, true},
		{"5.5", 5.5, true},
		{"--", 0, false},
		{"注3", 0, false},
		{"附注五", 0, true},
		{"1234.5678", 1234.57, true},
		{"-8,800.10", -8800.1, true},
		{"￥12,000", 12000, true},
	}
	for _, tc := range cases {
		got, ok := parser.ParseAmount(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Fatalf("ParseAmount(%q)=(%v,%v), want (%v,%v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	if got := parser.NormalizeLabel(" 流动资产\n合计　"); got != "流动资产合计" {
		t.Fatalf("NormalizeLabel=%q", got)
	}
	if got := parser.NormalizeLabel("Total Assets"); got != "totalassets" {
		t.Fatalf("NormalizeLabel=%q", got)
	}
}

func TestExtractYearMonth(t *testing.T) {
	t.Parallel()

	y, m, ok := parser.ExtractYearMonth("编制日期：2024年12月31日")
	if !ok || y != 2024 || m != 12 {
		t.Fatalf("got %d-%d %v", y, m, ok)
	}
	if _, _, ok := parser.ExtractYearMonth("2024年13月"); ok {
		t.Fatalf("month 13 should not parse")
	}
}
