package loader

import (
	"reflect"
	"testing"
)

func TestSplitCells(t *testing.T) {
	t.Parallel()

	runs := []textRun{
		{x: 10, w: 6, s: "货"},
		{x: 16, w: 6, s: "币"},
		{x: 22, w: 6, s: "资金"},
		{x: 200, w: 30, s: "1,500.00"},
		{x: 300, w: 30, s: "1,000.00"},
	}
	got := splitCells(runs, pdfCellGap)
	want := []pdfCell{{x: 10, s: "货币资金"}, {x: 200, s: "1,500.00"}, {x: 300, s: "1,000.00"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCells=%+v, want %+v", got, want)
	}
}

func TestAlignColumns(t *testing.T) {
	t.Parallel()

	rows := [][]pdfCell{
		{{x: 10, s: "项目"}, {x: 198, s: "期末余额"}, {x: 302, s: "年初余额"}},
		{{x: 12, s: "货币资金"}, {x: 205, s: "1,500.00"}, {x: 300, s: "1,000.00"}},
		{{x: 10, s: "应收账款"}, {x: 300, s: "800.50"}},
	}
	got := alignColumns(rows, pdfColumnSnap)
	want := [][]string{
		{"项目", "期末余额", "年初余额"},
		{"货币资金", "1,500.00", "1,000.00"},
		{"应收账款", "", "800.50"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("alignColumns=%v, want %v", got, want)
	}
}
