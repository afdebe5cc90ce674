package parser

import (
	"strings"
	"unicode/utf8"

	"fredetl/internal/schema"
)

// DefaultHeaderRows 期间表头默认扫描行数
const DefaultHeaderRows = 20

// PeriodColumns 期间候选列（按发现顺序去重）
type PeriodColumns struct {
	PeriodID string `json:"periodId"`
	Columns  []int  `json:"columns"`
}

// Resolved 是否找到任何候选列
func (p PeriodColumns) Resolved() bool {
	return len(p.Columns) > 0
}

// LocatePeriods 在表头区域为每个期间定位候选列
func LocatePeriods(s *Sheet, periods []schema.Period, headerRows int) []PeriodColumns {
	out := make([]PeriodColumns, len(periods))
	for i := range periods {
		out[i] = PeriodColumns{
			PeriodID: periods[i].ID,
			Columns:  locatePeriod(s, &periods[i], headerRows),
		}
	}
	return out
}

func locatePeriod(s *Sheet, p *schema.Period, headerRows int) []int {
	if headerRows <= 0 {
		headerRows = DefaultHeaderRows
	}
	limit := min(headerRows, s.Rows())

	var cols []int
	seen := make(map[int]bool)
	for r := 0; r < limit; r++ {
		for c := 0; c < s.Cols(); c++ {
			cell := s.Label(r, c)
			if cell == "" || seen[c] {
				continue
			}
			if matchPeriodAlias(cell, p.Aliases()) {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// 单元格包含别名，或别名包含单元格（单元格至少两个字符，避免单字误判）
func matchPeriodAlias(cell string, aliases []string) bool {
	for _, al := range aliases {
		if strings.Contains(cell, al) {
			return true
		}
		if utf8.RuneCountInString(cell) >= 2 && strings.Contains(al, cell) {
			return true
		}
	}
	return false
}
