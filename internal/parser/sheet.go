package parser

import "fredetl/internal/model"

// Sheet 预先归一化标签文本的网格，一次运行内只读
type Sheet struct {
	grid   model.Grid
	labels [][]string
}

// NewSheet 从网格构建 Sheet
func NewSheet(g model.Grid) *Sheet {
	labels := make([][]string, g.Rows())
	for r := 0; r < g.Rows(); r++ {
		row := make([]string, g.Cols())
		for c := 0; c < g.Cols(); c++ {
			row[c] = NormalizeLabel(g.Cell(r, c))
		}
		labels[r] = row
	}
	return &Sheet{grid: g, labels: labels}
}

// Rows 行数
func (s *Sheet) Rows() int { return s.grid.Rows() }

// Cols 列数
func (s *Sheet) Cols() int { return s.grid.Cols() }

// Raw 原始单元格文本
func (s *Sheet) Raw(r, c int) string { return s.grid.Cell(r, c) }

// Label 归一化后的单元格文本；空单元格返回空串
func (s *Sheet) Label(r, c int) string {
	l := s.labels[r][c]
	if l == "nan" {
		return ""
	}
	return l
}

// FindReportPeriod 在表头区域查找编制年月，取最大的年月组合
func FindReportPeriod(s *Sheet, headerRows int) (year, month int, found bool) {
	limit := min(headerRows, s.Rows())
	for r := 0; r < limit; r++ {
		for c := 0; c < s.Cols(); c++ {
			y, m, ok := ExtractYearMonth(s.Raw(r, c))
			if !ok {
				continue
			}
			if y > year || (y == year && m > month) {
				year, month, found = y, m, true
			}
		}
	}
	return year, month, found
}
