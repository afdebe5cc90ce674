package parser

import (
	"fredetl/internal/model"
	"fredetl/internal/schema"
)

// CellSet 已被占用的单元格集合（利润表按期间维护）
type CellSet map[model.Coord]struct{}

// Has 是否已占用
func (cs CellSet) Has(c model.Coord) bool {
	if cs == nil {
		return false
	}
	_, ok := cs[c]
	return ok
}

// Add 标记占用
func (cs CellSet) Add(c model.Coord) {
	cs[c] = struct{}{}
}

// Match 单个科目在单个期间的命中结果
type Match struct {
	Value float64
	At    model.Coord
	Found bool
	// Rejected 取值过程中跳过的不可用单元格数
	Rejected int
}

// MatchItem 按行优先顺序查找第一个满足全部规则的标签单元格并取值
// consumed 为 nil 时不做占用检查
func MatchItem(s *Sheet, sc *schema.Schema, item *schema.LineItem, columns []int, consumed CellSet) Match {
	miss := Match{At: model.NoCoord}
	if len(columns) == 0 {
		return miss
	}

	for r := 0; r < s.Rows(); r++ {
		for c := 0; c < s.Cols(); c++ {
			label := s.Label(r, c)
			if label == "" || !item.MatchLabel(label) {
				continue
			}
			if !AcceptRow(label, sc, item) {
				continue
			}

			m := findValue(s, r, c, columns, consumed)
			miss.Rejected += m.Rejected
			if m.Found {
				m.Rejected = miss.Rejected
				return m
			}
		}
	}
	return miss
}

// findValue 在本行及下一行取值：
// 先看候选期间列（及其右侧一列），再从标签列右侧逐列扫描
func findValue(s *Sheet, row, col int, columns []int, consumed CellSet) Match {
	var m Match
	try := func(r, c int) bool {
		at := model.Coord{Row: r, Col: c}
		if consumed.Has(at) {
			return false
		}
		v, ok := ParseAmount(s.Raw(r, c))
		if !ok {
			m.Rejected++
			return false
		}
		m.Value, m.At, m.Found = v, at, true
		return true
	}

	for off := 0; off <= 1; off++ {
		r := row + off
		if r >= s.Rows() {
			continue
		}
		for _, tc := range columns {
			if tc < col {
				continue
			}
			for d := 0; d <= 1; d++ {
				if tc+d < s.Cols() && try(r, tc+d) {
					return m
				}
			}
		}
		for bc := col + 1; bc < s.Cols(); bc++ {
			if try(r, bc) {
				return m
			}
		}
	}
	return m
}
