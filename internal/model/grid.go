package model

// Coord 网格单元坐标（行、列均从 0 开始）
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// NoCoord 未命中时的无效坐标
var NoCoord = Coord{Row: -1, Col: -1}

// Valid 坐标是否指向网格内的单元格
func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Col >= 0
}

// Grid 二维单元格文本表，行长度一致（短行补空串）
type Grid struct {
	cells [][]string
	cols  int
}

// NewGrid 由原始行构建网格，按最长行补齐
func NewGrid(rows [][]string) Grid {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, cols)
		copy(padded, row)
		cells[i] = padded
	}
	return Grid{cells: cells, cols: cols}
}

// Rows 行数
func (g Grid) Rows() int { return len(g.cells) }

// Cols 列数
func (g Grid) Cols() int { return g.cols }

// Empty 网格是否没有任何单元格
func (g Grid) Empty() bool { return len(g.cells) == 0 || g.cols == 0 }

// Cell 读取单元格文本，越界返回空串
func (g Grid) Cell(r, c int) string {
	if r < 0 || r >= len(g.cells) || c < 0 || c >= g.cols {
		return ""
	}
	return g.cells[r][c]
}

// Row 返回某行副本
func (g Grid) Row(r int) []string {
	if r < 0 || r >= len(g.cells) {
		return nil
	}
	out := make([]string, g.cols)
	copy(out, g.cells[r])
	return out
}

// Raw 返回全部行副本（用于持久化和透视展示）
func (g Grid) Raw() [][]string {
	out := make([][]string, len(g.cells))
	for i := range g.cells {
		out[i] = g.Row(i)
	}
	return out
}
