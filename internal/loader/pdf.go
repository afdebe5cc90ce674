package loader

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// pdfCellGap 同一行内两段文字间距超过该值（pt）视为不同单元格
	pdfCellGap = 8.0
	// pdfColumnSnap 单元格起点横坐标相差在该范围内视为同一列
	pdfColumnSnap = 12.0
)

type textRun struct {
	x, w float64
	s    string
}

type pdfCell struct {
	x float64
	s string
}

// loadPDF 按页读取文字行，按横向间距切分单元格，再按列起点对齐；各页依次拼接
func loadPDF(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	if r.NumPage() == 0 {
		return nil, errors.New("pdf has no pages")
	}

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		textRows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		var pageRows [][]pdfCell
		for _, row := range textRows {
			runs := make([]textRun, 0, len(row.Content))
			for _, t := range row.Content {
				runs = append(runs, textRun{x: t.X, w: t.W, s: t.S})
			}
			if cells := splitCells(runs, pdfCellGap); len(cells) > 0 {
				pageRows = append(pageRows, cells)
			}
		}
		rows = append(rows, alignColumns(pageRows, pdfColumnSnap)...)
	}
	return rows, nil
}

// splitCells 把一行文字按间距切成单元格
func splitCells(runs []textRun, gap float64) []pdfCell {
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].x < runs[j].x })

	var (
		cells []pdfCell
		cur   strings.Builder
		start float64
		end   = math.Inf(-1)
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			cells = append(cells, pdfCell{x: start, s: s})
		}
		cur.Reset()
	}

	for _, run := range runs {
		if run.x-end > gap {
			flush()
			start = run.x
		}
		cur.WriteString(run.s)
		end = math.Max(end, run.x+run.w)
	}
	flush()
	return cells
}

// alignColumns 收集整页单元格起点，聚类为列锚点后放入对应列
func alignColumns(rows [][]pdfCell, snap float64) [][]string {
	var xs []float64
	for _, row := range rows {
		for _, c := range row {
			xs = append(xs, c.x)
		}
	}
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)

	anchors := []float64{xs[0]}
	for _, x := range xs[1:] {
		if x-anchors[len(anchors)-1] > snap {
			anchors = append(anchors, x)
		}
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(anchors))
		for _, c := range row {
			// 所属锚点是不大于 x 的最大锚点
			col := sort.SearchFloat64s(anchors, c.x)
			if col == len(anchors) || anchors[col] != c.x {
				col--
			}
			if line[col] != "" {
				line[col] += " " + c.s
			} else {
				line[col] = c.s
			}
		}
		out[i] = line
	}
	return out
}
