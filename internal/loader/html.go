package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxHTMLColumns 单行展开后的最大列数，超出的 colspan 不再补空单元格
const maxHTMLColumns = 1000

// loadHTML 读取 <table>，多个表格时取行数最多的一个；colspan 展开为空单元格
// 嵌套表格各自成表，外层表格只取自己的行和单元格
func loadHTML(data []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var tables [][][]string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
			return tr.Closest("table").IsSelection(table)
		}).Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cellText(cell))
				for pad := colspan(cell) - 1; pad > 0 && len(cells) < maxHTMLColumns; pad-- {
					cells = append(cells, "")
				}
			})
			rows = append(rows, cells)
		})
		tables = append(tables, rows)
	})
	return largest(tables), nil
}

// cellText 单元格文本，不含嵌套表格的内容
func cellText(cell *goquery.Selection) string {
	if cell.Find("table").Length() == 0 {
		return strings.TrimSpace(cell.Text())
	}
	c := cell.Clone()
	c.Find("table").Remove()
	return strings.TrimSpace(c.Text())
}

// colspan 解析 colspan 属性；非法或非正数按 1 处理
func colspan(cell *goquery.Selection) int {
	span, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr("colspan", "1")))
	if err != nil || span < 1 {
		return 1
	}
	return min(span, maxHTMLColumns)
}
