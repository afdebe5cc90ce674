package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"fredetl/internal/model"
)

const (
	// SheetName 导出工作表名
	SheetName = "Standard"
	// ItemHeader 首列表头
	ItemHeader = "标准科目"

	numberFormat = "#,##0.00"
)

// ErrUnsupportedFormat 不支持的导出格式
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats 支持的导出格式
func Formats() []string {
	return []string{"xlsx", "csv"}
}

// FileName 导出文件名，例如 Standard_BS_Report.xlsx
func FileName(short, format string) string {
	if short == "" {
		short = "Table"
	}
	return fmt.Sprintf("Standard_%s_Report.%s", short, strings.ToLower(format))
}

// Write 按格式写出标准化表
func Write(w io.Writer, t *model.Table, format string) error {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "xlsx":
		return WriteXLSX(w, t)
	case "csv":
		return WriteCSV(w, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// header 表头：标准科目 + 各期间标签
func header(t *model.Table) []string {
	out := make([]string, 0, len(t.Periods)+1)
	out = append(out, ItemHeader)
	for _, p := range t.Periods {
		label := p.Label
		if label == "" {
			label = p.ID
		}
		out = append(out, label)
	}
	return out
}

// Workbook 生成导出工作簿；调用方负责 Close
func Workbook(t *model.Table) (*excelize.File, error) {
	if t == nil {
		return nil, errors.New("nil table")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("重命名工作表失败: %w", err)
	}
	if err := fillWorkbook(f, t); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func fillWorkbook(f *excelize.File, t *model.Table) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建表头样式失败: %w", err)
	}
	numFmt := numberFormat
	valueStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("创建数值样式失败: %w", err)
	}

	head := header(t)
	cells := make([]interface{}, len(head))
	for i, h := range head {
		cells[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &cells); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(head))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("设置表头样式失败: %w", err)
	}

	for i, row := range t.Rows {
		line := make([]interface{}, 0, len(row.Values)+1)
		line = append(line, row.ItemID)
		for _, v := range row.Values {
			line = append(line, v)
		}
		axis := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(SheetName, axis, &line); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+2, err)
		}
	}
	if len(t.Rows) > 0 && len(head) > 1 {
		end := lastCol + strconv.Itoa(len(t.Rows)+1)
		if err := f.SetCellStyle(SheetName, "B2", end, valueStyle); err != nil {
			return fmt.Errorf("设置数值格式失败: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 32); err != nil {
		return err
	}
	if len(head) > 1 {
		if err := f.SetColWidth(SheetName, "B", lastCol, 18); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX 写出 xlsx
func WriteXLSX(w io.Writer, t *model.Table) error {
	f, err := Workbook(t)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写出 xlsx 失败: %w", err)
	}
	return nil
}

// WriteCSV 写出 csv（带 UTF-8 BOM，便于 Excel 直接打开），数值保留两位小数
func WriteCSV(w io.Writer, t *model.Table) error {
	if t == nil {
		return errors.New("nil table")
	}
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header(t)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		line := make([]string, 0, len(row.Values)+1)
		line = append(line, row.ItemID)
		for _, v := range row.Values {
			line = append(line, strconv.FormatFloat(v, 'f', 2, 64))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
