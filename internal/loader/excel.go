package loader

import (
	"bytes"
	"fmt"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

func loadXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sheets [][][]string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets = append(sheets, rows)
	}
	return largest(sheets), nil
}

// loadXLS 旧版 Excel；很多系统导出的 .xls 其实是 HTML 或 xlsx
func loadXLS(data []byte) ([][]string, error) {
	if looksLikeHTML(data) {
		return loadHTML(data)
	}

	workbook, err := openXLS(data)
	if err != nil {
		if rows, errX := loadXLSX(data); errX == nil {
			return rows, nil
		}
		return nil, fmt.Errorf("无法读取 .xls 文件，请另存为 .xlsx 后重试: %w", err)
	}

	var sheets [][][]string
	for _, sheet := range workbook.GetSheets() {
		var rows [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, cell := range row.GetCols() {
				cells = append(cells, cell.GetString())
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, rows)
	}
	return largest(sheets), nil
}

// openXLS 损坏的 BIFF 文件可能让解析库 panic
func openXLS(data []byte) (wb xls.Workbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("xls reader crashed: %v", r)
		}
	}()
	return xls.OpenReader(bytes.NewReader(data))
}
