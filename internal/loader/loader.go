package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fredetl/internal/model"
)

var (
	// ErrUnsupportedFormat 不支持的文件类型
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyGrid 文件中没有可用单元格
	ErrEmptyGrid = errors.New("no cells found")
)

// Error 加载失败，保留格式和文件名，原样返回给调用方
type Error struct {
	Format string
	Path   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type loadFunc func(data []byte) ([][]string, error)

var loaders = map[string]loadFunc{
	"xlsx": loadXLSX,
	"xlsm": loadXLSX,
	"xls":  loadXLS,
	"csv":  loadCSV,
	"txt":  loadCSV,
	"tsv":  loadTSV,
	"pdf":  loadPDF,
	"htm":  loadHTML,
	"html": loadHTML,
}

// Formats 支持的扩展名
func Formats() []string {
	return []string{"xlsx", "xlsm", "xls", "csv", "txt", "tsv", "pdf", "htm", "html"}
}

// Supported 扩展名是否支持
func Supported(name string) bool {
	_, ok := loaders[formatOf(name)]
	return ok
}

func formatOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// LoadFile 读取文件并转换为网格
func LoadFile(path string) (model.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Grid{}, &Error{Format: formatOf(path), Path: path, Err: err}
	}
	defer f.Close()
	return Load(f, path)
}

// Load 按文件名扩展名选择读取方式
func Load(r io.Reader, name string) (model.Grid, error) {
	format := formatOf(name)
	fn, ok := loaders[format]
	if !ok {
		return model.Grid{}, &Error{Format: format, Path: name, Err: ErrUnsupportedFormat}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return model.Grid{}, &Error{Format: format, Path: name, Err: fmt.Errorf("failed to read: %w", err)}
	}

	rows, err := fn(data)
	if err != nil {
		return model.Grid{}, &Error{Format: format, Path: name, Err: err}
	}

	grid := model.NewGrid(trimRows(rows))
	if grid.Empty() {
		return model.Grid{}, &Error{Format: format, Path: name, Err: ErrEmptyGrid}
	}
	return grid, nil
}

// trimRows 去掉末尾空行与每行末尾空单元格
func trimRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	last := -1
	for i, row := range rows {
		end := len(row)
		for end > 0 && strings.TrimSpace(row[end-1]) == "" {
			end--
		}
		out[i] = row[:end]
		if end > 0 {
			last = i
		}
	}
	return out[:last+1]
}

// largest 多个工作表时取行数最多的一个（行数相同取靠前者）
func largest(sheets [][][]string) [][]string {
	var best [][]string
	for _, rows := range sheets {
		if len(rows) > len(best) {
			best = rows
		}
	}
	return best
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("<table")) || bytes.Contains(head, []byte("<html"))
}
