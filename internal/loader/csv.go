package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func loadCSV(data []byte) ([][]string, error) {
	return readDelimited(data, ',')
}

func loadTSV(data []byte) ([][]string, error) {
	return readDelimited(data, '\t')
}

// readDelimited 非 UTF-8 内容按 GB18030 解码（国内财务软件导出的 CSV 多为 GBK）
func readDelimited(data []byte, comma rune) ([][]string, error) {
	var src io.Reader
	if utf8.Valid(data) {
		src = bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))
	} else {
		src = transform.NewReader(bytes.NewReader(data), simplifiedchinese.GB18030.NewDecoder())
	}

	r := csv.NewReader(src)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited text: %w", err)
	}
	return rows, nil
}
