package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"fredetl/internal/model"
)

var amountToken = regexp.MustCompile(`-?\d+\.\d{1,4}|-?\d{4,}`)

// footnoteMax 1~400 之间的整数视为页码/附注序号，不当作金额
const footnoteMax = 400

// ParseAmount 把单元格文本解析为金额
// ok=false 表示不可用（不是 0，而是"读不出数"）
func ParseAmount(text string) (value float64, ok bool) {
	// 全角括号、负号、数字先转半角
	text = width.Narrow.String(text)

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '(', r == ')':
			return r
		}
		return -1
	}, text)

	// 会计记法：(1,234.56) 表示负数
	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + cleaned[1:len(cleaned)-1]
	}

	token := amountToken.FindString(cleaned)
	if token == "" {
		switch cleaned {
		case "", "-", "0":
			return 0, true
		}
		return 0, false
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, true
	}
	if v != 0 && v == math.Trunc(v) && math.Abs(v) >= 1 && math.Abs(v) <= footnoteMax {
		return 0, false
	}
	return model.Round2(v), true
}
