package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var yearMonthRe = regexp.MustCompile(`(\d{4})\s*年\s*0?(\d{1,2})\s*月`)

// ExtractYearMonth 从字符串中提取年月信息
// 支持格式: "2024年12月31日" / "编制日期：2024年6月" / "2024 年 06 月"
func ExtractYearMonth(text string) (year, month int, found bool) {
	matches := yearMonthRe.FindStringSubmatch(text)
	if len(matches) >= 3 {
		year, _ = strconv.Atoi(matches[1])
		month, _ = strconv.Atoi(matches[2])
		if month >= 1 && month <= 12 {
			return year, month, true
		}
	}
	return 0, 0, false
}

// NormalizeLabel 规范化单元格文本：去除所有空白（含全角空格、换行）并转小写
func NormalizeLabel(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	return strings.ToLower(text)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// HasAnyPrefix 检查字符串是否以任意一个前缀开头
func HasAnyPrefix(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
