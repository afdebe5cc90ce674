package util

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.SimplifiedChinese)

// FormatAmount 千分位、两位小数，例如 1,234,567.89
func FormatAmount(value float64) string {
	return amountPrinter.Sprintf("%.2f", value)
}
