package schema

import "strings"

// ExclusionRule 行文本含 Keyword 时拒绝，除非科目自身模式含 AllowedIf
type ExclusionRule struct {
	Keyword   string `toml:"keyword"`
	AllowedIf string `toml:"allowed_if"`
}

// Rejects 判断规则是否拒绝该行
func (r ExclusionRule) Rejects(label string, item *LineItem) bool {
	if !strings.Contains(label, r.Keyword) {
		return false
	}
	allowed := r.AllowedIf
	if allowed == "" {
		allowed = r.Keyword
	}
	return !item.PatternsContain(allowed)
}
