package parser

import "fredetl/internal/schema"

// AcceptRow 行文本已命中科目模式后，逐条执行排除规则
//  1. 范围：流动/非流动 限定词必须出现在科目自身模式中
//  2. 调整项黑名单：其中、减值、准备 等
//  3. 符号：以 "-" / "减" 开头的行只允许备抵类科目
//  4. 科目专属排除词
func AcceptRow(label string, s *schema.Schema, item *schema.LineItem) bool {
	for _, rule := range s.Matching.ScopeRules {
		if rule.Rejects(label, item) {
			return false
		}
	}

	for _, rule := range s.AdjustmentRules() {
		if rule.Rejects(label, item) {
			return false
		}
	}

	if s.Matching.SignGuard && HasAnyPrefix(label, s.Matching.SignPrefixes) {
		exempt := false
		for _, kw := range s.Matching.SignExemptKeywords {
			if item.PatternsContain(kw) {
				exempt = true
				break
			}
		}
		if !exempt {
			return false
		}
	}

	return !ContainsAny(label, item.ExcludeIfContains)
}
