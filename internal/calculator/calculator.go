package calculator

import (
	"fredetl/internal/model"
	"fredetl/internal/schema"
)

// DefaultTolerance 勾稽容差（报表货币单位）
const DefaultTolerance = 0.01

// Calculator 推导与勾稽计算器，规则全部来自科目表声明
type Calculator struct {
	schema    *schema.Schema
	tolerance float64
}

// NewCalculator 创建计算器，tolerance <= 0 时使用默认容差
func NewCalculator(s *schema.Schema, tolerance float64) *Calculator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Calculator{
		schema:    s,
		tolerance: tolerance,
	}
}

// Tolerance 当前容差
func (c *Calculator) Tolerance() float64 {
	return c.tolerance
}

// write 写入推导值；已是相同推导值时不重复写入
func write(vs *model.ValueSet, item, period string, value float64, rule string, operands []string) (model.Derivation, bool) {
	cur := vs.Get(item, period)
	if cur.Provenance == model.ProvenanceDerived && cur.Value == value {
		return model.Derivation{}, false
	}
	vs.SetDerived(item, period, value)
	return model.Derivation{
		ItemID:   item,
		PeriodID: period,
		Rule:     rule,
		Operands: operands,
		Previous: cur.Value,
		Value:    value,
	}, true
}
