package calculator

import (
	"math"

	"fredetl/internal/model"
)

// 推导规则名
const (
	RuleNetOfContra = "net-of-contra"
	RuleRollup      = "rollup"
	RuleIdentity    = "identity"
)

// Derive 逐期间补齐缺失值：净额 → 小计汇总 → 会计恒等式
// 只在目标值为 0 时写入，因此对自身输出重复执行不会再产生变化
func (c *Calculator) Derive(vs *model.ValueSet, periods []string) []model.Derivation {
	var out []model.Derivation
	for _, p := range periods {
		out = append(out, c.deriveNet(vs, p)...)
		out = append(out, c.deriveRollups(vs, p)...)
		if d, ok := c.solveIdentity(vs, p); ok {
			out = append(out, d)
		}
	}
	return out
}

func (c *Calculator) deriveNet(vs *model.ValueSet, period string) []model.Derivation {
	var out []model.Derivation
	for _, rel := range c.schema.NetOfContra {
		gross := vs.Value(rel.Gross, period)
		if vs.Value(rel.Net, period) != 0 || gross == 0 {
			continue
		}

		contra := make([]float64, len(rel.Contra))
		for i, id := range rel.Contra {
			contra[i] = math.Abs(vs.Value(id, period))
		}
		net := model.Round2(gross - model.Sum(contra...))

		operands := append([]string{rel.Gross}, rel.Contra...)
		if d, ok := write(vs, rel.Net, period, net, RuleNetOfContra, operands); ok {
			out = append(out, d)
		}
	}
	return out
}

func (c *Calculator) deriveRollups(vs *model.ValueSet, period string) []model.Derivation {
	var out []model.Derivation
	for _, rel := range c.schema.Rollups {
		if vs.Value(rel.Parent, period) != 0 {
			continue
		}

		children := make([]float64, len(rel.Children))
		hasChild := false
		for i, id := range rel.Children {
			children[i] = vs.Value(id, period)
			if children[i] != 0 {
				hasChild = true
			}
		}
		if !hasChild {
			continue
		}

		total := model.Round2(model.Sum(children...))
		if d, ok := write(vs, rel.Parent, period, total, RuleRollup, rel.Children); ok {
			out = append(out, d)
		}
	}
	return out
}

// solveIdentity 资产/负债/所有者权益三者缺一时反推，每期最多推一个
func (c *Calculator) solveIdentity(vs *model.ValueSet, period string) (model.Derivation, bool) {
	id := c.schema.Identity
	if id == nil {
		return model.Derivation{}, false
	}

	a := vs.Value(id.Assets, period)
	l := vs.Value(id.Liabilities, period)
	e := vs.Value(id.Equity, period)

	switch {
	case a == 0 && l != 0 && e != 0:
		return write(vs, id.Assets, period, model.Round2(l+e), RuleIdentity, []string{id.Liabilities, id.Equity})
	case l == 0 && a != 0 && e != 0:
		return write(vs, id.Liabilities, period, model.Round2(a-e), RuleIdentity, []string{id.Assets, id.Equity})
	case e == 0 && a != 0 && l != 0:
		return write(vs, id.Equity, period, model.Round2(a-l), RuleIdentity, []string{id.Assets, id.Liabilities})
	}
	return model.Derivation{}, false
}
