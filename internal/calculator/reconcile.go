package calculator

import (
	"fmt"
	"math"

	"fredetl/internal/model"
)

// Reconcile 推导完成后逐期间复核恒等式，返回异常与台账
// 异常只作提示，不影响输出表
func (c *Calculator) Reconcile(vs *model.ValueSet, periods []model.PeriodColumn) ([]model.Finding, []model.LedgerEntry) {
	var (
		findings []model.Finding
		ledger   []model.LedgerEntry
	)

	for _, p := range periods {
		if id := c.schema.Identity; id != nil {
			a := vs.Value(id.Assets, p.ID)
			l := vs.Value(id.Liabilities, p.ID)
			e := vs.Value(id.Equity, p.ID)
			residual := model.Round2(a - (l + e))

			ledger = append(ledger, c.ledgerEntry(p, residual,
				[]string{id.Assets, id.Liabilities, id.Equity}, []float64{a, l, e}))

			if math.Abs(residual) > c.tolerance {
				findings = append(findings, model.Finding{
					PeriodID: p.ID,
					Kind:     model.FindingImbalance,
					Residual: math.Abs(residual),
					Message:  fmt.Sprintf("【%s】%s失衡", p.Label, c.schema.Name),
					Related:  relatedCoords(vs, p.ID, id.Assets, id.Liabilities, id.Equity),
				})
			}
		}

		if wf := c.schema.Waterfall; wf != nil {
			pre := vs.Value(wf.PreTax, p.ID)
			tax := vs.Value(wf.Tax, p.ID)
			net := vs.Value(wf.Net, p.ID)
			residual := model.Round2(pre - tax - net)

			ledger = append(ledger, c.ledgerEntry(p, residual,
				[]string{wf.PreTax, wf.Tax, wf.Net}, []float64{pre, tax, net}))

			// 利润总额和净利润都取到时才校验
			if pre != 0 && net != 0 && math.Abs(residual) > c.tolerance {
				findings = append(findings, model.Finding{
					PeriodID: p.ID,
					Kind:     model.FindingWaterfallMismatch,
					Residual: math.Abs(residual),
					Message:  fmt.Sprintf("【%s】存在差异(%s-%s与%s不符)", p.Label, wf.PreTax, wf.Tax, wf.Net),
					Related:  relatedCoords(vs, p.ID, wf.PreTax, wf.Tax, wf.Net),
				})
			}
		}
	}
	return findings, ledger
}

func (c *Calculator) ledgerEntry(p model.PeriodColumn, residual float64, order []string, values []float64) model.LedgerEntry {
	operands := make(map[string]float64, len(order))
	for i, id := range order {
		operands[id] = values[i]
	}
	return model.LedgerEntry{
		PeriodID: p.ID,
		Label:    p.Label,
		Operands: operands,
		Order:    order,
		Residual: residual,
		Balanced: math.Abs(residual) <= c.tolerance,
	}
}

// relatedCoords 只收集直接取自网格的运算项坐标
func relatedCoords(vs *model.ValueSet, period string, items ...string) []model.Coord {
	coords := make([]model.Coord, 0, len(items))
	for _, id := range items {
		v := vs.Get(id, period)
		if v.Provenance == model.ProvenanceExtracted && v.Coord != nil {
			coords = append(coords, *v.Coord)
		}
	}
	return coords
}
