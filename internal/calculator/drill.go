package calculator

import "fredetl/internal/model"

// DrillThrough 科目穿透：父项总计与已识别明细合计，二者皆为 0 时省略
func (c *Calculator) DrillThrough(vs *model.ValueSet, periods []string) []model.DrillThrough {
	var out []model.DrillThrough
	for _, p := range periods {
		for _, rel := range c.schema.Rollups {
			if !rel.DrillThrough {
				continue
			}
			total := vs.Value(rel.Parent, p)
			children := make([]float64, len(rel.Children))
			for i, id := range rel.Children {
				children[i] = vs.Value(id, p)
			}
			sum := model.Round2(model.Sum(children...))
			if total == 0 && sum == 0 {
				continue
			}
			out = append(out, model.DrillThrough{
				PeriodID: p,
				Parent:   rel.Parent,
				Total:    total,
				Children: sum,
			})
		}
	}
	return out
}
