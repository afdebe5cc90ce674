package engine

import (
	"errors"
	"fmt"
	"sort"

	"fredetl/internal/calculator"
	"fredetl/internal/model"
	"fredetl/internal/parser"
	"fredetl/internal/schema"
)

// ErrInternal 提取过程中的意外故障（不返回残缺结果）
var ErrInternal = errors.New("internal extraction failure")

// Logger Printf 形式的日志接口，*log.Logger 即可满足
type Logger interface {
	Printf(format string, v ...any)
}

// Options 单次提取参数
type Options struct {
	HeaderRows int
	Tolerance  float64
	Logger     Logger
}

// Run 对一张网格执行完整提取：期间定位 → 科目匹配 → 推导 → 勾稽
func Run(grid model.Grid, s *schema.Schema, opts Options) (res *model.Result, err error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInternal)
	}

	defer func() {
		if r := recover(); r != nil {
			if opts.Logger != nil {
				opts.Logger.Printf("[engine] %s: recovered from panic: %v", s.ID, r)
			}
			res, err = nil, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	r := &runner{
		schema: s,
		sheet:  parser.NewSheet(grid),
		values: model.NewValueSet(),
		opts:   opts,
	}
	return r.run(), nil
}

type runner struct {
	schema *schema.Schema
	sheet  *parser.Sheet
	values *model.ValueSet
	opts   Options
	diag   model.Diagnostics
}

func (r *runner) logf(format string, v ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Printf(format, v...)
	}
}

func (r *runner) run() *model.Result {
	s := r.schema
	headerRows := r.opts.HeaderRows
	if headerRows <= 0 {
		headerRows = parser.DefaultHeaderRows
	}

	located := parser.LocatePeriods(r.sheet, s.Periods, headerRows)
	r.diag.PeriodColumns = make(map[string][]int, len(located))
	for _, pc := range located {
		r.diag.PeriodColumns[pc.PeriodID] = pc.Columns
		if !pc.Resolved() {
			r.diag.UnresolvedPeriods = append(r.diag.UnresolvedPeriods, pc.PeriodID)
		}
	}

	r.extract(located)

	active, dropped := r.activePeriods()
	r.diag.DroppedPeriods = dropped
	activeIDs := make([]string, len(active))
	for i, p := range active {
		activeIDs[i] = p.ID
	}

	calc := calculator.NewCalculator(s, r.opts.Tolerance)
	r.diag.Derivations = calc.Derive(r.values, activeIDs)
	findings, ledger := calc.Reconcile(r.values, active)

	res := &model.Result{
		SchemaID:      s.ID,
		SchemaVersion: s.Version,
		Table:         r.buildTable(active),
		Values:        r.allValues(),
		Findings:      findings,
		Cells:         r.classify(activeIDs, findings),
		Ledger:        ledger,
		DrillThrough:  calc.DrillThrough(r.values, activeIDs),
		Diagnostics:   r.diag,
	}
	if y, m, ok := parser.FindReportPeriod(r.sheet, headerRows); ok {
		res.ReportYear, res.ReportMonth = y, m
	}

	r.logf("[engine] %s: %d rows, %d findings, %d derivations", s.ID, len(res.Table.Rows), len(findings), len(r.diag.Derivations))
	return res
}

// extract 按科目声明顺序逐期间匹配；利润表按期间维护已占用单元格
func (r *runner) extract(located []parser.PeriodColumns) {
	s := r.schema
	consumed := make([]parser.CellSet, len(located))
	if s.Matching.ConsumeCells {
		for i := range consumed {
			consumed[i] = parser.CellSet{}
		}
	}
	r.diag.UnmatchedItems = make(map[string][]string)

	for i := range s.Items {
		item := &s.Items[i]
		for j, pc := range located {
			m := parser.MatchItem(r.sheet, s, item, pc.Columns, consumed[j])
			r.diag.RejectedCells += m.Rejected
			if !m.Found {
				r.diag.UnmatchedItems[pc.PeriodID] = append(r.diag.UnmatchedItems[pc.PeriodID], item.ID)
				continue
			}
			r.values.SetExtracted(item.ID, pc.PeriodID, m.Value, m.At)
			if consumed[j] != nil {
				consumed[j].Add(m.At)
			}
			r.logf("[engine] %s/%s <- (%d,%d) %.2f", item.ID, pc.PeriodID, m.At.Row, m.At.Col, m.Value)
		}
	}
}

// activePeriods 提取结果全为 0 的期间不输出；全部为 0 时保留全部期间
func (r *runner) activePeriods() (active []model.PeriodColumn, dropped []string) {
	s := r.schema
	for _, p := range s.Periods {
		col := model.PeriodColumn{ID: p.ID, Label: p.Label}
		if r.periodHasValue(p.ID) {
			active = append(active, col)
		} else {
			dropped = append(dropped, p.ID)
		}
	}
	if len(active) == 0 {
		active = active[:0]
		for _, p := range s.Periods {
			active = append(active, model.PeriodColumn{ID: p.ID, Label: p.Label})
		}
		dropped = nil
	}
	return active, dropped
}

func (r *runner) periodHasValue(periodID string) bool {
	for i := range r.schema.Items {
		if r.values.Value(r.schema.Items[i].ID, periodID) != 0 {
			return true
		}
	}
	return false
}

// buildTable 按科目声明顺序输出非零或推导得出的科目
func (r *runner) buildTable(active []model.PeriodColumn) *model.Table {
	s := r.schema
	t := &model.Table{
		SchemaID: s.ID,
		Short:    s.Short,
		Periods:  active,
		Rows:     []model.TableRow{},
	}
	for i := range s.Items {
		id := s.Items[i].ID
		row := model.TableRow{
			ItemID:      id,
			Values:      make([]float64, len(active)),
			Provenances: make([]model.Provenance, len(active)),
		}
		keep := false
		for j, p := range active {
			v := r.values.Get(id, p.ID)
			row.Values[j] = v.Value
			row.Provenances[j] = v.Provenance
			if v.Value != 0 || v.Provenance == model.ProvenanceDerived {
				keep = true
			}
		}
		if keep {
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// allValues 每个 (科目, 期间) 恰好一条
func (r *runner) allValues() []model.ExtractedValue {
	s := r.schema
	out := make([]model.ExtractedValue, 0, len(s.Items)*len(s.Periods))
	for i := range s.Items {
		for _, p := range s.Periods {
			out = append(out, r.values.Get(s.Items[i].ID, p.ID))
		}
	}
	return out
}

// classify 单元格标注：flagged > matched > derived-only
func (r *runner) classify(activeIDs []string, findings []model.Finding) []model.CellMark {
	rank := map[model.CellClass]int{
		model.CellDerivedOnly: 1,
		model.CellMatched:     2,
		model.CellFlagged:     3,
	}
	classes := make(map[model.Coord]model.CellClass)
	mark := func(at model.Coord, class model.CellClass) {
		if !at.Valid() {
			return
		}
		if cur, ok := classes[at]; !ok || rank[class] > rank[cur] {
			classes[at] = class
		}
	}

	for i := range r.schema.Items {
		id := r.schema.Items[i].ID
		for _, p := range activeIDs {
			at, ok := r.values.Hit(id, p)
			if !ok {
				continue
			}
			if r.values.Get(id, p).Provenance == model.ProvenanceDerived {
				mark(at, model.CellDerivedOnly)
			} else {
				mark(at, model.CellMatched)
			}
		}
	}
	for _, f := range findings {
		for _, at := range f.Related {
			mark(at, model.CellFlagged)
		}
	}

	out := make([]model.CellMark, 0, len(classes))
	for at, class := range classes {
		out = append(out, model.CellMark{Row: at.Row, Col: at.Col, Class: class})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
