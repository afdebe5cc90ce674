package model

// FindingKind 勾稽异常类型
type FindingKind string

const (
	FindingImbalance         FindingKind = "imbalance"
	FindingWaterfallMismatch FindingKind = "waterfall-mismatch"
)

// Finding 勾稽校验结果（按期间汇总）
type Finding struct {
	PeriodID string      `json:"periodId"`
	Kind     FindingKind `json:"kind"`
	Residual float64     `json:"residual"`
	Message  string      `json:"message"`
	Related  []Coord     `json:"relatedCoordinates"`
}

// CellClass 单元格标注类型
type CellClass string

const (
	CellMatched     CellClass = "matched"
	CellDerivedOnly CellClass = "derived-only"
	CellFlagged     CellClass = "flagged"
)

// CellMark 单元格标注，供外部渲染层高亮
type CellMark struct {
	Row   int       `json:"row"`
	Col   int       `json:"col"`
	Class CellClass `json:"class"`
}

// PeriodColumn 输出表的期间列
type PeriodColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// TableRow 输出表的一行
type TableRow struct {
	ItemID      string       `json:"itemId"`
	Values      []float64    `json:"values"`
	Provenances []Provenance `json:"provenances"`
}

// Table 标准化输出表，行顺序与科目表声明顺序一致
type Table struct {
	SchemaID string         `json:"schemaId"`
	Short    string         `json:"short"`
	Periods  []PeriodColumn `json:"periods"`
	Rows     []TableRow     `json:"rows"`
}

// Value 按科目与期间查表，不存在返回 0
func (t *Table) Value(itemID, periodID string) float64 {
	col := -1
	for i, p := range t.Periods {
		if p.ID == periodID {
			col = i
			break
		}
	}
	if col < 0 {
		return 0
	}
	for _, row := range t.Rows {
		if row.ItemID == itemID {
			return row.Values[col]
		}
	}
	return 0
}

// LedgerEntry 勾稽台账：每个期间的三个运算项与差额
type LedgerEntry struct {
	PeriodID string             `json:"periodId"`
	Label    string             `json:"label"`
	Operands map[string]float64 `json:"operands"`
	Order    []string           `json:"order"`
	Residual float64            `json:"residual"`
	Balanced bool               `json:"balanced"`
}

// DrillThrough 科目穿透：父项总计与已识别明细汇总
type DrillThrough struct {
	PeriodID string  `json:"periodId"`
	Parent   string  `json:"parent"`
	Total    float64 `json:"total"`
	Children float64 `json:"children"`
}

// Diagnostics 提取过程诊断信息
type Diagnostics struct {
	UnresolvedPeriods []string            `json:"unresolvedPeriods"`
	PeriodColumns     map[string][]int    `json:"periodColumns"`
	DroppedPeriods    []string            `json:"droppedPeriods"`
	UnmatchedItems    map[string][]string `json:"unmatchedItems"`
	RejectedCells     int                 `json:"rejectedCells"`
	Derivations       []Derivation        `json:"derivations"`
}

// Result 一次提取运行的完整输出
type Result struct {
	SchemaID      string           `json:"schemaId"`
	SchemaVersion string           `json:"schemaVersion"`
	ReportYear    int              `json:"reportYear,omitempty"`
	ReportMonth   int              `json:"reportMonth,omitempty"`
	Table         *Table           `json:"table"`
	Values        []ExtractedValue `json:"values"`
	Findings      []Finding        `json:"findings"`
	Cells         []CellMark       `json:"cells"`
	Ledger        []LedgerEntry    `json:"ledger"`
	DrillThrough  []DrillThrough   `json:"drillThrough"`
	Diagnostics   Diagnostics      `json:"diagnostics"`
}

// Balanced 是否全部勾稽通过
func (r *Result) Balanced() bool {
	return len(r.Findings) == 0
}
