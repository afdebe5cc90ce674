package model

// Provenance 数值来源
type Provenance string

const (
	ProvenanceExtracted Provenance = "extracted" // 直接从网格读取
	ProvenanceDerived   Provenance = "derived"   // 推导引擎计算得出
	ProvenanceAbsent    Provenance = "absent"    // 未找到，按 0 处理
)

// ExtractedValue 单个科目在单个期间的取值
type ExtractedValue struct {
	ItemID     string     `json:"itemId"`
	PeriodID   string     `json:"periodId"`
	Value      float64    `json:"value"`
	Provenance Provenance `json:"provenance"`
	Coord      *Coord     `json:"coord,omitempty"`
}

// Derivation 推导引擎的一次写入记录
type Derivation struct {
	ItemID   string   `json:"itemId"`
	PeriodID string   `json:"periodId"`
	Rule     string   `json:"rule"`
	Operands []string `json:"operands"`
	Previous float64  `json:"previous"`
	Value    float64  `json:"value"`
}

type valueKey struct {
	item   string
	period string
}

// ValueSet 一次提取运行中的科目取值表
// 未写入的 (科目, 期间) 视为 0 且来源为 absent
type ValueSet struct {
	values map[valueKey]ExtractedValue
	hits   map[valueKey]Coord
}

// NewValueSet 创建空取值表
func NewValueSet() *ValueSet {
	return &ValueSet{
		values: make(map[valueKey]ExtractedValue),
		hits:   make(map[valueKey]Coord),
	}
}

// Get 读取取值，不存在时返回 absent 零值
func (vs *ValueSet) Get(itemID, periodID string) ExtractedValue {
	if v, ok := vs.values[valueKey{itemID, periodID}]; ok {
		return v
	}
	return ExtractedValue{ItemID: itemID, PeriodID: periodID, Provenance: ProvenanceAbsent}
}

// Value 读取数值
func (vs *ValueSet) Value(itemID, periodID string) float64 {
	return vs.Get(itemID, periodID).Value
}

// SetExtracted 记录网格命中
func (vs *ValueSet) SetExtracted(itemID, periodID string, value float64, at Coord) {
	key := valueKey{itemID, periodID}
	vs.hits[key] = at
	coord := at
	vs.values[key] = ExtractedValue{
		ItemID:     itemID,
		PeriodID:   periodID,
		Value:      value,
		Provenance: ProvenanceExtracted,
		Coord:      &coord,
	}
}

// SetDerived 写入推导值，推导值不携带坐标
func (vs *ValueSet) SetDerived(itemID, periodID string, value float64) {
	vs.values[valueKey{itemID, periodID}] = ExtractedValue{
		ItemID:     itemID,
		PeriodID:   periodID,
		Value:      value,
		Provenance: ProvenanceDerived,
	}
}

// Hit 返回匹配阶段的命中坐标（即使之后被推导值覆盖）
func (vs *ValueSet) Hit(itemID, periodID string) (Coord, bool) {
	c, ok := vs.hits[valueKey{itemID, periodID}]
	return c, ok
}

// Clone 深拷贝
func (vs *ValueSet) Clone() *ValueSet {
	out := NewValueSet()
	for k, v := range vs.values {
		if v.Coord != nil {
			c := *v.Coord
			v.Coord = &c
		}
		out.values[k] = v
	}
	for k, c := range vs.hits {
		out.hits[k] = c
	}
	return out
}

// Equal 两个取值表的数值与来源是否一致
func (vs *ValueSet) Equal(other *ValueSet) bool {
	if len(vs.values) != len(other.values) {
		return false
	}
	for k, v := range vs.values {
		o, ok := other.values[k]
		if !ok || o.Value != v.Value || o.Provenance != v.Provenance {
			return false
		}
	}
	return true
}
