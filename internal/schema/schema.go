package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownSchema 未注册的科目表
var ErrUnknownSchema = errors.New("unknown schema")

// Schema 一类报表的标准科目表（只读）
type Schema struct {
	ID          string        `toml:"id"`
	Short       string        `toml:"short"`
	Name        string        `toml:"name"`
	Version     string        `toml:"version"`
	Matching    Matching      `toml:"matching"`
	Periods     []Period      `toml:"periods"`
	Items       []LineItem    `toml:"items"`
	NetOfContra []NetOfContra `toml:"net_of_contra"`
	Rollups     []Rollup      `toml:"rollups"`
	Identity    *Identity     `toml:"identity"`
	Waterfall   *Waterfall    `toml:"waterfall"`

	index   map[string]int
	markers []ExclusionRule
}

// Matching 行匹配规则
type Matching struct {
	// ConsumeCells 同一期间内已被取值的单元格不可再次使用
	ConsumeCells       bool            `toml:"consume_cells"`
	ScopeRules         []ExclusionRule `toml:"scope_rules"`
	AdjustmentMarkers  []string        `toml:"adjustment_markers"`
	SignGuard          bool            `toml:"sign_guard"`
	SignPrefixes       []string        `toml:"sign_prefixes"`
	SignExemptKeywords []string        `toml:"sign_exempt_keywords"`
}

// Period 期间列定义
type Period struct {
	ID       string   `toml:"id"`
	Label    string   `toml:"label"`
	Patterns []string `toml:"patterns"`

	lowered []string
}

// LineItem 标准科目
type LineItem struct {
	ID                string   `toml:"id"`
	Patterns          []string `toml:"patterns"`
	ExcludeIfContains []string `toml:"exclude_if_contains"`

	compiled    []pattern
	patternText string
}

// NetOfContra 净额推导：净额 = 原值 - Σ|备抵项|
type NetOfContra struct {
	Gross  string   `toml:"gross"`
	Contra []string `toml:"contra"`
	Net    string   `toml:"net"`
}

// Rollup 父项 = Σ 子项
type Rollup struct {
	Parent       string   `toml:"parent"`
	Children     []string `toml:"children"`
	DrillThrough bool     `toml:"drill_through"`
}

// Identity 资产 = 负债 + 所有者权益
type Identity struct {
	Assets      string `toml:"assets"`
	Liabilities string `toml:"liabilities"`
	Equity      string `toml:"equity"`
}

// Waterfall 利润总额 - 所得税 = 净利润
type Waterfall struct {
	PreTax string `toml:"pre_tax"`
	Tax    string `toml:"tax"`
	Net    string `toml:"net"`
}

type pattern struct {
	lowered string
	re      *regexp.Regexp
}

// 以 ^ 开头或包含 .* 的模式按正则处理，其余按子串包含
func isRegexLike(p string) bool {
	return strings.HasPrefix(p, "^") || strings.Contains(p, ".*")
}

func (p pattern) match(label string) bool {
	if p.re != nil {
		return p.re.MatchString(label)
	}
	return strings.Contains(label, p.lowered)
}

// Parse 解析并校验 TOML 科目表
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, fmt.Errorf("invalid schema %q: %w", s.ID, err)
	}
	return &s, nil
}

func (s *Schema) compile() error {
	if s.ID == "" {
		return errors.New("missing id")
	}
	if len(s.Periods) == 0 {
		return errors.New("no periods declared")
	}
	if len(s.Items) == 0 {
		return errors.New("no items declared")
	}

	periodIDs := make(map[string]bool, len(s.Periods))
	for i := range s.Periods {
		p := &s.Periods[i]
		if p.ID == "" || periodIDs[p.ID] {
			return fmt.Errorf("duplicate or empty period id %q", p.ID)
		}
		periodIDs[p.ID] = true
		if p.Label == "" {
			p.Label = p.ID
		}
		p.lowered = make([]string, len(p.Patterns))
		for j, alias := range p.Patterns {
			p.lowered[j] = strings.ToLower(alias)
		}
	}

	s.index = make(map[string]int, len(s.Items))
	for i := range s.Items {
		item := &s.Items[i]
		if item.ID == "" {
			return fmt.Errorf("item #%d has no id", i)
		}
		if _, dup := s.index[item.ID]; dup {
			return fmt.Errorf("duplicate item id %q", item.ID)
		}
		if len(item.Patterns) == 0 {
			return fmt.Errorf("item %q has no patterns", item.ID)
		}
		s.index[item.ID] = i

		item.compiled = make([]pattern, len(item.Patterns))
		for j, raw := range item.Patterns {
			p := pattern{lowered: strings.ToLower(raw)}
			if isRegexLike(raw) {
				re, err := regexp.Compile(p.lowered)
				if err != nil {
					return fmt.Errorf("item %q pattern %q: %w", item.ID, raw, err)
				}
				p.re = re
			}
			item.compiled[j] = p
		}
		item.patternText = strings.Join(item.Patterns, "\x00")
	}

	s.markers = make([]ExclusionRule, len(s.Matching.AdjustmentMarkers))
	for i, m := range s.Matching.AdjustmentMarkers {
		s.markers[i] = ExclusionRule{Keyword: m, AllowedIf: m}
	}

	return s.checkRefs()
}

// 推导关系引用的科目必须在表内
func (s *Schema) checkRefs() error {
	var refs []string
	for _, n := range s.NetOfContra {
		refs = append(refs, n.Gross, n.Net)
		refs = append(refs, n.Contra...)
	}
	for _, r := range s.Rollups {
		refs = append(refs, r.Parent)
		refs = append(refs, r.Children...)
	}
	if s.Identity != nil {
		refs = append(refs, s.Identity.Assets, s.Identity.Liabilities, s.Identity.Equity)
	}
	if s.Waterfall != nil {
		refs = append(refs, s.Waterfall.PreTax, s.Waterfall.Tax, s.Waterfall.Net)
	}
	for _, id := range refs {
		if !s.Has(id) {
			return fmt.Errorf("relation references unknown item %q", id)
		}
	}
	return nil
}

// Has 是否包含该科目
func (s *Schema) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Item 按 ID 查科目
func (s *Schema) Item(id string) (*LineItem, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.Items[i], true
}

// Order 科目在声明顺序中的位置，不存在返回 -1
func (s *Schema) Order(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Period 按 ID 查期间
func (s *Schema) Period(id string) (*Period, bool) {
	for i := range s.Periods {
		if s.Periods[i].ID == id {
			return &s.Periods[i], true
		}
	}
	return nil, false
}

// AdjustmentRules 调整项黑名单（关键词出现在科目自身模式中时放行）
func (s *Schema) AdjustmentRules() []ExclusionRule {
	return s.markers
}

// MatchLabel 归一化后的单元格文本是否命中科目的任一识别模式
func (it *LineItem) MatchLabel(label string) bool {
	for _, p := range it.compiled {
		if p.match(label) {
			return true
		}
	}
	return false
}

// PatternsContain 科目的识别模式中是否出现关键词
func (it *LineItem) PatternsContain(keyword string) bool {
	return strings.Contains(it.patternText, keyword)
}

// Aliases 小写化后的期间别名
func (p *Period) Aliases() []string {
	return p.lowered
}
