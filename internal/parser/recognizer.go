package parser

import (
	"strings"

	"fredetl/internal/schema"
)

const (
	// minConfidence 低于该值视为无法识别
	minConfidence = 0.05
	// titleBoost 表头含报表名称时的加权
	titleBoost = 0.2
)

// Recognition 报表类型识别结果
type Recognition struct {
	SchemaID   string  `json:"schemaId"`
	Confidence float64 `json:"confidence"`
	Matched    int     `json:"matched"` // 网格中出现的科目数
}

// Recognized 是否识别成功
func (r Recognition) Recognized() bool {
	return r.SchemaID != ""
}

// Recognize 按科目标签出现比例识别报表类型，表头含报表名称时加权
// 置信度相同时取靠前的科目表
func Recognize(s *Sheet, schemas []*schema.Schema, headerRows int) Recognition {
	var best Recognition
	for _, sc := range schemas {
		if r := recognizeSchema(s, sc, headerRows); r.Confidence > best.Confidence {
			best = r
		}
	}
	if best.Confidence < minConfidence {
		return Recognition{Confidence: best.Confidence}
	}
	return best
}

func recognizeSchema(s *Sheet, sc *schema.Schema, headerRows int) Recognition {
	if len(sc.Items) == 0 {
		return Recognition{}
	}

	matched := 0
	for i := range sc.Items {
		if labelPresent(s, &sc.Items[i]) {
			matched++
		}
	}
	confidence := float64(matched) / float64(len(sc.Items))

	// 表头名称辅助判定
	if title := NormalizeLabel(sc.Name); title != "" && headerContains(s, title, headerRows) {
		confidence += titleBoost
	}

	return Recognition{SchemaID: sc.ID, Confidence: confidence, Matched: matched}
}

func labelPresent(s *Sheet, item *schema.LineItem) bool {
	for r := 0; r < s.Rows(); r++ {
		for c := 0; c < s.Cols(); c++ {
			if label := s.Label(r, c); label != "" && item.MatchLabel(label) {
				return true
			}
		}
	}
	return false
}

func headerContains(s *Sheet, text string, headerRows int) bool {
	if headerRows <= 0 || headerRows > s.Rows() {
		headerRows = s.Rows()
	}
	for r := 0; r < headerRows; r++ {
		for c := 0; c < s.Cols(); c++ {
			if strings.Contains(s.Label(r, c), text) {
				return true
			}
		}
	}
	return false
}
