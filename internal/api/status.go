package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fredetl/internal/exporter"
	"fredetl/internal/loader"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Schemas       []string `json:"schemas"`       // 已注册科目表
	InputFormats  []string `json:"inputFormats"`  // 可读取的文件类型
	ExportFormats []string `json:"exportFormats"` // 可导出的文件类型
	LastRunTime   string   `json:"lastRunTime"`   // 最近一次提取时间
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		InputFormats:  loader.Formats(),
		ExportFormats: exporter.Formats(),
	}
	for _, s := range h.registry.List() {
		resp.Schemas = append(resp.Schemas, s.ID)
	}

	runs, err := h.store.ListRuns(1)
	if err == nil && len(runs) > 0 {
		resp.LastRunTime = runs[0].CreatedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// SchemaInfo 科目表摘要
type SchemaInfo struct {
	ID      string   `json:"id"`
	Short   string   `json:"short"`
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Periods []string `json:"periods"`
	Items   []string `json:"items"`
}

// ListSchemas 科目表列表（科目按声明顺序）
// GET /api/schemas
func (h *Handler) ListSchemas(c *gin.Context) {
	out := []SchemaInfo{}
	for _, s := range h.registry.List() {
		info := SchemaInfo{ID: s.ID, Short: s.Short, Name: s.Name, Version: s.Version}
		for _, p := range s.Periods {
			info.Periods = append(info.Periods, p.ID)
		}
		for _, it := range s.Items {
			info.Items = append(info.Items, it.ID)
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"schemas": out})
}
