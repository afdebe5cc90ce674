package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fredetl/internal/importer"
	"fredetl/internal/store"
)

// UpdateSettingsRequest 更新设置请求，字段缺省表示不修改
type UpdateSettingsRequest struct {
	DefaultKind *string  `json:"defaultKind"`
	Tolerance   *float64 `json:"tolerance"`
}

// GetSettings 获取已保存的设置
// GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	all, err := h.store.GetAllConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取设置失败"})
		return
	}

	resp := gin.H{
		"defaultKind": all[store.ConfigDefaultKind],
		"tolerance":   h.opts.Engine.Tolerance,
	}
	if v, ok := all[store.ConfigTolerance]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			resp["tolerance"] = f
		}
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateSettings 更新设置
// PATCH /api/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	// 先全部校验，再写入
	var kindID string
	switch {
	case req.DefaultKind == nil:
	case importer.IsAuto(*req.DefaultKind):
		kindID = importer.KindAuto
	default:
		s, err := h.registry.Get(*req.DefaultKind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "报表类型无效: " + *req.DefaultKind})
			return
		}
		kindID = s.ID
	}
	if req.Tolerance != nil && *req.Tolerance < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "容差不能为负数"})
		return
	}

	if kindID != "" {
		if err := h.store.SetConfig(store.ConfigDefaultKind, kindID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新设置失败"})
			return
		}
	}
	if req.Tolerance != nil {
		if err := h.store.SetConfigFloat(store.ConfigTolerance, *req.Tolerance); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新设置失败"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "设置更新成功"})
}
