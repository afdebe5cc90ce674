package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fredetl/internal/store"
)

// ListRuns 运行记录列表
// GET /api/runs?limit=50
func (h *Handler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 无效"})
		return
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询运行记录失败"})
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// loadRun 读取运行记录，失败时已写入响应
func (h *Handler) loadRun(c *gin.Context) (*store.Run, bool) {
	run, err := h.store.GetRun(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "运行记录不存在"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "读取运行记录失败"})
		}
		return nil, false
	}
	return run, true
}

// GetRun 运行详情（含标准化表、勾稽结果、诊断信息）
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRunCells 单元格标注，供前端在原始网格上高亮
// GET /api/runs/:id/cells
func (h *Handler) GetRunCells(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	if run.Result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "运行尚未完成", "status": run.Status})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runId":    run.ID,
		"cells":    run.Result.Cells,
		"findings": run.Result.Findings,
	})
}

// DeleteRun 删除运行记录
// DELETE /api/runs/:id
func (h *Handler) DeleteRun(c *gin.Context) {
	if err := h.store.DeleteRun(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "运行记录不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}
	c.Status(http.StatusNoContent)
}
