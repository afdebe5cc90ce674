package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fredetl/internal/exporter"
	"fredetl/internal/model"
)

var contentTypes = map[string]string{
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv; charset=utf-8",
}

// ExportRun 导出运行结果，返回一次性下载地址
// POST /api/runs/:id/export?format=xlsx|csv
func (h *Handler) ExportRun(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	if _, ok := contentTypes[format]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的导出格式", "formats": exporter.Formats()})
		return
	}

	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	if run.Result == nil || run.Result.Table == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "运行尚未完成", "status": run.Status})
		return
	}

	tempPath := filepath.Join(h.opts.ExportDir, fmt.Sprintf("fredetl_export_%d_%d.%s", time.Now().UnixNano(), os.Getpid(), format))
	if err := writeExport(tempPath, run.Result.Table, format); err != nil {
		_ = os.Remove(tempPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导出失败: " + err.Error()})
		return
	}

	filename := exporter.FileName(run.Result.Table.Short, format)
	token := h.downloads.put(exportDownload{filePath: tempPath, filename: filename, format: format})
	c.JSON(http.StatusOK, gin.H{
		"token":       token,
		"filename":    filename,
		"downloadUrl": "/api/export/download/" + token,
	})
}

func writeExport(path string, table *model.Table, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Write(f, table, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// DownloadExport 下载导出文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", contentDisposition(item.filename))
	c.Header("Content-Type", contentTypes[item.format])
	c.File(item.filePath)

	// 删除令牌时一并清理文件
	h.downloads.delete(token)
}

// contentDisposition ASCII 文件名 + RFC 5987 编码文件名
func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename))
}
