package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"fredetl/internal/importer"
	"fredetl/internal/loader"
)

// Extract 上传报表并提取 (SSE 流式响应)
// POST /api/extract
func (h *Handler) Extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	uploaded, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "文件过大"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	filename := filepath.Base(uploaded.Filename)
	if !loader.Supported(filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "不支持的文件类型",
			"formats": loader.Formats(),
		})
		return
	}

	kind := c.PostForm("kind")
	if !importer.IsAuto(h.coordinator.EffectiveKind(kind)) {
		if _, err := h.coordinator.ResolveSchema(kind); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "报表类型无效: " + kind})
			return
		}
	}

	// 保存到暂存目录，保留扩展名供读取器识别格式
	tempFilePath := filepath.Join(h.opts.UploadDir, fmt.Sprintf("fredetl_upload_%d%s", time.Now().UnixNano(), filepath.Ext(filename)))
	if err := c.SaveUploadedFile(uploaded, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(tempFilePath)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	progressChan := h.coordinator.Import(importer.ImportOptions{
		FilePath: tempFilePath,
		Filename: filename,
		Kind:     kind,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
