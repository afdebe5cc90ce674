package api

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"fredetl/internal/engine"
	"fredetl/internal/importer"
	"fredetl/internal/schema"
	"fredetl/internal/store"
)

// Options API 运行参数
type Options struct {
	Engine         engine.Options
	UploadDir      string // 上传文件暂存目录，为空时用系统临时目录
	ExportDir      string // 导出文件暂存目录，为空时用系统临时目录
	MaxUploadBytes int64
	DownloadTTL    time.Duration
}

// Handler API 处理器
type Handler struct {
	store       *store.Store
	registry    *schema.Registry
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore
	opts        Options
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, registry *schema.Registry, opts Options) *Handler {
	if opts.UploadDir == "" {
		opts.UploadDir = os.TempDir()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = os.TempDir()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = 30 * time.Minute
	}
	return &Handler{
		store:       st,
		registry:    registry,
		coordinator: importer.NewCoordinator(st, registry, opts.Engine),
		downloads:   newExportDownloadStore(opts.DownloadTTL),
		opts:        opts,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 科目表
	router.GET("/schemas", h.ListSchemas)

	// 设置
	router.GET("/settings", h.GetSettings)
	router.PATCH("/settings", h.UpdateSettings)

	// 提取
	router.POST("/extract", h.Extract)

	// 运行记录
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)
	router.GET("/runs/:id/cells", h.GetRunCells)
	router.DELETE("/runs/:id", h.DeleteRun)

	// 导出
	router.POST("/runs/:id/export", h.ExportRun)
	router.GET("/export/download/:token", h.DownloadExport)
}
