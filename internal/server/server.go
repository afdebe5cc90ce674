package server

import (
	"embed"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"fredetl/internal/api"
	"fredetl/internal/config"
	"fredetl/internal/engine"
	"fredetl/internal/schema"
	"fredetl/internal/store"
)

//go:embed web/index.html
var staticFiles embed.FS

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	registry, err := schema.Load(cfg.Extract.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	// 初始化 SQLite Store
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}
	sqliteStore, err := store.New(filepath.Join(dataDir, "fredetl.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	opts := api.Options{
		Engine: engine.Options{
			HeaderRows: cfg.Extract.HeaderRows,
			Tolerance:  cfg.Extract.Tolerance,
		},
		UploadDir:      filepath.Join(dataDir, "uploads"),
		ExportDir:      filepath.Join(dataDir, "exports"),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		DownloadTTL:    cfg.DownloadTTL(),
	}
	if devMode {
		opts.Engine.Logger = log.Default()
	}

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		api:    api.NewHandler(sqliteStore, registry, opts),
	}
	s.router.MaxMultipartMemory = cfg.MaxUploadBytes()

	s.setupRoutes(devMode)

	log.Printf("[server] %d schemas loaded, data dir %s", len(registry.List()), dataDir)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}

	s.router.GET("/", func(c *gin.Context) {
		data, err := staticFiles.ReadFile("web/index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭数据库
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
