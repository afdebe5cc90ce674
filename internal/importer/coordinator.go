package importer

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fredetl/internal/engine"
	"fredetl/internal/loader"
	"fredetl/internal/model"
	"fredetl/internal/parser"
	"fredetl/internal/schema"
	"fredetl/internal/store"
)

const (
	// DefaultKind 未指定报表类型且无配置时使用
	DefaultKind = "balance-sheet"
	// KindAuto 按网格内容自动识别报表类型
	KindAuto = "auto"
)

// ErrUnrecognized 自动识别失败
var ErrUnrecognized = errors.New("statement kind not recognized")

// IsAuto 是否要求自动识别
func IsAuto(kind string) bool {
	return strings.EqualFold(strings.TrimSpace(kind), KindAuto)
}

// 进度事件类型
const (
	EventStart     = "start"
	EventLoaded    = "loaded"
	EventExtracted = "extracted"
	EventDone      = "done"
	EventError     = "error"
)

// Coordinator 导入协调器：读取文件 → 提取 → 持久化
type Coordinator struct {
	store    *store.Store
	registry *schema.Registry
	engine   engine.Options
}

// NewCoordinator 创建导入协调器；store 为 nil 时不记录运行历史
func NewCoordinator(st *store.Store, registry *schema.Registry, opts engine.Options) *Coordinator {
	return &Coordinator{
		store:    st,
		registry: registry,
		engine:   opts,
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	Filename string // 展示用文件名，为空时取 FilePath 的文件名
	Kind     string // 科目表 ID 或简称（BS / PL）
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/loaded/extracted/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// Summary done 事件附带的数据
type Summary struct {
	RunID    string        `json:"runId"`
	Filename string        `json:"filename"`
	Duration time.Duration `json:"duration"`
	Result   *model.Result `json:"result"`
}

// Import 执行导入，返回进度通道
func (c *Coordinator) Import(opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 16)

	go func() {
		defer close(progressChan)
		c.doImport(opts, progressChan)
	}()

	return progressChan
}

// EffectiveKind 按请求、已保存的默认值、内置默认值的顺序确定报表类型
func (c *Coordinator) EffectiveKind(kind string) string {
	kind = strings.TrimSpace(kind)
	if kind == "" && c.store != nil {
		if v, err := c.store.GetConfig(store.ConfigDefaultKind); err == nil {
			kind = v
		}
	}
	if kind == "" {
		kind = DefaultKind
	}
	return kind
}

// ResolveSchema 确定科目表；自动识别需要网格，这里返回错误
func (c *Coordinator) ResolveSchema(kind string) (*schema.Schema, error) {
	kind = c.EffectiveKind(kind)
	if IsAuto(kind) {
		return nil, fmt.Errorf("%w: kind %q is resolved after loading", schema.ErrUnknownSchema, kind)
	}
	return c.registry.Get(kind)
}

// Detect 按网格内容识别科目表
func (c *Coordinator) Detect(grid model.Grid) (*schema.Schema, parser.Recognition, error) {
	headerRows := c.engine.HeaderRows
	if headerRows <= 0 {
		headerRows = parser.DefaultHeaderRows
	}
	rec := parser.Recognize(parser.NewSheet(grid), c.registry.List(), headerRows)
	if !rec.Recognized() {
		return nil, rec, ErrUnrecognized
	}
	s, err := c.registry.Get(rec.SchemaID)
	return s, rec, err
}

func (c *Coordinator) engineOptions() engine.Options {
	opts := c.engine
	if c.store != nil {
		if tol, err := c.store.GetConfigFloat(store.ConfigTolerance); err == nil && tol >= 0 {
			opts.Tolerance = tol
		} else if err != nil && !errors.Is(err, store.ErrConfigNotFound) {
			log.Printf("[importer] ignore stored tolerance: %v", err)
		}
	}
	return opts
}

func (c *Coordinator) doImport(opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()
	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventStart,
		Message: "开始提取",
		Data: map[string]string{
			"filename": filename,
			"kind":     opts.Kind,
		},
		Timestamp: time.Now(),
	})

	kind := c.EffectiveKind(opts.Kind)
	auto := IsAuto(kind)

	var s *schema.Schema
	schemaID, schemaVersion := KindAuto, ""
	if !auto {
		var err error
		if s, err = c.registry.Get(kind); err != nil {
			c.fail(progressChan, "", fmt.Sprintf("报表类型无效: %v", err))
			return
		}
		schemaID, schemaVersion = s.ID, s.Version
	}

	runID := uuid.NewString()
	if c.store != nil {
		if err := c.store.CreateRun(runID, filename, schemaID, schemaVersion); err != nil {
			c.fail(progressChan, "", fmt.Sprintf("创建运行记录失败: %v", err))
			return
		}
	}

	grid, err := loader.LoadFile(opts.FilePath)
	if err != nil {
		c.fail(progressChan, runID, fmt.Sprintf("读取文件失败: %v", err))
		return
	}

	loaded := map[string]interface{}{
		"run_id": runID,
		"rows":   grid.Rows(),
		"cols":   grid.Cols(),
	}
	if auto {
		detected, rec, err := c.Detect(grid)
		if err != nil {
			c.fail(progressChan, runID, fmt.Sprintf("无法识别报表类型: %v", err))
			return
		}
		s = detected
		if c.store != nil {
			if err := c.store.UpdateRunSchema(runID, s.ID, s.Version); err != nil {
				c.fail(progressChan, runID, fmt.Sprintf("更新运行记录失败: %v", err))
				return
			}
		}
		loaded["schema"] = s.ID
		loaded["confidence"] = rec.Confidence
	}
	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventLoaded,
		Message:   fmt.Sprintf("读取完成: %d 行 × %d 列", grid.Rows(), grid.Cols()),
		Data:      loaded,
		Timestamp: time.Now(),
	})

	res, err := engine.Run(grid, s, c.engineOptions())
	if err != nil {
		c.fail(progressChan, runID, fmt.Sprintf("提取失败: %v", err))
		return
	}
	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventExtracted,
		Message: fmt.Sprintf("%s: %d 个科目, %d 条勾稽异常", s.Name, len(res.Table.Rows), len(res.Findings)),
		Data: map[string]interface{}{
			"run_id":   runID,
			"items":    len(res.Table.Rows),
			"findings": len(res.Findings),
			"balanced": res.Balanced(),
		},
		Timestamp: time.Now(),
	})

	if c.store != nil {
		if err := c.store.FinishRun(runID, res); err != nil {
			c.fail(progressChan, runID, fmt.Sprintf("保存结果失败: %v", err))
			return
		}
	}

	log.Printf("[importer] run %s: %s (%s) %d items, %d findings in %s",
		runID, filename, s.ID, len(res.Table.Rows), len(res.Findings), time.Since(startTime))

	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventDone,
		Message: "提取完成",
		Data: &Summary{
			RunID:    runID,
			Filename: filename,
			Duration: time.Since(startTime),
			Result:   res,
		},
		Timestamp: time.Now(),
	})
}

// fail 记录失败并发送 error 事件
func (c *Coordinator) fail(ch chan ProgressEvent, runID, message string) {
	log.Printf("[importer] %s", message)
	if c.store != nil && runID != "" {
		if err := c.store.FailRun(runID, message); err != nil {
			log.Printf("[importer] failed to mark run %s failed: %v", runID, err)
		}
	}
	c.sendProgress(ch, ProgressEvent{
		Type:      EventError,
		Message:   message,
		Data:      map[string]string{"run_id": runID},
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
