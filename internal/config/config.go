package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// 环境变量覆盖项
const (
	EnvDataDir   = "FREDETL_DATA_DIR"
	EnvSchemaDir = "FREDETL_SCHEMA_DIR"
	EnvPort      = "FREDETL_PORT"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Extract ExtractConfig `toml:"extract"`
	Upload  UploadConfig  `toml:"upload"`
	Export  ExportConfig  `toml:"export"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置（sqlite、上传与导出文件）
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ExtractConfig 提取参数
type ExtractConfig struct {
	HeaderRows int     `toml:"header_rows"`
	Tolerance  float64 `toml:"tolerance"`
	SchemaDir  string  `toml:"schema_dir"` // 额外科目表目录，为空时只用内置
}

// UploadConfig 上传限制
type UploadConfig struct {
	MaxSizeMB int64 `toml:"max_size_mb"`
}

// ExportConfig 导出下载
type ExportConfig struct {
	DownloadTTL string `toml:"download_ttl"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Extract: ExtractConfig{
			HeaderRows: 20,
			Tolerance:  0.01,
		},
		Upload: UploadConfig{
			MaxSizeMB: 10,
		},
		Export: ExportConfig{
			DownloadTTL: "30m",
		},
	}
}

// MaxUploadBytes 上传大小上限
func (c *AppConfig) MaxUploadBytes() int64 {
	if c.Upload.MaxSizeMB <= 0 {
		return 10 << 20
	}
	return c.Upload.MaxSizeMB << 20
}

// DownloadTTL 导出下载令牌有效期，无法解析时 30 分钟
func (c *AppConfig) DownloadTTL() time.Duration {
	d, err := time.ParseDuration(c.Export.DownloadTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrCwd() string {
	exeDir, err := GetExeDir()
	if err != nil || exeDir == "" {
		// 无法获取可执行文件目录，使用当前目录
		return "."
	}
	return exeDir
}

// LoadFile 读取指定配置文件；文件不存在时返回默认配置。随后应用环境变量覆盖
func LoadFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（用于容器 / 本地运行）
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(EnvSchemaDir); v != "" {
		config.Extract.SchemaDir = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %q", EnvPort, v)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	return nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(filepath.Join(exeDirOrCwd(), "config.toml"))
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo()
	return config, err
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exeDirOrCwd(), "config.toml"), data, 0644)
}

// ResolveDataDir 数据目录的绝对位置：相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(exeDirOrCwd(), config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
