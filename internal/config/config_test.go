package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fredetl/internal/config"
)

func TestLoadFileDefaults(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvSchemaDir, "")
	t.Setenv(config.EnvPort, "")

	cfg, info, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if info.PortSpecified {
		t.Fatalf("port should not be marked specified")
	}
	if cfg.Extract.HeaderRows != 20 || cfg.Extract.Tolerance != 0.01 || cfg.Data.DataDir != "data" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DownloadTTL() != 30*time.Minute || cfg.MaxUploadBytes() != 10<<20 {
		t.Fatalf("ttl=%v max=%d", cfg.DownloadTTL(), cfg.MaxUploadBytes())
	}
}

func TestLoadFileOverrides(t *testing.T) {
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvSchemaDir, "/opt/schemas")
	t.Setenv(config.EnvPort, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 8088

[extract]
header_rows = 30
tolerance = 1.0

[upload]
max_size_mb = 2

[export]
download_ttl = "5m"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, info, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !info.PortSpecified || cfg.Server.Port != 8088 {
		t.Fatalf("port=%d specified=%v", cfg.Server.Port, info.PortSpecified)
	}
	if cfg.Extract.HeaderRows != 30 || cfg.Extract.Tolerance != 1.0 || cfg.Extract.SchemaDir != "/opt/schemas" {
		t.Fatalf("extract=%+v", cfg.Extract)
	}
	if cfg.Data.DataDir != "data" {
		t.Fatalf("unspecified keys should keep defaults: %+v", cfg.Data)
	}
	if cfg.DownloadTTL() != 5*time.Minute || cfg.MaxUploadBytes() != 2<<20 {
		t.Fatalf("ttl=%v max=%d", cfg.DownloadTTL(), cfg.MaxUploadBytes())
	}
}

func TestLoadFileEnvPort(t *testing.T) {
	t.Setenv(config.EnvDataDir, "/var/lib/fredetl")
	t.Setenv(config.EnvSchemaDir, "")
	t.Setenv(config.EnvPort, "9000")

	cfg, info, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Port != 9000 || !info.PortSpecified {
		t.Fatalf("port=%d specified=%v", cfg.Server.Port, info.PortSpecified)
	}
	if got := config.ResolveDataDir(cfg); got != "/var/lib/fredetl" {
		t.Fatalf("data dir=%s", got)
	}

	t.Setenv(config.EnvPort, "abc")
	if _, _, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}

func TestLoadFileInvalidToml(t *testing.T) {
	t.Setenv(config.EnvPort, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := config.LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnsureDataDir(t *testing.T) {
	t.Setenv(config.EnvPort, "")

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "store")

	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	for _, sub := range []string{"uploads", "exports"} {
		if st, err := os.Stat(filepath.Join(dir, sub)); err != nil || !st.IsDir() {
			t.Fatalf("missing %s: %v", sub, err)
		}
	}
	if got := config.GetDataPath(cfg, "exports", "a.xlsx"); got != filepath.Join(dir, "exports", "a.xlsx") {
		t.Fatalf("GetDataPath=%s", got)
	}
}
