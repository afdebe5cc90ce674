package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

// 已知配置项
const (
	ConfigDefaultKind = "default_kind" // 上传未指定报表类型时使用
	ConfigTolerance   = "tolerance"    // 覆盖配置文件中的勾稽容差
)

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// GetConfigFloat 获取浮点数配置项
func (s *Store) GetConfigFloat(key string) (float64, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// SetConfigFloat 设置浮点数配置项
func (s *Store) SetConfigFloat(key string, value float64) error {
	return s.SetConfig(key, strconv.FormatFloat(value, 'f', -1, 64))
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}
