package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fredetl/internal/model"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("run not found")

// RunStatus 运行状态
type RunStatus string

const (
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Run 一次提取运行的记录
type Run struct {
	ID            string        `json:"id"`
	Filename      string        `json:"filename"`
	SchemaID      string        `json:"schemaId"`
	SchemaVersion string        `json:"schemaVersion"`
	Status        RunStatus     `json:"status"`
	ErrorMessage  string        `json:"errorMessage,omitempty"`
	ItemCount     int           `json:"itemCount"`
	FindingCount  int           `json:"findingCount"`
	Balanced      bool          `json:"balanced"`
	ReportYear    int           `json:"reportYear,omitempty"`
	ReportMonth   int           `json:"reportMonth,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	Result        *model.Result `json:"result,omitempty"`
}

// CreateRun 新建运行记录（processing）
func (s *Store) CreateRun(id, filename, schemaID, schemaVersion string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, filename, schema_id, schema_version, status)
		VALUES (?, ?, ?, ?, ?)
	`, id, filename, schemaID, schemaVersion, RunProcessing)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun 保存提取结果并标记完成
func (s *Store) FinishRun(id string, result *model.Result) error {
	if result == nil {
		return errors.New("nil result")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	itemCount := 0
	if result.Table != nil {
		itemCount = len(result.Table.Rows)
	}
	res, err := s.db.Exec(`
		UPDATE runs SET
			status = ?,
			item_count = ?,
			finding_count = ?,
			balanced = ?,
			report_year = ?,
			report_month = ?,
			result_json = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, RunCompleted, itemCount, len(result.Findings), result.Balanced(),
		result.ReportYear, result.ReportMonth, string(payload), id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return requireRow(res, id)
}

// UpdateRunSchema 自动识别后回填科目表
func (s *Store) UpdateRunSchema(id, schemaID, schemaVersion string) error {
	res, err := s.db.Exec(`UPDATE runs SET schema_id = ?, schema_version = ? WHERE id = ?`, schemaID, schemaVersion, id)
	if err != nil {
		return fmt.Errorf("failed to update run schema: %w", err)
	}
	return requireRow(res, id)
}

// FailRun 标记运行失败
func (s *Store) FailRun(id, message string) error {
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, RunFailed, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

const runColumns = `id, filename, schema_id, schema_version, status, error_message,
	item_count, finding_count, balanced, report_year, report_month, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner, extra ...interface{}) (*Run, error) {
	var (
		r         Run
		completed sql.NullTime
	)
	dest := []interface{}{
		&r.ID, &r.Filename, &r.SchemaID, &r.SchemaVersion, &r.Status, &r.ErrorMessage,
		&r.ItemCount, &r.FindingCount, &r.Balanced, &r.ReportYear, &r.ReportMonth,
		&r.CreatedAt, &completed,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// GetRun 读取运行记录（含完整结果）
func (s *Store) GetRun(id string) (*Run, error) {
	var payload string
	row := s.db.QueryRow(`SELECT `+runColumns+`, result_json FROM runs WHERE id = ?`, id)
	r, err := scanRun(row, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if payload != "" {
		var result model.Result
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to decode result of run %s: %w", id, err)
		}
		r.Result = &result
	}
	return r, nil
}

// ListRuns 最近的运行记录（不含结果），limit<=0 时不限制
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun 删除运行记录
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return requireRow(res, id)
}
