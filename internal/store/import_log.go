package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ImportLog 一次成功导入的记录
type ImportLog struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"sessionId"`
	Target       string    `json:"target"`
	Filename     string    `json:"filename"`
	Encoding     string    `json:"encoding"`
	Delimiter    string    `json:"delimiter"`
	RecordCount  int       `json:"recordCount"`
	DroppedCount int       `json:"droppedCount"`
	SkippedCount int       `json:"skippedCount"`
	Warnings     []string  `json:"warnings"`
	DurationMs   int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateImportLog 写入导入日志，返回 id
func (s *Store) CreateImportLog(ctx context.Context, l ImportLog) (int64, error) {
	warnings := l.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	data, err := json.Marshal(warnings)
	if err != nil {
		return 0, fmt.Errorf("failed to encode warnings: %w", err)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (session_id, target, filename, encoding, delim,
			record_count, dropped_count, skipped_count, warnings, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.SessionID, l.Target, l.Filename, l.Encoding, l.Delimiter,
		l.RecordCount, l.DroppedCount, l.SkippedCount, string(data), l.DurationMs, l.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// ListImportLogs 最近的导入日志，按时间倒序；limit <= 0 时取 50 条
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, target, filename, encoding, delim,
			record_count, dropped_count, skipped_count, warnings, duration_ms, created_at
		FROM import_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer rows.Close()

	logs := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		var warnings string
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Target, &l.Filename, &l.Encoding, &l.Delimiter,
			&l.RecordCount, &l.DroppedCount, &l.SkippedCount, &warnings, &l.DurationMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &l.Warnings); err != nil {
			l.Warnings = []string{}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
