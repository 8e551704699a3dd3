package taskcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mediacraft/internal/config"
	"mediacraft/internal/tasks"
)

// Store manages the local task mirror backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS cached_tasks (
    task_id TEXT PRIMARY KEY,
    task_type TEXT NOT NULL,
    status TEXT NOT NULL,
    progress_percent INTEGER NOT NULL DEFAULT 0,
    progress_message TEXT,
    error_message TEXT,
    original_filename TEXT,
    file_size INTEGER NOT NULL DEFAULT 0,
    config_json TEXT,
    created_at TEXT,
    started_at TEXT,
    completed_at TEXT,
    synced_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cached_tasks_status ON cached_tasks (status);
`

// Open initializes or connects to the cache database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "tasks.db"))
}

// OpenPath opens a cache database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put upserts one task snapshot.
func (s *Store) Put(ctx context.Context, task *tasks.Task) error {
	if task == nil || task.TaskID == "" {
		return errors.New("task is nil or has no id")
	}

	configJSON, err := json.Marshal(task.Config)
	if err != nil {
		return fmt.Errorf("marshal task config: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO cached_tasks (
            task_id, task_type, status, progress_percent, progress_message,
            error_message, original_filename, file_size, config_json,
            created_at, started_at, completed_at, synced_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (task_id) DO UPDATE SET
            task_type = excluded.task_type,
            status = excluded.status,
            progress_percent = excluded.progress_percent,
            progress_message = excluded.progress_message,
            error_message = excluded.error_message,
            original_filename = excluded.original_filename,
            file_size = excluded.file_size,
            config_json = excluded.config_json,
            created_at = excluded.created_at,
            started_at = excluded.started_at,
            completed_at = excluded.completed_at,
            synced_at = excluded.synced_at`,
		task.TaskID,
		string(task.TaskType),
		string(task.Status),
		task.ProgressPercentage,
		nullableString(task.ProgressMessage),
		nullableString(task.ErrorMessage),
		nullableString(task.OriginalFilename),
		task.FileSize,
		string(configJSON),
		nullableTimeValue(task.CreatedAt),
		nullableTime(task.StartedAt),
		nullableTime(task.CompletedAt),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// PutAll upserts a batch of snapshots, typically a list response.
func (s *Store) PutAll(ctx context.Context, list []tasks.Task) error {
	for i := range list {
		if err := s.Put(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get fetches one cached task, or nil when the task is unknown.
func (s *Store) Get(ctx context.Context, taskID string) (*tasks.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM cached_tasks WHERE task_id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached task: %w", err)
	}
	return task, nil
}

// List returns cached tasks filtered by status (or all when none is given),
// newest first.
func (s *Store) List(ctx context.Context, statuses ...tasks.Status) ([]*tasks.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + taskColumns + ` FROM cached_tasks`
	orderClause := ` ORDER BY created_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list cached tasks: %w", err)
	}
	defer rows.Close()

	var items []*tasks.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, task)
	}
	return items, rows.Err()
}

// Remove deletes one cached task.
func (s *Store) Remove(ctx context.Context, taskID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cached_tasks WHERE task_id = ?`, taskID)
	if err != nil {
		return false, fmt.Errorf("delete cached task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearTerminal removes cached tasks that have finished.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM cached_tasks WHERE status IN (?, ?, ?)`,
		string(tasks.StatusCompleted),
		string(tasks.StatusFailed),
		string(tasks.StatusCancelled),
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished tasks: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of cached tasks grouped by status.
func (s *Store) Stats(ctx context.Context) (map[tasks.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM cached_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[tasks.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[tasks.Status(status)] = count
	}
	return stats, rows.Err()
}

const taskColumns = "task_id, task_type, status, progress_percent, progress_message, error_message, original_filename, file_size, config_json, created_at, started_at, completed_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*tasks.Task, error) {
	var (
		taskID          string
		taskType        string
		status          string
		progressPercent sql.NullInt64
		progressMessage sql.NullString
		errorMessage    sql.NullString
		filename        sql.NullString
		fileSize        sql.NullInt64
		configJSON      sql.NullString
		createdRaw      sql.NullString
		startedRaw      sql.NullString
		completedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&taskID,
		&taskType,
		&status,
		&progressPercent,
		&progressMessage,
		&errorMessage,
		&filename,
		&fileSize,
		&configJSON,
		&createdRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	task := &tasks.Task{
		TaskID:             taskID,
		TaskType:           tasks.TaskType(taskType),
		Status:             tasks.Status(status),
		ProgressPercentage: int(progressPercent.Int64),
		ProgressMessage:    progressMessage.String,
		ErrorMessage:       errorMessage.String,
		OriginalFilename:   filename.String,
		FileSize:           fileSize.Int64,
	}
	if configJSON.Valid && configJSON.String != "" {
		if err := json.Unmarshal([]byte(configJSON.String), &task.Config); err != nil {
			return nil, fmt.Errorf("parse cached config: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			task.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			task.CompletedAt = &completed
		}
	}
	return task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTimeValue(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
