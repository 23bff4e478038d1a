package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/tandem/pkg/models"
)

// ErrTaskNotFound is returned by GetTask for an unknown id.
var ErrTaskNotFound = errors.New("task not found")

// SaveTask inserts or replaces a task and its subtasks.
func (db *DB) SaveTask(ctx context.Context, task models.Task, subtasks []Subtask) error {
	deps, err := json.Marshal(task.Dependencies)
	if err != nil {
		return fmt.Errorf("encode dependencies: %w", err)
	}
	var analysis sql.NullString
	if task.Analysis != nil {
		b, err := json.Marshal(task.Analysis)
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		analysis = sql.NullString{String: string(b), Valid: true}
	}
	var completed sql.NullString
	if task.CompletedAt != nil {
		completed = sql.NullString{String: formatTime(*task.CompletedAt), Valid: true}
	}

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO tasks
				(id, description, priority, status, approach, assigned_worker, result, depends_on, analysis, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, task.Description, string(task.Priority), string(task.Status), string(task.Approach),
			task.AssignedWorker, task.Result, string(deps), analysis, formatTime(task.CreatedAt), completed)
		if err != nil {
			return fmt.Errorf("save task: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", task.ID); err != nil {
			return fmt.Errorf("clear subtasks: %w", err)
		}
		for i, s := range subtasks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO subtasks (task_id, position, worker, description, output, failed)
				VALUES (?, ?, ?, ?, ?, ?)
			`, task.ID, i, s.Worker, s.Description, s.Output, s.Failed)
			if err != nil {
				return fmt.Errorf("save subtask %d: %w", i, err)
			}
		}
		return nil
	})
}

const taskColumns = `id, description, priority, status, approach, assigned_worker, result, depends_on, analysis, created_at, completed_at`

// RecentTasks returns up to limit tasks, newest first.
func (db *DB) RecentTasks(ctx context.Context, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = 10
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// GetTask loads one task and its subtasks.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, []Subtask, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT worker, description, output, failed FROM subtasks WHERE task_id = ? ORDER BY position", id)
	if err != nil {
		return nil, nil, fmt.Errorf("query subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []Subtask
	for rows.Next() {
		var s Subtask
		var output sql.NullString
		if err := rows.Scan(&s.Worker, &s.Description, &output, &s.Failed); err != nil {
			return nil, nil, fmt.Errorf("scan subtask: %w", err)
		}
		s.Output = output.String
		subtasks = append(subtasks, s)
	}
	return task, subtasks, rows.Err()
}

// PurgeOlderThan deletes tasks created before now-age and returns how many
// were removed.
func (db *DB) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-age))

	var count int64
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE created_at < ?)", cutoff); err != nil {
			return fmt.Errorf("purge subtasks: %w", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE created_at < ?", cutoff)
		if err != nil {
			return fmt.Errorf("purge tasks: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	var (
		t                         models.Task
		priority, status          string
		approach, worker, result  sql.NullString
		deps, analysis, completed sql.NullString
		created                   string
	)
	err := s.Scan(&t.ID, &t.Description, &priority, &status, &approach, &worker, &result,
		&deps, &analysis, &created, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.Priority = models.Priority(priority)
	t.Status = models.TaskStatus(status)
	t.Approach = models.Approach(approach.String)
	t.AssignedWorker = worker.String
	t.Result = result.String
	t.CompletedAt = parseNullableTime(completed)

	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if deps.Valid && deps.String != "" && deps.String != "null" {
		if err := json.Unmarshal([]byte(deps.String), &t.Dependencies); err != nil {
			return nil, fmt.Errorf("decode dependencies: %w", err)
		}
	}
	if analysis.Valid {
		var a models.TaskAnalysis
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		t.Analysis = &a
	}
	return &t, nil
}
