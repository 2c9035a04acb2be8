package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Task is a single todo item owned by one user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusFilter narrows ListTasks by completion state.
type StatusFilter int

const (
	StatusAll StatusFilter = iota
	StatusPending
	StatusCompleted
)

func (f StatusFilter) String() string {
	switch f {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "all"
	}
}

// ParseStatusFilter maps free-text status synonyms onto a StatusFilter.
// Unrecognised values, including "", select every task.
func ParseStatusFilter(s string) StatusFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "incomplete", "open":
		return StatusPending
	case "completed", "done", "closed":
		return StatusCompleted
	default:
		return StatusAll
	}
}

const taskColumns = `id, user_id, title, description, completed, created_at, updated_at`

// AddTask creates an incomplete task for owner. The title is trimmed and
// must not be empty.
func (s *Store) AddTask(ctx context.Context, owner, title string, description *string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}

	ts := formatTime(now())
	var task *Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, s.rebind(
			`INSERT INTO tasks (user_id, title, description, completed, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
			owner, title, nullableString(description), false, ts, ts,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("store: insert task: %w", err)
		}

		task, err = s.getTask(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns owner's tasks in ascending id order.
func (s *Store) ListTasks(ctx context.Context, owner string, filter StatusFilter) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{owner}
	switch filter {
	case StatusPending:
		query += ` AND completed = ?`
		args = append(args, false)
	case StatusCompleted:
		query += ` AND completed = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id ASC`

	tasks := []*Task{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			return fmt.Errorf("store: list tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns one of owner's tasks.
func (s *Store) GetTask(ctx context.Context, owner string, id int64) (*Task, error) {
	var task *Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		task, err = s.getTask(ctx, tx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask marks a task completed. Completing a completed task
// succeeds and only refreshes updated_at.
func (s *Store) CompleteTask(ctx context.Context, owner string, id int64) (*Task, error) {
	return s.mutateTask(ctx, owner, id, func(t *Task) error {
		t.Completed = true
		return nil
	})
}

// ToggleTask flips a task's completion state.
func (s *Store) ToggleTask(ctx context.Context, owner string, id int64) (*Task, error) {
	return s.mutateTask(ctx, owner, id, func(t *Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

// UpdateTask overwrites only the non-nil fields. A supplied title is
// trimmed and must not be empty. updated_at is refreshed even when both
// fields are nil.
func (s *Store) UpdateTask(ctx context.Context, owner string, id int64, title, description *string) (*Task, error) {
	var newTitle string
	if title != nil {
		newTitle = strings.TrimSpace(*title)
		if newTitle == "" {
			return nil, fmt.Errorf("title must not be empty: %w", ErrValidation)
		}
	}

	return s.mutateTask(ctx, owner, id, func(t *Task) error {
		if title != nil {
			t.Title = newTitle
		}
		if description != nil {
			d := *description
			t.Description = &d
		}
		return nil
	})
}

// DeleteTask removes one of owner's tasks.
func (s *Store) DeleteTask(ctx context.Context, owner string, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, owner)
		if err != nil {
			return fmt.Errorf("store: delete task: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("store: delete task: %w", err)
		}
		if n == 0 {
			return taskNotFound(id)
		}
		return nil
	})
}

// mutateTask loads, changes and rewrites a task in one transaction.
func (s *Store) mutateTask(ctx context.Context, owner string, id int64, change func(*Task) error) (*Task, error) {
	var task *Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := s.getTask(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if err := change(t); err != nil {
			return err
		}
		t.UpdatedAt = now()

		_, err = tx.ExecContext(ctx, s.rebind(
			`UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`),
			t.Title, nullableString(t.Description), t.Completed, formatTime(t.UpdatedAt), id, owner,
		)
		if err != nil {
			return fmt.Errorf("store: update task: %w", err)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) getTask(ctx context.Context, tx *sql.Tx, owner string, id int64) (*Task, error) {
	row := tx.QueryRowContext(ctx, s.rebind(
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`), id, owner)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, taskNotFound(id)
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (*Task, error) {
	var (
		t                Task
		desc             sql.NullString
		created, updated string
	)
	if err := sc.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Completed, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan task: %w", err)
	}
	t.Description = stringPtr(desc)

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("store: task %d created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("store: task %d updated_at: %w", t.ID, err)
	}
	return &t, nil
}

func taskNotFound(id int64) error {
	return fmt.Errorf("task id %d %w", id, ErrNotFound)
}
