package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	Priority string

	Task struct {
		ID          int64     `json:"id"`
		Title       string    `json:"title"`
		IsCompleted bool      `json:"isCompleted"`
		Priority    Priority  `json:"priority"`
		UserID      int64     `json:"-"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// TaskPatch carries only the fields that should change.
	TaskPatch struct {
		Title       *string
		IsCompleted *bool
		Priority    *Priority
	}

	Page struct {
		Page  int
		Limit int
	}

	TaskQuery struct {
		Page
		Find          string
		SortBy        string
		SortDirection string
	}
)

const (
	Low    = Priority("low")
	Medium = Priority("medium")
	High   = Priority("high")
)

var (
	taskSortColumns = map[string]string{
		"id":          "id",
		"createdAt":   "created_at",
		"title":       "title",
		"priority":    "priority",
		"isCompleted": "is_completed",
	}
)

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.IsCompleted == nil && p.Priority == nil
}

func (s *Store) CreateTask(ctx context.Context, t *Task) error {
	return insertTask(ctx, s.db, t)
}

// CreateTasks inserts every task or none of them.
func (s *Store) CreateTasks(ctx context.Context, tasks []*Task) error {
	return s.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		for _, t := range tasks {
			if err := insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertTask(ctx context.Context, db DBTX, t *Task) error {
	if t.Priority == "" {
		t.Priority = Medium
	}
	t.CreatedAt = time.Now().UTC()
	err := db.QueryRowContext(ctx, `insert into tasks(title, is_completed, priority, user_id, created_at)
		values ($1, $2, $3, $4, $5) returning id`,
		t.Title, t.IsCompleted, string(t.Priority), t.UserID, t.CreatedAt).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("unable to create task, cause %w", err)
	}
	return nil
}

// GetTask returns the task only when it belongs to userID, tasks owned by
// someone else are reported as TaskNotFound.
func (s *Store) GetTask(ctx context.Context, userID, id int64) (*Task, error) {
	return getTask(ctx, s.db, userID, id)
}

func getTask(ctx context.Context, db DBTX, userID, id int64) (*Task, error) {
	var t Task
	var priority string
	err := db.QueryRowContext(ctx, `select id, title, is_completed, priority, user_id, created_at
		from tasks where id = $1 and user_id = $2`, id, userID).
		Scan(&t.ID, &t.Title, &t.IsCompleted, &priority, &t.UserID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, TaskNotFound{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("unable to load task %v, cause %w", id, err)
	}
	t.Priority = Priority(priority)
	return &t, nil
}

// ListTasks returns the requested page of tasks owned by userID and the
// total number of tasks matching the filter.
func (s *Store) ListTasks(ctx context.Context, userID int64, q TaskQuery) ([]Task, int64, error) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}
	if q.Find != "" {
		args = append(args, likePattern(q.Find))
		where = append(where, fmt.Sprintf(`lower(title) like $%d escape '\'`, len(args)))
	}
	cond := strings.Join(where, " and ")

	var total int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`select count(*) from tasks where %v`, cond), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to count tasks, cause %w", err)
	}

	column, ok := taskSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "desc"
	if strings.EqualFold(q.SortDirection, "asc") {
		direction = "asc"
	}
	args = append(args, q.Limit, q.Offset())
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`select id, title, is_completed, priority, user_id, created_at
		from tasks where %v
		order by %v %v, id %v
		limit $%d offset $%d`, cond, column, direction, direction, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("unable to list tasks, cause %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *Store) UpdateTask(ctx context.Context, userID, id int64, patch TaskPatch) (*Task, error) {
	var updated *Task
	err := s.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		t, err := getTask(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.IsCompleted != nil {
			t.IsCompleted = *patch.IsCompleted
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		_, err = tx.ExecContext(ctx, `update tasks set title = $1, is_completed = $2, priority = $3
			where id = $4 and user_id = $5`, t.Title, t.IsCompleted, string(t.Priority), id, userID)
		if err != nil {
			return fmt.Errorf("unable to update task %v, cause %w", id, err)
		}
		updated = t
		return nil
	})
	return updated, err
}

// DeleteTask removes the task and returns its last state.
func (s *Store) DeleteTask(ctx context.Context, userID, id int64) (*Task, error) {
	var deleted *Task
	err := s.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		t, err := getTask(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `delete from tasks where id = $1 and user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("unable to delete task %v, cause %w", id, err)
		}
		deleted = t
		return nil
	})
	return deleted, err
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()
	out := []Task{}
	for rows.Next() {
		var t Task
		var priority string
		err := rows.Scan(&t.ID, &t.Title, &t.IsCompleted, &priority, &t.UserID, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan task, cause %w", err)
		}
		t.Priority = Priority(priority)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to read tasks, cause %w", err)
	}
	return out, nil
}

func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
