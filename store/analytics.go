package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

type (
	TaskStat struct {
		IsCompleted bool  `json:"isCompleted"`
		Count       int64 `json:"count"`
	}

	RecentTask struct {
		Task
		UserName string `json:"userName"`
	}

	DayProgress struct {
		Date  string `json:"date"`
		Count int64  `json:"count"`
	}

	SearchResult struct {
		ID          int64     `json:"id"`
		Title       string    `json:"title"`
		IsCompleted bool      `json:"isCompleted"`
		Priority    Priority  `json:"priority"`
		CreatedAt   time.Time `json:"createdAt"`
		UserID      int64     `json:"userId"`
		UserName    string    `json:"user_name"`
	}
)

func (s *Store) TaskStats(ctx context.Context, userID int64) ([]TaskStat, error) {
	rows, err := s.db.QueryContext(ctx, `select is_completed, count(*) from tasks
		where user_id = $1 group by is_completed order by is_completed`, userID)
	if err != nil {
		return nil, fmt.Errorf("unable to compute task stats, cause %w", err)
	}
	defer rows.Close()
	out := []TaskStat{}
	for rows.Next() {
		var st TaskStat
		if err := rows.Scan(&st.IsCompleted, &st.Count); err != nil {
			return nil, fmt.Errorf("unable to scan task stats, cause %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) RecentTasks(ctx context.Context, userID int64, limit int) ([]RecentTask, error) {
	rows, err := s.db.QueryContext(ctx, `select t.id, t.title, t.is_completed, t.priority, t.user_id, t.created_at, u.name
		from tasks t inner join users u on u.id = t.user_id
		where t.user_id = $1
		order by t.created_at desc, t.id desc
		limit $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to list recent tasks, cause %w", err)
	}
	defer rows.Close()
	out := []RecentTask{}
	for rows.Next() {
		var rt RecentTask
		var priority string
		err := rows.Scan(&rt.ID, &rt.Title, &rt.IsCompleted, &priority, &rt.UserID, &rt.CreatedAt, &rt.UserName)
		if err != nil {
			return nil, fmt.Errorf("unable to scan recent task, cause %w", err)
		}
		rt.Priority = Priority(priority)
		out = append(out, rt)
	}
	return out, rows.Err()
}

// DailyProgress counts tasks created by userID since the given instant,
// grouped by UTC calendar day. Grouping happens here to keep the SQL
// portable between engines.
func (s *Store) DailyProgress(ctx context.Context, userID int64, since time.Time) ([]DayProgress, error) {
	rows, err := s.db.QueryContext(ctx, `select created_at from tasks
		where user_id = $1 and created_at >= $2`, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("unable to compute progress, cause %w", err)
	}
	defer rows.Close()
	days := map[string]int64{}
	for rows.Next() {
		var created time.Time
		if err := rows.Scan(&created); err != nil {
			return nil, fmt.Errorf("unable to scan progress, cause %w", err)
		}
		days[created.UTC().Format("2006-01-02")]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]DayProgress, 0, len(days))
	for d, c := range days {
		out = append(out, DayProgress{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// SearchTasks matches q against task titles and owner names, exact title
// matches first, then prefix matches, then everything else.
func (s *Store) SearchTasks(ctx context.Context, q string, limit int) ([]SearchResult, error) {
	lowered := strings.ToLower(strings.TrimSpace(q))
	contains := likePattern(lowered)
	prefix := strings.TrimSuffix(contains[1:], "%") + "%"
	rows, err := s.db.QueryContext(ctx, `select t.id, t.title, t.is_completed, t.priority, t.created_at, t.user_id, u.name
		from tasks t inner join users u on t.user_id = u.id
		where lower(t.title) like $1 escape '\' or lower(u.name) like $1 escape '\'
		order by
			case
				when lower(t.title) = $2 then 1
				when lower(t.title) like $3 escape '\' then 2
				when lower(t.title) like $1 escape '\' then 3
				else 4
			end,
			t.created_at desc
		limit $4`, contains, lowered, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to search tasks, cause %w", err)
	}
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		var priority string
		err := rows.Scan(&r.ID, &r.Title, &r.IsCompleted, &priority, &r.CreatedAt, &r.UserID, &r.UserName)
		if err != nil {
			return nil, fmt.Errorf("unable to scan search result, cause %w", err)
		}
		r.Priority = Priority(priority)
		out = append(out, r)
	}
	return out, rows.Err()
}
