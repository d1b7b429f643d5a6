// Package api serves the read-only analytics endpoints.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/andrebq/taskbox/internal/reqparams"
	"github.com/andrebq/taskbox/internal/validation"
	"github.com/andrebq/taskbox/store"
)

type (
	Store interface {
		UserByID(ctx context.Context, id int64) (*store.User, error)
		CountUsers(ctx context.Context) (int64, error)
		ListUsersWithStats(ctx context.Context, page store.Page) ([]store.UserWithStats, error)
		TaskStats(ctx context.Context, userID int64) ([]store.TaskStat, error)
		RecentTasks(ctx context.Context, userID int64, limit int) ([]store.RecentTask, error)
		DailyProgress(ctx context.Context, userID int64, since time.Time) ([]store.DayProgress, error)
		SearchTasks(ctx context.Context, q string, limit int) ([]store.SearchResult, error)
	}

	Handlers struct {
		store Store
		now   func() time.Time
	}

	userAnalytics struct {
		TaskStats      []store.TaskStat    `json:"taskStats"`
		RecentTasks    []store.RecentTask  `json:"recentTasks"`
		WeeklyProgress []store.DayProgress `json:"weeklyProgress"`
	}

	usersResponse struct {
		Users      []store.UserWithStats `json:"users"`
		Pagination store.Pagination      `json:"pagination"`
	}

	pageQuery struct {
		Page  int `json:"page" validate:"gte=1"`
		Limit int `json:"limit" validate:"gte=1,lte=100"`
	}

	searchQuery struct {
		Q     string `json:"q" validate:"required,min=2,max=100"`
		Limit int    `json:"limit" validate:"gte=1,lte=100"`
	}

	searchResponse struct {
		Results []store.SearchResult `json:"results"`
		Query   string               `json:"query"`
		Count   int                  `json:"count"`
	}
)

const (
	recentTaskCount = 10
	progressWindow  = 7 * 24 * time.Hour
)

func New(st Store) *Handlers {
	return &Handlers{store: st, now: time.Now}
}

// User handles GET /api/analytics/users/:id.
func (h *Handlers) User(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := reqparams.PathID(r, "id", "The user ID passed is not valid.")
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	_, err = h.store.UserByID(ctx, id)
	var missing store.UserNotFound
	if errors.As(err, &missing) {
		apierr.Write(w, r, apierr.NotFoundError{Message: "User not found"})
		return
	} else if err != nil {
		apierr.Write(w, r, err)
		return
	}
	var out userAnalytics
	if out.TaskStats, err = h.store.TaskStats(ctx, id); err != nil {
		apierr.Write(w, r, err)
		return
	}
	if out.RecentTasks, err = h.store.RecentTasks(ctx, id, recentTaskCount); err != nil {
		apierr.Write(w, r, err)
		return
	}
	if out.WeeklyProgress, err = h.store.DailyProgress(ctx, id, h.now().Add(-progressWindow)); err != nil {
		apierr.Write(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, out)
}

// Users handles GET /api/analytics/users.
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := reqparams.NewQuery(r)
	pq := pageQuery{Page: q.Int("page", 1), Limit: q.Int("limit", 10)}
	if err := q.Merge(validation.Struct(&pq)); err != nil {
		apierr.Write(w, r, err)
		return
	}
	page := store.Page{Page: pq.Page, Limit: pq.Limit}
	users, err := h.store.ListUsersWithStats(ctx, page)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	total, err := h.store.CountUsers(ctx)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, usersResponse{Users: users, Pagination: page.Describe(total)})
}

// Search handles GET /api/analytics/tasks/search.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q := reqparams.NewQuery(r)
	sq := searchQuery{Q: q.String("q", ""), Limit: q.Int("limit", 20)}
	if err := q.Merge(validation.Struct(&sq)); err != nil {
		apierr.Write(w, r, err)
		return
	}
	results, err := h.store.SearchTasks(r.Context(), sq.Q, sq.Limit)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, searchResponse{Results: results, Query: sq.Q, Count: len(results)})
}
