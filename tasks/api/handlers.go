// Package api exposes the task store over HTTP. Every handler expects the
// caller identity to be already attached to the request context.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/andrebq/taskbox/authprogram"
	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/andrebq/taskbox/internal/jsonbody"
	"github.com/andrebq/taskbox/internal/reqparams"
	"github.com/andrebq/taskbox/internal/validation"
	"github.com/andrebq/taskbox/store"
)

type (
	Store interface {
		CreateTask(ctx context.Context, t *store.Task) error
		CreateTasks(ctx context.Context, tasks []*store.Task) error
		GetTask(ctx context.Context, userID, id int64) (*store.Task, error)
		ListTasks(ctx context.Context, userID int64, q store.TaskQuery) ([]store.Task, int64, error)
		UpdateTask(ctx context.Context, userID, id int64, patch store.TaskPatch) (*store.Task, error)
		DeleteTask(ctx context.Context, userID, id int64) (*store.Task, error)
	}

	Handlers struct {
		store Store
	}

	TaskInput struct {
		Title       string         `json:"title" validate:"required,notblank,min=3,max=30"`
		IsCompleted bool           `json:"isCompleted"`
		Priority    store.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	}

	BulkInput struct {
		Tasks []TaskInput `json:"tasks" validate:"required,min=1,max=100,dive"`
	}

	PatchInput struct {
		Title       *string         `json:"title" validate:"omitempty,notblank,min=3,max=30"`
		IsCompleted *bool           `json:"isCompleted"`
		Priority    *store.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	}

	listQuery struct {
		Page          int    `json:"page" validate:"gte=1"`
		Limit         int    `json:"limit" validate:"gte=1,lte=100"`
		Find          string `json:"find" validate:"max=50"`
		SortBy        string `json:"sortBy" validate:"oneof=id createdAt title priority isCompleted"`
		SortDirection string `json:"sortDirection" validate:"oneof=asc desc"`
	}

	listResponse struct {
		Tasks      []store.Task     `json:"tasks"`
		Pagination store.Pagination `json:"pagination"`
	}

	bulkResponse struct {
		Message      string        `json:"message"`
		TasksCreated int           `json:"tasksCreated"`
		Tasks        []*store.Task `json:"tasks"`
	}
)

const (
	invalidTaskID = "The task ID passed is not valid."
	noChanges     = "No attributes to change were specified."
)

func New(st Store) *Handlers {
	return &Handlers{store: st}
}

func (t *TaskInput) normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Priority == "" {
		t.Priority = store.Medium
	}
}

func (t TaskInput) task(userID int64) *store.Task {
	return &store.Task{
		Title:       t.Title,
		IsCompleted: t.IsCompleted,
		Priority:    t.Priority,
		UserID:      userID,
	}
}

// Index handles GET /api/tasks.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	q := reqparams.NewQuery(r)
	lq := listQuery{
		Page:          q.Int("page", 1),
		Limit:         q.Int("limit", 10),
		Find:          q.String("find", ""),
		SortBy:        q.String("sortBy", "createdAt"),
		SortDirection: strings.ToLower(q.String("sortDirection", "desc")),
	}
	if err := q.Merge(validation.Struct(&lq)); err != nil {
		apierr.Write(w, r, err)
		return
	}
	page := store.Page{Page: lq.Page, Limit: lq.Limit}
	tasks, total, err := h.store.ListTasks(r.Context(), caller.ID, store.TaskQuery{
		Page:          page,
		Find:          lq.Find,
		SortBy:        lq.SortBy,
		SortDirection: lq.SortDirection,
	})
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	if total == 0 {
		apierr.Write(w, r, apierr.NotFoundError{Message: "No tasks found for this user."})
		return
	}
	apierr.WriteJSON(w, http.StatusOK, listResponse{Tasks: tasks, Pagination: page.Describe(total)})
}

// Create handles POST /api/tasks.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	var in TaskInput
	if err := jsonbody.Decode(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	in.normalize()
	if err := validation.Struct(&in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	task := in.task(caller.ID)
	if err := h.store.CreateTask(r.Context(), task); err != nil {
		apierr.Write(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, task)
}

// Bulk handles POST /api/tasks/bulk. Either every task is created or none.
func (h *Handlers) Bulk(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	var in BulkInput
	if err := jsonbody.Decode(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	for i := range in.Tasks {
		in.Tasks[i].normalize()
	}
	if err := validation.Struct(&in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	tasks := make([]*store.Task, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		tasks = append(tasks, t.task(caller.ID))
	}
	if err := h.store.CreateTasks(r.Context(), tasks); err != nil {
		apierr.Write(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, bulkResponse{
		Message:      fmt.Sprintf("Successfully created %v tasks", len(tasks)),
		TasksCreated: len(tasks),
		Tasks:        tasks,
	})
}

// Show handles GET /api/tasks/:id.
func (h *Handlers) Show(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := reqparams.PathID(r, "id", invalidTaskID)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	task, err := h.store.GetTask(r.Context(), caller.ID, id)
	if err != nil {
		apierr.Write(w, r, notFound(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, task)
}

// Update handles PATCH /api/tasks/:id.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := reqparams.PathID(r, "id", invalidTaskID)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	var in PatchInput
	if err := jsonbody.Decode(r, &in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	patch := store.TaskPatch{Title: in.Title, IsCompleted: in.IsCompleted, Priority: in.Priority}
	if patch.Empty() {
		apierr.Write(w, r, apierr.Invalid(noChanges))
		return
	}
	if err := validation.Struct(&in); err != nil {
		apierr.Write(w, r, err)
		return
	}
	task, err := h.store.UpdateTask(r.Context(), caller.ID, id, patch)
	if err != nil {
		apierr.Write(w, r, notFound(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/:id and returns the removed task.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, err := reqparams.PathID(r, "id", invalidTaskID)
	if err != nil {
		apierr.Write(w, r, err)
		return
	}
	task, err := h.store.DeleteTask(r.Context(), caller.ID, id)
	if err != nil {
		apierr.Write(w, r, notFound(err))
		return
	}
	apierr.WriteJSON(w, http.StatusOK, task)
}

func identity(w http.ResponseWriter, r *http.Request) (authprogram.Identity, bool) {
	id, ok := authprogram.IdentityFrom(r.Context())
	if !ok {
		apierr.Write(w, r, apierr.AuthenticationError{Reason: "missing identity"})
	}
	return id, ok
}

func notFound(err error) error {
	var missing store.TaskNotFound
	if errors.As(err, &missing) {
		return apierr.NotFoundError{Message: "That task was not found or user not owns it"}
	}
	return err
}
