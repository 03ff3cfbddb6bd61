// Package api serves the task collection over HTTP at /api/tasks.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/repository"
	"github.com/rs/cors"
)

const maxBodySize = 1 << 20

type Handler struct {
	log  *slog.Logger
	repo repository.TaskRepoIface
}

func NewHandler(log *slog.Logger, repo repository.TaskRepoIface) *Handler {
	return &Handler{
		log:  log.With(slog.String("division", "api")),
		repo: repo,
	}
}

// Register adds the task routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PUT /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/status", h.updateTaskStatus)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
}

// NewRouter returns the task API with request ids, recovery, access logging and
// CORS for allowedOrigins applied.
func NewRouter(
	log *slog.Logger,
	repo repository.TaskRepoIface,
	metrics *metrics.Metrics,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()
	NewHandler(log, repo).Register(mux)

	crs := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Accept", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return Chain(mux,
		WithRequestID,
		crs.Handler,
		WithRecover(log),
		WithAccessLog(log, metrics),
	)
}

type createRequest struct {
	EntityName    string `json:"entity_name"`
	TaskType      string `json:"task_type"`
	TaskTime      string `json:"task_time"`
	ContactPerson string `json:"contact_person"`
	Note          string `json:"note"`
}

// updateRequest reads task_time as text so a bad value gets its own message.
type updateRequest struct {
	models.Patch
	TaskTime *string `json:"task_time,omitempty"`
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.Filter{
		EntityName:    query.Get("entity_name"),
		TaskType:      query.Get("task_type"),
		Status:        models.Status(query.Get("status")),
		ContactPerson: query.Get("contact_person"),
	}

	var err error
	if filter.StartDate, err = dateParam(query.Get("start_date")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format")
		return
	}
	if filter.EndDate, err = dateParam(query.Get("end_date")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format")
		return
	}

	sort := models.Sort{
		Field: query.Get("sort_by"),
		Order: models.SortOrder(strings.ToLower(query.Get("sort_order"))),
	}

	tasks, err := h.repo.ListTasks(r.Context(), filter, sort)
	if err != nil {
		h.fail(w, r, "listTasks", err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.repo.GetTask(r.Context(), id)
	if err != nil {
		h.fail(w, r, "getTask", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"entity_name", req.EntityName},
		{"task_type", req.TaskType},
		{"task_time", req.TaskTime},
		{"contact_person", req.ContactPerson},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	taskTime, err := models.ParseTimestamp(req.TaskTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task_time format")
		return
	}

	task, err := h.repo.CreateTask(r.Context(), models.Draft{
		EntityName:    req.EntityName,
		TaskType:      req.TaskType,
		TaskTime:      taskTime,
		ContactPerson: req.ContactPerson,
		Note:          req.Note,
	})
	if err != nil {
		h.fail(w, r, "createTask", err)
		return
	}

	h.log.InfoContext(r.Context(), "Task created", sl.TaskID(task.ID))
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := req.Patch
	if req.TaskTime != nil {
		taskTime, err := models.ParseTimestamp(*req.TaskTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid task_time format")
			return
		}
		patch.TaskTime = &taskTime
	}

	task, err := h.repo.UpdateTask(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "updateTask", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "Status is required")
		return
	}

	task, err := h.repo.UpdateTaskStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, "updateTaskStatus", err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteTask(r.Context(), id); err != nil {
		h.fail(w, r, "deleteTask", err)
		return
	}

	h.log.InfoContext(r.Context(), "Task deleted", sl.TaskID(id))
	w.WriteHeader(http.StatusNoContent)
}

// fail maps a repository error onto a status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, opn string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, models.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid status. Must be either 'open' or 'closed'")
	case errors.Is(err, repository.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.ErrorContext(r.Context(), "Task store failure",
			"op", opn, "request_id", RequestIDFromContext(r.Context()), sl.Err(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func dateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent bound
	}
	parsed, err := models.ParseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &parsed.Time, nil
}

func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
