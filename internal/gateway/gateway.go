// Package gateway wraps the REST operations of the remote task collection.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/models"
)

// CollectionPath is the path of the task collection relative to the API origin.
const CollectionPath = "/api/tasks"

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-Id"

// maxErrorBodySize bounds how much of an error response is read for its message.
const maxErrorBodySize = 1 << 20

// Gateway performs the task API calls. It does not retry, cache or rate-limit.
type Gateway struct {
	log        *slog.Logger
	httpClient *http.Client
	collection *url.URL
	metrics    *metrics.Metrics
}

// New creates a gateway for the API at origin, e.g. `http://localhost:8080`.
func New(log *slog.Logger, httpClient *http.Client, origin string, metrics *metrics.Metrics) (*Gateway, error) {
	base, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid task API url %q: %w", origin, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid task API url %q: scheme and host are required", origin)
	}

	return &Gateway{
		log:        log.With(slog.String("division", "gateway")),
		httpClient: httpClient,
		collection: base.JoinPath(CollectionPath),
		metrics:    metrics,
	}, nil
}

// ListQuery builds the query string for a list call. Empty filter values are omitted;
// sort_by and sort_order are only sent when a sort field is given.
func ListQuery(filters map[string]string, sortField string, order models.SortOrder) url.Values {
	params := url.Values{}

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if value := filters[key]; key != "" && value != "" {
			params.Add(key, value)
		}
	}

	if sortField != "" {
		if order == "" {
			order = models.SortAsc
		}
		params.Add("sort_by", sortField)
		params.Add("sort_order", string(order))
	}

	return params
}

// List fetches the tasks matching filters, ordered by sortField.
func (g *Gateway) List(
	ctx context.Context,
	filters map[string]string,
	sortField string,
	order models.SortOrder,
) ([]models.Task, error) {
	target := *g.collection
	target.RawQuery = ListQuery(filters, sortField, order).Encode()

	var tasks []models.Task
	if err := g.do(ctx, "list", http.MethodGet, &target, nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	return tasks, nil
}

// Get fetches a single task.
func (g *Gateway) Get(ctx context.Context, id int) (models.Task, error) {
	if id <= 0 {
		return models.Task{}, ErrInvalidID
	}

	var task models.Task
	if err := g.do(ctx, "get", http.MethodGet, g.taskURL(id), nil, &task); err != nil {
		return models.Task{}, fmt.Errorf("failed to get task %d: %w", id, err)
	}

	return task, nil
}

// Create sends a draft with status forced to open and returns the stored record.
func (g *Gateway) Create(ctx context.Context, draft models.Draft) (models.Task, error) {
	payload := struct {
		models.Draft
		Status models.Status `json:"status"`
	}{Draft: draft, Status: models.StatusOpen}

	var task models.Task
	if err := g.do(ctx, "create", http.MethodPost, g.collection, payload, &task); err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// Update replaces the supplied fields of a task. The status cannot be changed here.
func (g *Gateway) Update(ctx context.Context, id int, patch models.Patch) (models.Task, error) {
	if id <= 0 {
		return models.Task{}, ErrInvalidID
	}
	if patch.Status != nil {
		return models.Task{}, ErrStatusInPatch
	}

	var task models.Task
	if err := g.do(ctx, "update", http.MethodPut, g.taskURL(id), patch, &task); err != nil {
		return models.Task{}, fmt.Errorf("failed to update task %d: %w", id, err)
	}

	return task, nil
}

// UpdateStatus flips the status of a task.
func (g *Gateway) UpdateStatus(ctx context.Context, id int, status models.Status) (models.Task, error) {
	if id <= 0 {
		return models.Task{}, ErrInvalidID
	}
	if err := status.Validate(); err != nil {
		return models.Task{}, err
	}

	payload := map[string]models.Status{"status": status}

	var task models.Task
	if err := g.do(ctx, "update_status", http.MethodPatch, g.taskURL(id).JoinPath("status"), payload, &task); err != nil {
		return models.Task{}, fmt.Errorf("failed to update status of task %d: %w", id, err)
	}

	return task, nil
}

// Delete removes a task. A task that is already gone yields ErrNotFound.
func (g *Gateway) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrInvalidID
	}

	if err := g.do(ctx, "delete", http.MethodDelete, g.taskURL(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	return nil
}

func (g *Gateway) taskURL(id int) *url.URL {
	return g.collection.JoinPath(strconv.Itoa(id))
}

func (g *Gateway) do(ctx context.Context, opn, method string, target *url.URL, in, out any) error {
	requestID := uuid.NewString()
	log := g.log.With(slog.String("op", opn), slog.String("request_id", requestID))
	startTime := time.Now()

	outcome := "failure"
	defer func() {
		g.metrics.GatewayRequests.WithLabelValues(opn, outcome).Inc()
		g.metrics.GatewayDuration.WithLabelValues(opn).Observe(time.Since(startTime).Seconds())
	}()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create new request %s: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.DebugContext(ctx, "Calling task API", "method", method, "url", target.String())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.WarnContext(ctx, "Task API request failed", sl.Err(err))
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, target.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			log.DebugContext(ctx, "Failed to read error body", sl.Err(readErr))
		}
		apiErr := errorFromResponse(resp.StatusCode, resp.Header.Get("Content-Type"), raw)
		log.WarnContext(ctx, "Task API returned error status", "status_code", resp.StatusCode, sl.Err(apiErr))
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty response body", ErrServer)
			}
			return fmt.Errorf("%w: failed to decode response: %w", ErrServer, err)
		}
	}

	outcome = "success"
	log.DebugContext(ctx, "Task API call completed", "status_code", resp.StatusCode)

	return nil
}

// IsNotFound reports whether err means the referenced task does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
