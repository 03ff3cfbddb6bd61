// Package tasklist keeps the locally held task list in step with the remote store.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/UnknownOlympus/iris/internal/gateway"
	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/notify"
)

var (
	ErrSuperseded     = errors.New("list response superseded by a newer load")
	ErrDeleteDeclined = errors.New("delete not confirmed")
)

// Gateway is the subset of the remote task API the list needs.
type Gateway interface {
	List(ctx context.Context, filters map[string]string, sortField string, order models.SortOrder) ([]models.Task, error)
	UpdateStatus(ctx context.Context, id int, status models.Status) (models.Task, error)
	Delete(ctx context.Context, id int) error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Controller owns the held task list. It is safe for concurrent use; every
// accessor returns a copy.
type Controller struct {
	log      *slog.Logger
	gateway  Gateway
	confirm  Confirmer
	notifier notify.Notifier
	metrics  *metrics.Metrics

	mu    sync.Mutex
	state State
	seq   uint64
}

func NewController(
	log *slog.Logger,
	gateway Gateway,
	confirm Confirmer,
	notifier notify.Notifier,
	metrics *metrics.Metrics,
) *Controller {
	return &Controller{
		log:      log,
		gateway:  gateway,
		confirm:  confirm,
		notifier: notifier,
		metrics:  metrics,
		state:    NewState(),
	}
}

func (c *Controller) initLogger(opn string) *slog.Logger {
	return sl.Op(c.log, opn, "tasklist")
}

// Load fetches the list with the current filters and sort and replaces the held
// tasks. Every load takes a sequence token; a response whose token is no longer
// the latest is dropped and ErrSuperseded returned. On failure the held tasks
// are left untouched.
func (c *Controller) Load(ctx context.Context) error {
	const opn = "TaskList.Load"
	log := c.initLogger(opn)

	c.mu.Lock()
	c.seq++
	token := c.seq
	filters := maps.Clone(c.state.Filters)
	sort := c.state.Sort
	c.mu.Unlock()

	tasks, err := c.gateway.List(ctx, filters, sort.Field, sort.Order)

	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		c.metrics.ListLoads.WithLabelValues("superseded").Inc()
		log.DebugContext(ctx, "Discarding out-of-date list response", "token", token)
		return ErrSuperseded
	}
	if err == nil {
		c.state.Tasks = tasks
	}
	c.mu.Unlock()

	if err != nil {
		c.metrics.ListLoads.WithLabelValues("failure").Inc()
		log.ErrorContext(ctx, "Error fetching tasks", sl.Err(err))
		c.notifier.Notify(ctx, notify.Error("Error fetching tasks", err))
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	c.metrics.ListLoads.WithLabelValues("success").Inc()
	c.metrics.LastSuccessfulLoad.Set(float64(time.Now().Unix()))
	log.DebugContext(ctx, "Task list loaded", "count", len(tasks), "sort_by", sort.Field, "sort_order", sort.Order)

	return nil
}

// ApplyFilters replaces the filters and reloads.
func (c *Controller) ApplyFilters(ctx context.Context, filters map[string]string) error {
	c.mu.Lock()
	c.state.Filters = maps.Clone(filters)
	if c.state.Filters == nil {
		c.state.Filters = map[string]string{}
	}
	c.mu.Unlock()

	return c.Load(ctx)
}

// ChangeSort toggles the direction when field is already the sort field, otherwise
// sorts ascending by field, then reloads.
func (c *Controller) ChangeSort(ctx context.Context, field string) error {
	c.mu.Lock()
	c.state.toggleSort(field)
	c.mu.Unlock()

	return c.Load(ctx)
}

// UseSort sets the sort outright; it takes effect on the next load. An empty
// field falls back to the default sort and an empty order to ascending.
func (c *Controller) UseSort(sort models.Sort) {
	if sort.Field == "" {
		sort = models.DefaultSort()
	}
	if sort.Order != models.SortDesc {
		sort.Order = models.SortAsc
	}

	c.mu.Lock()
	c.state.Sort = sort
	c.mu.Unlock()
}

// OnTaskCreated puts a freshly created task at the front without reloading.
func (c *Controller) OnTaskCreated(task models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Tasks = slices.Insert(c.state.Tasks, 0, task)
}

// OnTaskUpdated replaces the held task with the same id. Unknown ids are ignored.
func (c *Controller) OnTaskUpdated(task models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.state.indexOf(task.ID); idx >= 0 {
		c.state.Tasks[idx] = task
	}
}

// OnStatusChanged sets only the status of the held task with id. Unknown ids are ignored.
func (c *Controller) OnStatusChanged(id int, status models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.state.indexOf(id); idx >= 0 {
		c.state.Tasks[idx].Status = status
	}
}

// UpdateStatus flips a task's status remotely and mirrors the result locally.
func (c *Controller) UpdateStatus(ctx context.Context, id int, status models.Status) error {
	const opn = "TaskList.UpdateStatus"
	log := c.initLogger(opn).With(sl.TaskID(id))

	updated, err := c.gateway.UpdateStatus(ctx, id, status)
	if err != nil {
		log.ErrorContext(ctx, "Error updating task status", sl.Err(err))
		c.notifier.Notify(ctx, notify.Error("Error updating task status", err))
		return fmt.Errorf("failed to update status of task %d: %w", id, err)
	}

	c.OnStatusChanged(id, updated.Status)
	log.InfoContext(ctx, "Task status updated", "status", updated.Status)

	return nil
}

// RequestDelete asks for confirmation, deletes the task and reloads the list.
// A task that is already gone counts as deleted. On any other failure the list
// is neither reloaded nor changed.
func (c *Controller) RequestDelete(ctx context.Context, id int) error {
	const opn = "TaskList.RequestDelete"
	log := c.initLogger(opn).With(sl.TaskID(id))

	if !c.confirm.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete task %d?", id)) {
		log.DebugContext(ctx, "Delete declined")
		return ErrDeleteDeclined
	}

	err := c.gateway.Delete(ctx, id)
	switch {
	case err == nil:
		log.InfoContext(ctx, "Task deleted successfully")
	case errors.Is(err, gateway.ErrNotFound):
		log.InfoContext(ctx, "Task was already deleted")
	default:
		log.ErrorContext(ctx, "Error deleting task", sl.Err(err))
		c.notifier.Notify(ctx, notify.Error("Error deleting task", err))
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}

	c.notifier.Notify(ctx, notify.Info(fmt.Sprintf("Task %d deleted", id)))

	return c.Load(ctx)
}

// Tasks returns a copy of the held tasks.
func (c *Controller) Tasks() []models.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.state.Tasks)
}

// Snapshot returns a copy of the whole state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.clone()
}
