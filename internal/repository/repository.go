package repository

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/iris/internal/metrics"
	"github.com/UnknownOlympus/iris/internal/models"
)

var (
	ErrNotFound     = errors.New("task not found")
	ErrInvalidRange = errors.New("start date is after end date")
)

// Filter narrows a task listing. Zero fields are ignored. EntityName and
// ContactPerson match case-insensitive substrings; the dates bound task_time
// inclusively.
type Filter struct {
	EntityName    string
	TaskType      string
	Status        models.Status
	ContactPerson string
	StartDate     *time.Time
	EndDate       *time.Time
}

// TaskRepoIface represents the interface for interacting with task data in the repository.
type TaskRepoIface interface {
	ListTasks(ctx context.Context, filter Filter, sort models.Sort) ([]models.Task, error)
	GetTask(ctx context.Context, id int) (models.Task, error)
	CreateTask(ctx context.Context, draft models.Draft) (models.Task, error)
	UpdateTask(ctx context.Context, id int, patch models.Patch) (models.Task, error)
	UpdateTaskStatus(ctx context.Context, id int, status models.Status) (models.Task, error)
	DeleteTask(ctx context.Context, id int) error
}

type Repository struct {
	db      Database
	metrics *metrics.Metrics
}

func NewTaskRepository(db Database, metrics *metrics.Metrics) TaskRepoIface {
	return &Repository{db: db, metrics: metrics}
}

// observe records the duration of a query started at start.
func (r *Repository) observe(queryType string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}
