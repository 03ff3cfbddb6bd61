package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/jackc/pgx/v5"
)

const taskColumns = "id, created_date, entity_name, task_type, task_time, contact_person, note, status"

// sortColumns maps the sortable record fields to their columns.
var sortColumns = map[string]string{
	"id":             "id",
	"created_date":   "created_date",
	"entity_name":    "entity_name",
	"task_type":      "task_type",
	"task_time":      "task_time",
	"contact_person": "contact_person",
	"note":           "note",
	"status":         "status",
}

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		task        models.Task
		createdDate time.Time
		taskTime    time.Time
		status      string
	)

	err := row.Scan(&task.ID, &createdDate, &task.EntityName, &task.TaskType, &taskTime,
		&task.ContactPerson, &task.Note, &status)
	if err != nil {
		return models.Task{}, err
	}

	task.CreatedDate = models.NewTimestamp(createdDate.UTC())
	task.TaskTime = models.NewTimestamp(taskTime.UTC())
	task.Status = models.Status(status)

	return task, nil
}

// listQuery builds the SELECT for filter and sort along with its arguments.
func listQuery(filter Filter, sort models.Sort) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if filter.EntityName != "" {
		add("entity_name ILIKE ?", "%"+filter.EntityName+"%")
	}
	if filter.TaskType != "" {
		add("task_type = ?", filter.TaskType)
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}
	if filter.ContactPerson != "" {
		add("contact_person ILIKE ?", "%"+filter.ContactPerson+"%")
	}
	if filter.StartDate != nil {
		add("task_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("task_time <= ?", *filter.EndDate)
	}

	var query strings.Builder
	query.WriteString("SELECT " + taskColumns + " FROM tasks")
	if len(conds) > 0 {
		query.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	switch column, known := sortColumns[sort.Field]; {
	case sort.Field == "":
		query.WriteString(" ORDER BY created_date DESC")
	case known:
		direction := "ASC"
		if sort.Order == models.SortDesc {
			direction = "DESC"
		}
		query.WriteString(" ORDER BY " + column + " " + direction)
	}

	return query.String(), args
}

// ListTasks returns the tasks matching filter. An empty sort field orders by
// creation date, newest first; an unknown one leaves the rows unordered.
func (r *Repository) ListTasks(ctx context.Context, filter Filter, sort models.Sort) ([]models.Task, error) {
	defer r.observe("list_tasks", time.Now())

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, ErrInvalidRange
	}

	query, args := listQuery(filter, sort)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", scanErr)
		}
		tasks = append(tasks, task)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// GetTask returns the task with the given id or ErrNotFound.
func (r *Repository) GetTask(ctx context.Context, id int) (models.Task, error) {
	defer r.observe("get_task", time.Now())

	query := "SELECT " + taskColumns + " FROM tasks WHERE id = $1"

	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return models.Task{}, wrapNotFound(err, id)
	}

	return task, nil
}

// CreateTask inserts draft as an open task and returns the stored record.
func (r *Repository) CreateTask(ctx context.Context, draft models.Draft) (models.Task, error) {
	defer r.observe("create_task", time.Now())

	query := `
		INSERT INTO tasks (entity_name, task_type, task_time, contact_person, note, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRow(ctx, query,
		draft.EntityName,
		draft.TaskType,
		draft.TaskTime.Time,
		draft.ContactPerson,
		draft.Note,
		string(models.StatusOpen),
	))
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to insert new task: %w", err)
	}

	return task, nil
}

// UpdateTask applies the supplied fields of patch. An empty patch returns the
// stored task unchanged.
func (r *Repository) UpdateTask(ctx context.Context, id int, patch models.Patch) (models.Task, error) {
	if patch.Status != nil {
		if err := patch.Status.Validate(); err != nil {
			return models.Task{}, err
		}
	}
	if patch.IsEmpty() {
		return r.GetTask(ctx, id)
	}

	defer r.observe("update_task", time.Now())

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if patch.EntityName != nil {
		set("entity_name", *patch.EntityName)
	}
	if patch.TaskType != nil {
		set("task_type", *patch.TaskType)
	}
	if patch.TaskTime != nil {
		set("task_time", patch.TaskTime.Time)
	}
	if patch.ContactPerson != nil {
		set("contact_person", *patch.ContactPerson)
	}
	if patch.Note != nil {
		set("note", *patch.Note)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}

	args = append(args, id)
	query := "UPDATE tasks SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + taskColumns

	task, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Task{}, wrapNotFound(err, id)
	}

	return task, nil
}

// UpdateTaskStatus sets only the status of a task.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id int, status models.Status) (models.Task, error) {
	if err := status.Validate(); err != nil {
		return models.Task{}, err
	}

	defer r.observe("update_status", time.Now())

	query := "UPDATE tasks SET status = $1 WHERE id = $2 RETURNING " + taskColumns

	task, err := scanTask(r.db.QueryRow(ctx, query, string(status), id))
	if err != nil {
		return models.Task{}, wrapNotFound(err, id)
	}

	return task, nil
}

// DeleteTask removes a task. ErrNotFound when no row had the id.
func (r *Repository) DeleteTask(ctx context.Context, id int) error {
	defer r.observe("delete_task", time.Now())

	tag, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task '%d': %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return nil
}

func wrapNotFound(err error, id int) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return fmt.Errorf("task '%d' query error: %w", id, err)
}
