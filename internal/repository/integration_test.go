package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/repository"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestTaskRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("iris"),
		postgres.WithUsername("iris"),
		postgres.WithPassword("iris"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := repository.NewDatabase(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	dtb := stdlib.OpenDBFromPool(pool)
	defer dtb.Close()
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(dtb, "../../migrations"))

	repo := repository.NewTaskRepository(pool, nil)

	first, err := repo.CreateTask(ctx, models.Draft{
		EntityName:    "Acme Corp",
		TaskType:      "Call",
		TaskTime:      models.NewTimestamp(time.Date(2025, 6, 2, 13, 30, 0, 0, time.UTC)),
		ContactPerson: "John Smith",
	})
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	assert.Equal(t, models.StatusOpen, first.Status)
	assert.False(t, first.CreatedDate.IsZero())

	second, err := repo.CreateTask(ctx, models.Draft{
		EntityName:    "Beta Labs",
		TaskType:      "Meeting",
		TaskTime:      models.NewTimestamp(time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)),
		ContactPerson: "Jane Doe",
		Note:          "bring the contract",
	})
	require.NoError(t, err)

	t.Run("list newest first", func(t *testing.T) {
		tasks, listErr := repo.ListTasks(ctx, repository.Filter{}, models.Sort{})
		require.NoError(t, listErr)
		require.Len(t, tasks, 2)
		assert.Equal(t, second.ID, tasks[0].ID)
	})

	t.Run("filter by name substring and date range", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

		tasks, listErr := repo.ListTasks(ctx, repository.Filter{EntityName: "acme", StartDate: &start, EndDate: &end},
			models.Sort{Field: "task_time", Order: models.SortAsc})
		require.NoError(t, listErr)
		require.Len(t, tasks, 1)
		assert.Equal(t, first.ID, tasks[0].ID)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		note := "call back after lunch"
		updated, updErr := repo.UpdateTask(ctx, first.ID, models.Patch{Note: &note})
		require.NoError(t, updErr)
		assert.Equal(t, note, updated.Note)
		assert.Equal(t, first.EntityName, updated.EntityName)
		assert.True(t, first.TaskTime.Equal(updated.TaskTime.Time))
	})

	t.Run("status update", func(t *testing.T) {
		closed, updErr := repo.UpdateTaskStatus(ctx, second.ID, models.StatusClosed)
		require.NoError(t, updErr)
		assert.Equal(t, models.StatusClosed, closed.Status)

		tasks, listErr := repo.ListTasks(ctx, repository.Filter{Status: models.StatusClosed}, models.Sort{})
		require.NoError(t, listErr)
		require.Len(t, tasks, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteTask(ctx, first.ID))
		require.ErrorIs(t, repo.DeleteTask(ctx, first.ID), repository.ErrNotFound)

		_, getErr := repo.GetTask(ctx, first.ID)
		require.ErrorIs(t, getErr, repository.ErrNotFound)
	})
}
