package config_test

import (
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/iris/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
env: development
api:
  url: http://tasks.example.com
  timeout: 3s
postgres:
  host: db.example.com
  port: "6543"
  user: iris
  password: secret
  db_name: tasks
http:
  address: ":8081"
  allowed_origins:
    - http://localhost:4200
    - https://tasks.example.com
monitoring:
  port: 9191
`

func TestLoad_FromFile(t *testing.T) {
	defer filet.CleanUp(t)

	path := filet.TmpDir(t, "") + "/config.yaml"
	filet.File(t, path, testConfigYAML)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "http://tasks.example.com", cfg.API.URL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "db.example.com", cfg.Postgres.Host)
	assert.Equal(t, "6543", cfg.Postgres.Port)
	assert.Equal(t, "iris", cfg.Postgres.User)
	assert.Equal(t, "secret", cfg.Postgres.Password)
	assert.Equal(t, "tasks", cfg.Postgres.Dbname)
	assert.Equal(t, ":8081", cfg.HTTP.Address)
	assert.Equal(t, []string{"http://localhost:4200", "https://tasks.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 9191, cfg.Monitoring.Port)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "http://localhost:8080", cfg.API.URL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "5432", cfg.Postgres.Port)
	assert.Equal(t, 9090, cfg.Monitoring.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	defer filet.CleanUp(t)

	path := filet.TmpDir(t, "") + "/config.yaml"
	filet.File(t, path, testConfigYAML)

	t.Setenv("IRIS_ENV", "production")
	t.Setenv("IRIS_API_URL", "http://override.example.com")
	t.Setenv("IRIS_POSTGRES_HOST", "testHost")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "http://override.example.com", cfg.API.URL)
	assert.Equal(t, "testHost", cfg.Postgres.Host)
	assert.Equal(t, "6543", cfg.Postgres.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/definitely/not/here.yaml")

	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("IRIS_API_TIMEOUT", "error_value")

	_, err := config.Load("")

	require.Error(t, err)
}

func TestMustLoad_Panics(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/definitely/not/here.yaml")

	assert.Panics(t, func() {
		config.MustLoad()
	})
}
