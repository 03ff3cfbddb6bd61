package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "IRIS"

var ErrConfigNotFound = errors.New("config file does not exist")

type Config struct {
	Env        string           `yaml:"env"`        // Env is the current environment: local, development, production.
	API        APIConfig        `yaml:"api"`        // API holds the client-side connection to the task API
	Postgres   PostgresConfig   `yaml:"postgres"`   // Postgres holds the database configuration of the task API
	HTTP       HTTPConfig       `yaml:"http"`       // HTTP holds the listener configuration of the task API
	Monitoring MonitoringConfig `yaml:"monitoring"` // Monitoring holds the metrics and health endpoint configuration
}

// APIConfig struct holds the configuration the client uses to reach the task API.
type APIConfig struct {
	URL     string        `yaml:"url"`     // URL is the origin of the task API, e.g. `http://localhost:8080`
	Timeout time.Duration `yaml:"timeout"` // Timeout bounds a single call to the task API
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`     // Host is the database server address.
	Port     string `yaml:"port"`     // Port is the database server port.
	User     string `yaml:"user"`     // User is the database user.
	Password string `yaml:"password"` // Password is the database user's password.
	Dbname   string `yaml:"db_name"`  // Dbname is the name of the database.
}

// HTTPConfig struct holds the task API listener settings.
type HTTPConfig struct {
	Address        string   `yaml:"address"`         // Address is the listen address of the task API
	AllowedOrigins []string `yaml:"allowed_origins"` // AllowedOrigins lists browser origins allowed by CORS
}

// MonitoringConfig struct holds the port of the /metrics and /healthz server.
type MonitoringConfig struct {
	Port int `yaml:"port"`
}

// Load reads the configuration from an optional YAML file and overlays IRIS_* environment variables.
// An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	vpr := viper.New()
	setDefaults(vpr)

	vpr.SetEnvPrefix(envPrefix)
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}

		vpr.SetConfigFile(path)
		if err := vpr.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Env: vpr.GetString("env"),
		API: APIConfig{
			URL:     vpr.GetString("api.url"),
			Timeout: vpr.GetDuration("api.timeout"),
		},
		Postgres: PostgresConfig{
			Host:     vpr.GetString("postgres.host"),
			Port:     vpr.GetString("postgres.port"),
			User:     vpr.GetString("postgres.user"),
			Password: vpr.GetString("postgres.password"),
			Dbname:   vpr.GetString("postgres.db_name"),
		},
		HTTP: HTTPConfig{
			Address:        vpr.GetString("http.address"),
			AllowedOrigins: vpr.GetStringSlice("http.allowed_origins"),
		},
		Monitoring: MonitoringConfig{
			Port: vpr.GetInt("monitoring.port"),
		},
	}

	if cfg.API.Timeout <= 0 {
		return nil, fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}

	return cfg, nil
}

// MustLoad loads the configuration from the file named by CONFIG_PATH and panics on failure.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic("config error: " + err.Error())
	}

	return cfg
}

func setDefaults(vpr *viper.Viper) {
	defTimeout := 10

	vpr.SetDefault("env", "local")
	vpr.SetDefault("api.url", "http://localhost:8080")
	vpr.SetDefault("api.timeout", time.Duration(defTimeout)*time.Second)
	vpr.SetDefault("postgres.host", "localhost")
	vpr.SetDefault("postgres.port", "5432")
	vpr.SetDefault("postgres.user", "")
	vpr.SetDefault("postgres.password", "")
	vpr.SetDefault("postgres.db_name", "iris")
	vpr.SetDefault("http.address", ":8080")
	vpr.SetDefault("http.allowed_origins", []string{"http://localhost:4200"})
	vpr.SetDefault("monitoring.port", 9090)
}
