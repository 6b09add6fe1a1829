package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultDriver         = "databricks"
	DefaultTokenEnv       = "DATABRICKS_TOKEN"
	DefaultAllowedOrigin  = "*"
	DefaultLiveInterval   = 60 * time.Second
	DefaultMaxOpenConns   = 4
	DefaultConnectTimeout = 15 * time.Second
)

// Environment variables that override values from the file. These are the
// names the hosting platform injects into the function environment.
const (
	EnvHost          = "DATABRICKS_HOST"
	EnvHTTPPath      = "DATABRICKS_HTTP_PATH"
	EnvAllowedOrigin = "ALLOWED_ORIGIN"
	EnvDriver        = "WAREHOUSE_DRIVER"
	EnvDSN           = "WAREHOUSE_DSN"
	EnvTokenSecret   = "DATABRICKS_TOKEN_SECRET"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	CORS      CORSConfig      `yaml:"cors"`
	Live      LiveConfig      `yaml:"live"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds settings used only by the long-running HTTP binary.
type ServerConfig struct {
	// HTTPPort is the port the API, /metrics and /ws/stream listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// RequestTimeout bounds each request's context. Zero disables the bound.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// WarehouseConfig describes how to reach the SQL backend.
type WarehouseConfig struct {
	// Driver is one of: databricks | postgres | sqlite.
	Driver string `yaml:"driver"`

	// Host and HTTPPath address a Databricks SQL warehouse.
	Host     string `yaml:"host"`
	HTTPPath string `yaml:"http_path"`

	// TokenEnv is the name of the environment variable holding the access token.
	// Defaults to DATABRICKS_TOKEN.
	TokenEnv string `yaml:"token_env"`

	// TokenSecret is an AWS Secrets Manager secret id consulted when the
	// token environment variable is empty.
	TokenSecret string `yaml:"token_secret"`

	// DSN is used verbatim by the postgres and sqlite drivers.
	DSN string `yaml:"dsn"`

	// Init statements run once on the freshly opened connection, e.g.
	// ATTACH DATABASE for a local sqlite snapshot of the gold schema.
	Init []string `yaml:"init"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// Token returns the access token resolved from the environment.
func (w WarehouseConfig) Token() string {
	name := w.TokenEnv
	if name == "" {
		name = DefaultTokenEnv
	}
	return os.Getenv(name)
}

// CORSConfig controls the CORS headers attached to every response.
type CORSConfig struct {
	// AllowedOrigin is echoed in Access-Control-Allow-Origin (default "*").
	AllowedOrigin string `yaml:"allowed_origin"`
}

// LiveConfig controls the WebSocket stats stream.
type LiveConfig struct {
	// Interval between pushes of the stats payload (default 60s).
	Interval time.Duration `yaml:"interval"`
}

// LogConfig controls the slog handler level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error (default info).
	Level string `yaml:"level"`
}

// SlogLevel maps Level onto a slog.Level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path. Defaults are applied
// before unmarshalling and environment overrides after it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but treats an empty path or a missing file
// as "no file": defaults plus environment overrides are used instead.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := defaults()
	applyEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Warehouse: WarehouseConfig{
			Driver:         DefaultDriver,
			TokenEnv:       DefaultTokenEnv,
			MaxOpenConns:   DefaultMaxOpenConns,
			ConnectTimeout: DefaultConnectTimeout,
		},
		CORS: CORSConfig{AllowedOrigin: DefaultAllowedOrigin},
		Live: LiveConfig{Interval: DefaultLiveInterval},
		Log:  LogConfig{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Warehouse.Host = v
	}
	if v := os.Getenv(EnvHTTPPath); v != "" {
		cfg.Warehouse.HTTPPath = v
	}
	if v := os.Getenv(EnvAllowedOrigin); v != "" {
		cfg.CORS.AllowedOrigin = v
	}
	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Warehouse.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.Warehouse.DSN = v
	}
	if v := os.Getenv(EnvTokenSecret); v != "" {
		cfg.Warehouse.TokenSecret = v
	}
}

func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}
	switch cfg.Warehouse.Driver {
	case "databricks", "postgres", "sqlite":
	default:
		return fmt.Errorf("warehouse.driver %q unknown: want databricks|postgres|sqlite", cfg.Warehouse.Driver)
	}
	if cfg.Warehouse.Driver != "databricks" && cfg.Warehouse.DSN == "" {
		return fmt.Errorf("warehouse.dsn is required for driver %q", cfg.Warehouse.Driver)
	}
	if cfg.Warehouse.MaxOpenConns < 0 {
		return fmt.Errorf("warehouse.max_open_conns must not be negative")
	}
	if cfg.Warehouse.ConnMaxLifetime < 0 || cfg.Warehouse.ConnectTimeout < 0 {
		return fmt.Errorf("warehouse durations must not be negative")
	}
	if cfg.Live.Interval <= 0 {
		return fmt.Errorf("live.interval must be positive")
	}
	if cfg.CORS.AllowedOrigin == "" {
		cfg.CORS.AllowedOrigin = DefaultAllowedOrigin
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
