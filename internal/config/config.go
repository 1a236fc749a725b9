// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TSBRIDGE_SLACK_BOT_TOKEN.
const EnvPrefix = "TSBRIDGE"

// AppConfig holds all application configuration.
// It is instantiated by NewConfig() and passed to components that need it (dependency injection).
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Server   ServerConfig   `mapstructure:"server"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// DatabaseConfig holds the interaction audit store configuration.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file" or "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`
	Rotate  LogRotateConfig `mapstructure:"rotate"`
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller     bool   `mapstructure:"include_caller"`
	IncludeTimestamp  bool   `mapstructure:"include_timestamp"`
	IncludeStackTrace string `mapstructure:"include_stack_trace"`
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// TemporalConfig holds Temporal-related configuration.
type TemporalConfig struct {
	HostPort string `mapstructure:"host_port"`
	// ServiceRole names the <ROLE>_SERVICE_HOST / <ROLE>_SERVICE_PORT pair
	// that overrides HostPort when both are set.
	ServiceRole string          `mapstructure:"service_role"`
	Namespace   string          `mapstructure:"namespace"`
	TaskQueue   string          `mapstructure:"task_queue"`
	Identity    string          `mapstructure:"identity"`
	Worker      WorkerConfig    `mapstructure:"worker"`
	Activity    ActivityOptions `mapstructure:"activity"`
	Workflow    WorkflowOptions `mapstructure:"workflow"`
}

// WorkerConfig holds Temporal worker configuration.
type WorkerConfig struct {
	MaxConcurrentActivityExecutions int     `mapstructure:"max_concurrent_activities"`
	MaxConcurrentWorkflows          int     `mapstructure:"max_concurrent_workflows"`
	ActivitiesPerSecond             float64 `mapstructure:"activities_per_second"`
}

// ActivityOptions holds common activity options.
type ActivityOptions struct {
	StartToCloseTimeout    time.Duration `mapstructure:"start_to_close_timeout"`
	ScheduleToCloseTimeout time.Duration `mapstructure:"schedule_to_close_timeout"`
	HeartbeatTimeout       time.Duration `mapstructure:"heartbeat_timeout"`
	RetryPolicy            RetryPolicy   `mapstructure:"retry_policy"`
}

// RetryPolicy defines retry behavior for activities.
type RetryPolicy struct {
	InitialInterval    time.Duration `mapstructure:"initial_interval"`
	BackoffCoefficient float64       `mapstructure:"backoff_coefficient"`
	MaximumInterval    time.Duration `mapstructure:"maximum_interval"`
	MaximumAttempts    int32         `mapstructure:"maximum_attempts"`
}

// WorkflowOptions holds the timeouts attached to workflows started from tokens.
// Zero values leave the server defaults in place.
type WorkflowOptions struct {
	WorkflowExecutionTimeout time.Duration `mapstructure:"workflow_execution_timeout"`
	WorkflowRunTimeout       time.Duration `mapstructure:"workflow_run_timeout"`
	WorkflowTaskTimeout      time.Duration `mapstructure:"workflow_task_timeout"`
}

// SlackConfig holds the chat surface configuration.
type SlackConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	DefaultChannel string `mapstructure:"default_channel"`
	APIURL         string `mapstructure:"api_url"` // Empty = slack.com
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"` // Empty = allow all (development); set for production
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// TracingConfig holds OpenTelemetry export settings.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port of an OTLP/HTTP collector
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/tsbridge/")
		v.AddConfigPath("$HOME/.tsbridge")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only sees keys viper already knows about; secrets are
	// usually absent from the file, so bind them explicitly.
	for _, key := range []string{"slack.bot_token", "database.password", "temporal.host_port"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		Database: DatabaseConfig{
			Enabled:  true,
			Driver:   "sqlite",
			Database: "tsbridge.db",
			Host:     "localhost",
			Port:     5432,
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "./logs/tsbridge.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  100,
						MaxBackups: 7,
						MaxAgeDays: 30,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: true,
				},
			},
			Levels: map[string]string{
				"interaction": "INFO",
				"temporal":    "WARN",
				"slack":       "INFO",
				"database":    "INFO",
				"api":         "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:     true,
				IncludeTimestamp:  true,
				IncludeStackTrace: "ERROR",
			},
			Sampling: LogSamplingConfig{
				Enabled:    false,
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
		Temporal: TemporalConfig{
			HostPort:    "localhost:7233",
			ServiceRole: "temporal",
			Namespace:   "default",
			TaskQueue:   "tsbridge-task-queue",
			Identity:    "tsbridge",
			Worker: WorkerConfig{
				MaxConcurrentActivityExecutions: 100,
				MaxConcurrentWorkflows:          100,
				ActivitiesPerSecond:             100000,
			},
			Activity: ActivityOptions{
				StartToCloseTimeout:    30 * time.Second,
				ScheduleToCloseTimeout: 5 * time.Minute,
				HeartbeatTimeout:       0,
				RetryPolicy: RetryPolicy{
					InitialInterval:    time.Second,
					BackoffCoefficient: 2.0,
					MaximumInterval:    time.Minute,
					MaximumAttempts:    3,
				},
			},
		},
		Slack: SlackConfig{},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			DispatchTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			Insecure:    true,
			ServiceName: "tsbridge",
			SampleRatio: 1.0,
		},
	}
}

// expandPaths expands ~ and environment variables in path configuration values
func (c *AppConfig) expandPaths() {
	for i := range c.Log.Output {
		if c.Log.Output[i].Path != "" {
			c.Log.Output[i].Path = expandPath(c.Log.Output[i].Path)
		}
	}
	if c.Database.Driver == "sqlite" && c.Database.Database != ":memory:" {
		c.Database.Database = expandPath(c.Database.Database)
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "sqlite", "postgres":
		case "":
			return errors.New("database driver is required")
		default:
			return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
		}
	}

	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Temporal.HostPort == "" {
		return errors.New("temporal.host_port is required")
	}
	if c.Temporal.Namespace == "" {
		return errors.New("temporal.namespace is required")
	}
	if c.Temporal.TaskQueue == "" {
		return errors.New("temporal.task_queue is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.DispatchTimeout < 0 {
		return fmt.Errorf("server.dispatch_timeout must not be negative, got: %s", c.Server.DispatchTimeout)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return errors.New("tracing.endpoint is required when tracing is enabled")
		}
		if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
			return fmt.Errorf("tracing.sample_ratio must be within [0,1], got: %v", c.Tracing.SampleRatio)
		}
	}

	return nil
}

// GetDSN returns the database connection string.
func (dc *DatabaseConfig) GetDSN() string {
	switch dc.Driver {
	case "sqlite":
		dsn := dc.Database
		if dsn == ":memory:" {
			dsn = "file::memory:?cache=shared"
		}
		return dsn
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dc.Host, dc.Port, dc.Username, dc.Password, dc.Database, dc.SSLMode)
	default:
		return dc.Database
	}
}

// Addr returns the listen address of the HTTP server.
func (sc *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}
