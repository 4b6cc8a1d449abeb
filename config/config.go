// Package config loads beeflow settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/beeflow/logging"
)

// Environment variables read by Load.
const (
	EnvProvider      = "BEEFLOW_PROVIDER"
	EnvModel         = "BEEFLOW_MODEL"
	EnvLogLevel      = "BEEFLOW_LOG_LEVEL"
	EnvLogFormat     = "BEEFLOW_LOG_FORMAT"
	EnvMemoryBackend = "BEEFLOW_MEMORY_BACKEND"
	EnvRedisAddr     = "BEEFLOW_REDIS_ADDR"
	EnvRedisPassword = "BEEFLOW_REDIS_PASSWORD"
	EnvMaxSteps      = "BEEFLOW_MAX_STEPS"
	EnvServerAddr    = "BEEFLOW_SERVER_ADDR"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
)

// Providers and memory backends understood by the CLI.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete beeflow configuration.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Memory    MemoryConfig    `yaml:"memory"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
}

// ModelConfig selects and tunes the language model.
type ModelConfig struct {
	Provider    string   `yaml:"provider"`
	Name        string   `yaml:"name"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	MaxRetries  int      `yaml:"max_retries"`
	APIKey      string   `yaml:"api_key,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty"`
}

// MemoryConfig selects the conversation history backend.
type MemoryConfig struct {
	Backend string      `yaml:"backend"`
	Window  int         `yaml:"window"` // messages sent to the model, 0 keeps everything
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis history backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// WorkflowConfig holds executor defaults.
type WorkflowConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // text or json
	AddSource bool   `yaml:"add_source,omitempty"`
}

// TelemetryConfig enables tracing and metrics.
type TelemetryConfig struct {
	Trace       bool   `yaml:"trace"`
	TraceFile   string `yaml:"trace_file,omitempty"`
	Metrics     bool   `yaml:"metrics"`
	MetricsPath string `yaml:"metrics_path,omitempty"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:   ProviderOpenAI,
			Name:       "gpt-4o-mini",
			MaxRetries: 3,
		},
		Memory: MemoryConfig{
			Backend: BackendMemory,
			Window:  40,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "beeflow:history:",
				TTL:    24 * time.Hour,
			},
		},
		Workflow: WorkflowConfig{MaxSteps: 50},
		Log:      LogConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{
			MetricsPath: "/metrics",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds a configuration from the defaults, the YAML file at path (if
// path is non-empty) and the environment, in that order. The result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvProvider, &c.Model.Provider)
	str(EnvModel, &c.Model.Name)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogFormat, &c.Log.Format)
	str(EnvMemoryBackend, &c.Memory.Backend)
	str(EnvRedisAddr, &c.Memory.Redis.Addr)
	str(EnvRedisPassword, &c.Memory.Redis.Password)
	str(EnvServerAddr, &c.Server.Addr)

	if v, ok := lookup(EnvMaxSteps); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSteps, err)
		}
		c.Workflow.MaxSteps = n
	}

	if c.Model.APIKey == "" {
		switch c.Model.Provider {
		case ProviderOpenAI:
			str(EnvOpenAIKey, &c.Model.APIKey)
		case ProviderAnthropic:
			str(EnvAnthropicKey, &c.Model.APIKey)
		}
	}
	if c.Model.BaseURL == "" && c.Model.Provider == ProviderOpenAI {
		str(EnvOpenAIBaseURL, &c.Model.BaseURL)
	}

	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("model.provider: unknown provider %q", c.Model.Provider))
	}
	if c.Model.Name == "" && c.Model.Provider != ProviderMock {
		errs = append(errs, errors.New("model.name: must not be empty"))
	}
	if c.Model.MaxRetries < 0 {
		errs = append(errs, errors.New("model.max_retries: must not be negative"))
	}
	if t := c.Model.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("model.temperature: %v is outside [0, 2]", *t))
	}

	switch c.Memory.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Memory.Redis.Addr == "" {
			errs = append(errs, errors.New("memory.redis.addr: required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("memory.backend: unknown backend %q", c.Memory.Backend))
	}
	if c.Memory.Window < 0 {
		errs = append(errs, errors.New("memory.window: must not be negative"))
	}

	if c.Workflow.MaxSteps < 0 {
		errs = append(errs, errors.New("workflow.max_steps: must not be negative"))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Logger builds the process logger described by the log section.
func (c *Config) Logger() logging.Logger {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LogLevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    strings.ToLower(c.Log.Format),
		Output:    os.Stderr,
		AddSource: c.Log.AddSource,
	})
}
