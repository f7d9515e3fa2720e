package core

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ShutdownPolicy selects what happens to tasks still queued when shutdown begins.
type ShutdownPolicy string

const (
	// ShutdownDrain runs every queued task before the workers exit.
	ShutdownDrain ShutdownPolicy = "drain"

	// ShutdownCancelQueued reports ErrCancelled to every task that has not started
	// and cancels the context of the ones that are running.
	ShutdownCancelQueued ShutdownPolicy = "cancel"
)

// Config holds configuration options for ThreadPool.
// All handlers are optional; if not provided, default implementations will be used.
type Config struct {
	// ID names the pool in logs and metrics. Defaults to "pool-" plus a short random suffix.
	ID string `yaml:"id"`

	// Workers is the fixed number of worker goroutines. Must be at least 1.
	Workers int `yaml:"workers"`

	// ShutdownPolicy defaults to ShutdownDrain.
	ShutdownPolicy ShutdownPolicy `yaml:"shutdown_policy"`

	// HistoryCapacity bounds the execution history kept for RecentTasks. Zero
	// selects the default of 100; a negative value disables the history.
	HistoryCapacity int `yaml:"history_capacity"`

	Logger              Logger              `yaml:"-"`
	PanicHandler        PanicHandler        `yaml:"-"`
	Metrics             Metrics             `yaml:"-"`
	RejectedTaskHandler RejectedTaskHandler `yaml:"-"`
}

// DefaultConfig returns a config with one worker per CPU and default handlers.
func DefaultConfig() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		ShutdownPolicy:  ShutdownDrain,
		HistoryCapacity: defaultTaskHistoryCapacity,
	}
}

// Validate checks the settings. Errors wrap ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfiguration, c.Workers)
	}
	switch c.ShutdownPolicy {
	case "", ShutdownDrain, ShutdownCancelQueued:
	default:
		return fmt.Errorf("%w: unknown shutdown policy %q", ErrInvalidConfiguration, c.ShutdownPolicy)
	}
	return nil
}

// withDefaults fills in every optional field left empty.
func (c Config) withDefaults() Config {
	if c.ShutdownPolicy == "" {
		c.ShutdownPolicy = ShutdownDrain
	}
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = defaultTaskHistoryCapacity
	}
	if c.Logger == nil {
		c.Logger = NewDefaultLogger()
	}
	if c.PanicHandler == nil {
		c.PanicHandler = &DefaultPanicHandler{Logger: c.Logger}
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	if c.RejectedTaskHandler == nil {
		c.RejectedTaskHandler = &DefaultRejectedTaskHandler{Logger: c.Logger}
	}
	return c
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MarshalYAML renders the serializable part of the config.
func (c Config) MarshalYAML() (any, error) {
	type plain struct {
		ID              string         `yaml:"id,omitempty"`
		Workers         int            `yaml:"workers"`
		ShutdownPolicy  ShutdownPolicy `yaml:"shutdown_policy"`
		HistoryCapacity int            `yaml:"history_capacity"`
	}
	return plain{
		ID:              c.ID,
		Workers:         c.Workers,
		ShutdownPolicy:  c.ShutdownPolicy,
		HistoryCapacity: c.HistoryCapacity,
	}, nil
}
