package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

var (
	ErrFilenameRequired     = errors.New("a manifest filename is required")
	ErrFieldManagerRequired = errors.New("field manager must not be empty")
	ErrNegativeParallelism  = errors.New("parallelism must not be negative")
	ErrNegativeTimeout      = errors.New("timeout must not be negative")
)

type Config struct {
	Filename     string
	FieldManager string
	Timeout      time.Duration
	Parallelism  int
	Namespace    string
	Kubeconfig   string
	LogLevel     string
	LogFormat    string
	StatusPort   string
}

// Load builds the configuration from environment defaults. Flags registered
// with AddFlags override these values.
func Load() (*Config, error) {
	cfg := &Config{
		FieldManager: getEnvOrDefault(envKeyFieldManager, defaultFieldManager),
		Namespace:    os.Getenv(envKeyNamespace),
		Kubeconfig:   getEnvOrDefault(envKeyKubeconfig, os.Getenv(envKeyKubeconfigFallback)),
		LogLevel:     getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:    getEnvOrDefault(envKeyLogFormat, "text"),
		StatusPort:   os.Getenv(envKeyStatusPort),
	}

	timeout, err := time.ParseDuration(getEnvOrDefault(envKeyTimeout, defaultTimeout))
	if err != nil {
		return nil, fmt.Errorf("parse timeout: %w", err)
	}

	cfg.Timeout = timeout

	parallelism, err := strconv.Atoi(getEnvOrDefault(envKeyParallelism, defaultParallelism))
	if err != nil {
		return nil, fmt.Errorf("parse parallelism: %w", err)
	}

	cfg.Parallelism = parallelism

	return cfg, nil
}

// AddFlags registers the apply command flags on fs, using the loaded values
// as defaults.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Filename, "filename", "f", c.Filename,
		"file that contains the configuration to apply; - reads stdin")
	fs.StringVar(&c.FieldManager, "field-manager", c.FieldManager,
		"name of the manager used to track field ownership")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout,
		"how long to keep retrying before giving up; 0 waits indefinitely")
	fs.IntVarP(&c.Parallelism, "parallelism", "p", c.Parallelism,
		"limit of concurrent operations; 0 disables the limit")
	fs.StringVarP(&c.Namespace, "namespace", "n", c.Namespace,
		"namespace scope for objects that do not set one")
	fs.StringVar(&c.Kubeconfig, "kubeconfig", c.Kubeconfig,
		"path to the kubeconfig file to use for this request")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel,
		"log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat,
		"log format: text or json")
	fs.StringVar(&c.StatusPort, "status-port", c.StatusPort,
		"port for the status/metrics HTTP server; empty disables it")
}

func (c *Config) Validate() error {
	if c.Filename == "" {
		return ErrFilenameRequired
	}

	if c.FieldManager == "" {
		return ErrFieldManagerRequired
	}

	if c.Parallelism < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeParallelism, c.Parallelism)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTimeout, c.Timeout)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}
