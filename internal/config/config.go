// Package config loads process-level settings for itagsctl from a YAML
// file (SPEC_FULL.md "AMBIENT STACK"): log level, worker-pool size, default
// timeouts, and MILP thread count. This is distinct from the per-problem
// JSON document (internal/problem), which carries its own parameter
// objects and is never read from this file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level app configuration document.
type Config struct {
	LogLevel       string        `yaml:"log_level"`
	WorkerPoolSize int           `yaml:"worker_pool_size"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	MilpThreads    uint          `yaml:"milp_threads"`
	HTTPAddr       string        `yaml:"http_addr"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		LogLevel:       "info",
		WorkerPoolSize: 4,
		DefaultTimeout: 30 * time.Second,
		MilpThreads:    0,
		HTTPAddr:       ":8080",
	}
}

// Load reads and parses a YAML config file, filling in Default() for any
// field the file does not set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
