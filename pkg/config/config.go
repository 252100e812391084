// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every backend service endpoint and for the export tooling.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Services ServicesConfig `yaml:"services"`
	RPC      RPCConfig      `yaml:"rpc"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServicesConfig holds one endpoint per backend service.
type ServicesConfig struct {
	AccessStats      Endpoint `yaml:"accessstats"`
	PublicationStats Endpoint `yaml:"publicationstats"`
	Citedby          Endpoint `yaml:"citedby"`
	Ratchet          Endpoint `yaml:"ratchet"`
	ArticleMeta      Endpoint `yaml:"articlemeta"`
}

// Endpoint is a host/port pair for one RPC service.
type Endpoint struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the endpoint in host:port form.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// RPCConfig controls the transport boundary: dial and call timeouts and the
// dial retry policy. The analytics clients themselves never retry; retries
// apply only when establishing a channel.
type RPCConfig struct {
	DialTimeout time.Duration `yaml:"dialTimeout"`
	CallTimeout time.Duration `yaml:"callTimeout"`
	DialRetry   RetryConfig   `yaml:"dialRetry"`
}

// RetryConfig holds the exponential-backoff settings used when dialing.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// ExportConfig controls the CSV dump tooling.
type ExportConfig struct {
	// Workers bounds how many ISSNs are exported concurrently.
	Workers int `yaml:"workers"`
	// BatchSize is the page size used when iterating the document feed.
	BatchSize int `yaml:"batchSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Services: ServicesConfig{
			AccessStats:      Endpoint{Host: "localhost", Port: 11660},
			PublicationStats: Endpoint{Host: "localhost", Port: 11620},
			Citedby:          Endpoint{Host: "localhost", Port: 11610},
			Ratchet:          Endpoint{Host: "localhost", Port: 11630},
			ArticleMeta:      Endpoint{Host: "localhost", Port: 11720},
		},
		RPC: RPCConfig{
			DialTimeout: 10 * time.Second,
			CallTimeout: 60 * time.Second,
			DialRetry: RetryConfig{
				MaxAttempts:  3,
				InitialDelay: 100 * time.Millisecond,
				MaxDelay:     5 * time.Second,
			},
		},
		Export: ExportConfig{
			Workers:   4,
			BatchSize: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads JA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	overrideEndpoint("JA_ACCESSSTATS", &cfg.Services.AccessStats)
	overrideEndpoint("JA_PUBLICATIONSTATS", &cfg.Services.PublicationStats)
	overrideEndpoint("JA_CITEDBY", &cfg.Services.Citedby)
	overrideEndpoint("JA_RATCHET", &cfg.Services.Ratchet)
	overrideEndpoint("JA_ARTICLEMETA", &cfg.Services.ArticleMeta)

	if v := os.Getenv("JA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("JA_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("JA_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("JA_EXPORT_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil && workers > 0 {
			cfg.Export.Workers = workers
		}
	}
}

func overrideEndpoint(prefix string, e *Endpoint) {
	if v := os.Getenv(prefix + "_HOST"); v != "" {
		e.Host = v
	}
	if v := os.Getenv(prefix + "_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			e.Port = port
		}
	}
}
