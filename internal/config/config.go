// Package config loads process configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

type MonitorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Environment string         `yaml:"environment"`
	HTTP        HTTPConfig     `yaml:"http"`
	Database    DatabaseConfig `yaml:"database"`
	Log         LogConfig      `yaml:"log"`
	Tracing     TracingConfig  `yaml:"tracing"`
	Monitor     MonitorConfig  `yaml:"monitor"`
	Seed        SeedConfig     `yaml:"seed"`
}

// Load reads the file named by ZMSTORE_CONFIG when set, then applies
// environment overrides on top of the defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment: getenvDefault("ZMSTORE_ENV", "development"),
		HTTP:        HTTPConfig{Addr: getenvDefault("ZMSTORE_HTTP_ADDR", ":8080")},
		Database:    DatabaseConfig{DSN: getenvDefault("ZMSTORE_DB_DSN", "file:zmstore.db?_pragma=foreign_keys(1)")},
		Log:         LogConfig{Level: getenvDefault("ZMSTORE_LOG_LEVEL", "info")},
		Tracing: TracingConfig{
			Enabled:          getenvBoolDefault("ZMSTORE_TRACING_ENABLED", false),
			ExporterEndpoint: os.Getenv("ZMSTORE_TRACING_ENDPOINT"),
			ExporterProtocol: getenvDefault("ZMSTORE_TRACING_PROTOCOL", "grpc"),
			SamplingRatio:    getenvFloatDefault("ZMSTORE_TRACING_SAMPLING_RATIO", 0.1),
		},
		Monitor: MonitorConfig{
			PollInterval: getenvDurationDefault("ZMSTORE_MONITOR_POLL_INTERVAL", 5*time.Minute),
		},
		Seed: SeedConfig{Enabled: getenvBoolDefault("ZMSTORE_SEED", false)},
	}

	if path := strings.TrimSpace(os.Getenv("ZMSTORE_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
