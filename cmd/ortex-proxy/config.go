package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	IdleTimeoutMS  int    `yaml:"idle_timeout_ms"`
}

func (s ServerConfig) ReadTimeout() time.Duration {
	if s.ReadTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s ServerConfig) WriteTimeout() time.Duration {
	if s.WriteTimeoutMS <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (s ServerConfig) IdleTimeout() time.Duration {
	if s.IdleTimeoutMS <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

// UpstreamConfig holds the settings used to build the API client.
type UpstreamConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutMS         int     `yaml:"timeout_ms"`
	MaxRetries        int     `yaml:"max_retries"`
	MaxConcurrent     int     `yaml:"max_concurrent"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogPretty      bool   `yaml:"log_pretty"`
	PrometheusPath string `yaml:"prometheus_path"`
}

// RedisConfig enables cross-process credit tracking when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProxyConfig is the root configuration for the proxy.
type ProxyConfig struct {
	Server        ServerConfig        `yaml:"server"`
	Upstream      UpstreamConfig      `yaml:"upstream"`
	Observability ObservabilityConfig `yaml:"observability"`
	Redis         RedisConfig         `yaml:"redis"`
}

// LoadConfig reads a YAML config file and applies defaults. A missing path
// returns a default configuration so the proxy can run on environment
// variables alone.
func LoadConfig(path string) (*ProxyConfig, error) {
	var cfg ProxyConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.Observability.PrometheusPath == "" {
		cfg.Observability.PrometheusPath = "/metrics"
	}
	return &cfg, nil
}
