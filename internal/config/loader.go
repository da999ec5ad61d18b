package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentgate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTGATE_PORT")
	setString(&cfg.Store.Backend, "AGENTGATE_STORE_BACKEND")
	setString(&cfg.Store.Dir, "AGENTGATE_STORE_DIR")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "AGENTGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "AGENTGATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "AGENTGATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "AGENTGATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "AGENTGATE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Policy.Mode, "AGENTGATE_POLICY_MODE")
	setString(&cfg.Policy.DefaultProfile, "AGENTGATE_POLICY_PROFILE")
	setString(&cfg.Policy.CustomDir, "AGENTGATE_POLICY_DIR")
	setString(&cfg.Policy.RemoteURL, "AGENTGATE_POLICY_URL")
	setDuration(&cfg.Policy.RemoteTimeout, "AGENTGATE_POLICY_TIMEOUT")
	setBool(&cfg.Policy.FailOpen, "AGENTGATE_POLICY_FAIL_OPEN")
	setString(&cfg.Logging.Level, "AGENTGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTGATE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTGATE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "AGENTGATE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTGATE_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "AGENTGATE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.SummaryTTL, "AGENTGATE_CACHE_SUMMARY_TTL")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set and enums are known.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Backend {
	case "file":
		if cfg.Store.Dir == "" {
			return errors.New("store.dir is required for the file backend")
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres backend")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	default:
		return fmt.Errorf("store.backend must be file or postgres, got %q", cfg.Store.Backend)
	}
	switch cfg.Policy.Mode {
	case "embedded":
		if cfg.Policy.DefaultProfile == "" {
			return errors.New("policy.default_profile is required in embedded mode")
		}
	case "remote":
		if cfg.Policy.RemoteURL == "" {
			return errors.New("policy.remote_url is required in remote mode")
		}
		if cfg.Policy.RemoteTimeout <= 0 {
			return errors.New("policy.remote_timeout must be positive")
		}
	case "disabled":
	default:
		return fmt.Errorf("policy.mode must be embedded, remote or disabled, got %q", cfg.Policy.Mode)
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
