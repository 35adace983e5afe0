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
const DefaultConfigFile = "propertyhub.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
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
	setString(&cfg.Server.Port, "PROPERTYHUB_PORT")
	setString(&cfg.Server.CORSOrigin, "PROPERTYHUB_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PROPERTYHUB_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PROPERTYHUB_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PROPERTYHUB_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PROPERTYHUB_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PROPERTYHUB_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "PROPERTYHUB_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PROPERTYHUB_LOG_SERVICE")
	setString(&cfg.Auth.JWTSecret, "PROPERTYHUB_JWT_SECRET")
	setDuration(&cfg.Auth.AccessTokenExpiry, "PROPERTYHUB_TOKEN_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "PROPERTYHUB_BCRYPT_COST")
	setString(&cfg.Auth.DefaultAdminEmail, "PROPERTYHUB_ADMIN_EMAIL")
	setString(&cfg.Auth.DefaultAdminPass, "PROPERTYHUB_ADMIN_PASS")
	setInt64(&cfg.Cache.MaxCostBytes, "PROPERTYHUB_CACHE_MAX_BYTES")
	setDuration(&cfg.Cache.ListingTTL, "PROPERTYHUB_CACHE_LISTING_TTL")
	setString(&cfg.Media.BaseURL, "PROPERTYHUB_MEDIA_BASE_URL")
	setString(&cfg.Media.CloudName, "PROPERTYHUB_MEDIA_CLOUD_NAME")
	setString(&cfg.Media.APIKey, "PROPERTYHUB_MEDIA_API_KEY")
	setString(&cfg.Media.APISecret, "PROPERTYHUB_MEDIA_API_SECRET")
	setString(&cfg.Notifier.Provider, "PROPERTYHUB_NOTIFIER_PROVIDER")
	setString(&cfg.Notifier.WebhookURL, "PROPERTYHUB_NOTIFIER_WEBHOOK_URL")
	setDuration(&cfg.Ledger.ReservationTTL, "PROPERTYHUB_LEDGER_RESERVATION_TTL")
	setString(&cfg.Ledger.ReconcileSchedule, "PROPERTYHUB_LEDGER_RECONCILE_SCHEDULE")
	setInt(&cfg.Breaker.MaxFailures, "PROPERTYHUB_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PROPERTYHUB_BREAKER_TIMEOUT")
	setBool(&cfg.Otel.Enabled, "PROPERTYHUB_OTEL_ENABLED")
	setString(&cfg.Otel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.BcryptCost < 4 {
		return errors.New("auth.bcrypt_cost must be >= 4")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Ledger.ReservationTTL <= 0 {
		return errors.New("ledger.reservation_ttl must be positive")
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
