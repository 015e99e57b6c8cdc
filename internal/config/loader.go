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
const DefaultConfigFile = "onboardforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("ONBOARDFORGE_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
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
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
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
	setString(&cfg.Server.Port, "ONBOARDFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "ONBOARDFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "ONBOARDFORGE_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "ONBOARDFORGE_SHUTDOWN_TIMEOUT")
	setString(&cfg.Logging.Level, "ONBOARDFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Format, "ONBOARDFORGE_LOG_FORMAT")
	setString(&cfg.Logging.Service, "ONBOARDFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ONBOARDFORGE_LOG_ASYNC")

	// Store
	setString(&cfg.Store.Driver, "ONBOARDFORGE_STORE")
	setDuration(&cfg.Store.CaseTTL, "ONBOARDFORGE_STORE_CASE_TTL")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "ONBOARDFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "ONBOARDFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "ONBOARDFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "ONBOARDFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "ONBOARDFORGE_PG_HEALTH_CHECK")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")

	// NATS
	setBool(&cfg.NATS.Enabled, "ONBOARDFORGE_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.AutoProcess, "ONBOARDFORGE_NATS_AUTO_PROCESS")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "ONBOARDFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "ONBOARDFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "ONBOARDFORGE_CACHE_L2_TTL")
	setString(&cfg.Cache.L2Driver, "ONBOARDFORGE_CACHE_L2_DRIVER")

	// Explainer
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.LiteLLM.Model, "ONBOARDFORGE_EXPLAINER_MODEL")
	setBool(&cfg.Explainer.Enabled, "ONBOARDFORGE_EXPLAINER_ENABLED")
	setDuration(&cfg.Explainer.Timeout, "ONBOARDFORGE_EXPLAINER_TIMEOUT")
	setInt(&cfg.Explainer.MaxTokens, "ONBOARDFORGE_EXPLAINER_MAX_TOKENS")
	setFloat64(&cfg.Explainer.Temperature, "ONBOARDFORGE_EXPLAINER_TEMPERATURE")
	setString(&cfg.Explainer.Fallback, "ONBOARDFORGE_EXPLAINER_FALLBACK")
	setInt(&cfg.Breaker.MaxFailures, "ONBOARDFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "ONBOARDFORGE_BREAKER_TIMEOUT")

	// Rate
	setFloat64(&cfg.Rate.RequestsPerSecond, "ONBOARDFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "ONBOARDFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "ONBOARDFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "ONBOARDFORGE_RATE_MAX_IDLE_TIME")

	// Decision
	setInt(&cfg.Decision.ApproveCredit, "ONBOARDFORGE_APPROVE_CREDIT")
	setInt(&cfg.Decision.ApproveCompliance, "ONBOARDFORGE_APPROVE_COMPLIANCE")
	setInt(&cfg.Decision.RejectCredit, "ONBOARDFORGE_REJECT_CREDIT")
	setInt(&cfg.Decision.RejectCompliance, "ONBOARDFORGE_REJECT_COMPLIANCE")
	setFloat64(&cfg.Decision.AutoApproveLimit, "ONBOARDFORGE_AUTO_APPROVE_LIMIT")
	setString(&cfg.Decision.RulesFile, "ONBOARDFORGE_RULES_FILE")

	setString(&cfg.Communication.BankName, "ONBOARDFORGE_BANK_NAME")
	setString(&cfg.Communication.SupportEmail, "ONBOARDFORGE_SUPPORT_EMAIL")

	// OTEL
	setBool(&cfg.OTEL.Enabled, "ONBOARDFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "ONBOARDFORGE_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "ONBOARDFORGE_OTEL_SAMPLE_RATE")

	setBool(&cfg.MCP.Enabled, "ONBOARDFORGE_MCP_ENABLED")

	setBool(&cfg.Idempotency.Enabled, "ONBOARDFORGE_IDEMPOTENCY_ENABLED")
	setDuration(&cfg.Idempotency.TTL, "ONBOARDFORGE_IDEMPOTENCY_TTL")

	// Alerts
	setBool(&cfg.Alerts.Enabled, "ONBOARDFORGE_ALERTS_ENABLED")
	setDuration(&cfg.Alerts.Timeout, "ONBOARDFORGE_ALERTS_TIMEOUT")
	setInt(&cfg.Alerts.MaxInFlight, "ONBOARDFORGE_ALERTS_MAX_IN_FLIGHT")
	setString(&cfg.Alerts.DashboardURL, "ONBOARDFORGE_DASHBOARD_URL")
	setTarget(&cfg.Alerts, "slack", "ONBOARDFORGE_SLACK_WEBHOOK_URL")
	setTarget(&cfg.Alerts, "discord", "ONBOARDFORGE_DISCORD_WEBHOOK_URL")
}

func setTarget(a *Alerts, provider, key string) {
	if v := os.Getenv(key); v != "" {
		if a.Targets == nil {
			a.Targets = make(map[string]string)
		}
		a.Targets[provider] = v
	}
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Driver {
	case StoreMemory, StoreRistretto:
	case StorePostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required for the postgres store")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis store")
		}
	case StoreNATSKV, StoreTiered:
		if cfg.NATS.URL == "" && (cfg.Store.Driver == StoreNATSKV || cfg.Cache.L2Driver == StoreNATSKV) {
			return errors.New("nats.url is required for the natskv store")
		}
		if cfg.Store.Driver == StoreTiered && cfg.Cache.L2Driver != StoreNATSKV && cfg.Cache.L2Driver != StoreRedis {
			return fmt.Errorf("cache.l2_driver must be natskv or redis, got %q", cfg.Cache.L2Driver)
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", cfg.Store.Driver)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", cfg.Logging.Format)
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if cfg.NATS.AutoProcess && !cfg.NATS.Enabled {
		return errors.New("nats.auto_process requires nats.enabled")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Explainer.Enabled && cfg.Explainer.Timeout <= 0 {
		return errors.New("explainer.timeout must be positive")
	}
	if cfg.Alerts.Enabled {
		if len(cfg.Alerts.Targets) == 0 {
			return errors.New("alerts.targets must name at least one notifier when alerts are enabled")
		}
		if cfg.Alerts.Timeout <= 0 || cfg.Alerts.MaxInFlight < 1 {
			return errors.New("alerts.timeout and alerts.max_in_flight must be positive")
		}
	}
	if err := cfg.Decision.Thresholds().Validate(); err != nil {
		return fmt.Errorf("decision: %w", err)
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
