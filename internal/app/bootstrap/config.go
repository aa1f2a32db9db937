package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the session guard.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	GuardTokenSecret string
	BcryptCost       int

	IdleThreshold    time.Duration
	WarningWindow    time.Duration
	TickInterval     time.Duration
	MaxAttempts      int
	PolicyFailMode   string
	MarkerTTL        time.Duration
	ReverifyTokenTTL time.Duration

	AuthBaseURL string
	AuthAPIKey  string

	KafkaBrokers []string

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		AuthBaseURL  string   `yaml:"auth_base_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Guard struct {
		IdleThresholdSeconds int    `yaml:"idle_threshold_seconds"`
		WarningWindowSeconds int    `yaml:"warning_window_seconds"`
		TickIntervalMS       int    `yaml:"tick_interval_ms"`
		MaxPasscodeAttempts  int    `yaml:"max_passcode_attempts"`
		PolicyFailMode       string `yaml:"policy_fail_mode"`
	} `yaml:"guard"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "DocuKeep-Session-Guard",
		HTTPPort:           8080,
		GRPCPort:           9090,
		BcryptCost:         12,
		IdleThreshold:      300 * time.Second,
		WarningWindow:      30 * time.Second,
		TickInterval:       time.Second,
		MaxAttempts:        3,
		PolicyFailMode:     "open",
		MarkerTTL:          time.Hour,
		ReverifyTokenTTL:   30 * time.Minute,
		MaxDBConns:         20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.AuthBaseURL != "" {
			cfg.AuthBaseURL = f.Dependencies.AuthBaseURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Guard.IdleThresholdSeconds > 0 {
			cfg.IdleThreshold = time.Duration(f.Guard.IdleThresholdSeconds) * time.Second
		}
		if f.Guard.WarningWindowSeconds > 0 {
			cfg.WarningWindow = time.Duration(f.Guard.WarningWindowSeconds) * time.Second
		}
		if f.Guard.TickIntervalMS > 0 {
			cfg.TickInterval = time.Duration(f.Guard.TickIntervalMS) * time.Millisecond
		}
		if f.Guard.MaxPasscodeAttempts > 0 {
			cfg.MaxAttempts = f.Guard.MaxPasscodeAttempts
		}
		if f.Guard.PolicyFailMode != "" {
			cfg.PolicyFailMode = f.Guard.PolicyFailMode
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.GuardTokenSecret = envOrDefault("GUARD_TOKEN_SECRET", cfg.GuardTokenSecret)
	cfg.AuthBaseURL = envOrDefault("AUTH_BASE_URL", cfg.AuthBaseURL)
	cfg.AuthAPIKey = envOrDefault("AUTH_API_KEY", cfg.AuthAPIKey)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.PolicyFailMode = strings.ToLower(strings.TrimSpace(envOrDefault("POLICY_FAIL_MODE", cfg.PolicyFailMode)))

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.MaxAttempts = envInt("MAX_PASSCODE_ATTEMPTS", cfg.MaxAttempts)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.IdleThreshold = time.Duration(envInt("IDLE_THRESHOLD_SECONDS", int(cfg.IdleThreshold.Seconds()))) * time.Second
	cfg.WarningWindow = time.Duration(envInt("WARNING_WINDOW_SECONDS", int(cfg.WarningWindow.Seconds()))) * time.Second
	cfg.TickInterval = time.Duration(envInt("TICK_INTERVAL_MS", int(cfg.TickInterval.Milliseconds()))) * time.Millisecond
	cfg.MarkerTTL = time.Duration(envInt("TERMINATION_MARKER_TTL_MINUTES", int(cfg.MarkerTTL.Minutes()))) * time.Minute
	cfg.ReverifyTokenTTL = time.Duration(envInt("REVERIFY_TOKEN_TTL_MINUTES", int(cfg.ReverifyTokenTTL.Minutes()))) * time.Minute
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.GuardTokenSecret == "" {
		return Config{}, fmt.Errorf("missing GUARD_TOKEN_SECRET")
	}
	if cfg.AuthBaseURL == "" {
		return Config{}, fmt.Errorf("missing AUTH_BASE_URL")
	}
	if cfg.WarningWindow > cfg.IdleThreshold {
		return Config{}, fmt.Errorf("warning window must not exceed idle threshold")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
