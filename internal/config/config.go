package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DisabledSpec turns off a scheduled job when used as its cron spec.
const DisabledSpec = "off"

// DatabaseConfig holds the database connection information.
type DatabaseConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// AuthConfig holds the JWT settings used for user sessions.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

// TTL returns the parsed token lifetime. LoadConfig guarantees it parses.
func (c AuthConfig) TTL() time.Duration {
	d, _ := time.ParseDuration(c.TokenTTL)
	return d
}

// LLMConfig holds the provider failover settings.
type LLMConfig struct {
	// FallbackKey is the last-resort secret used when no managed credential succeeds.
	FallbackKey      string            `yaml:"fallback_key"`
	FallbackProvider string            `yaml:"fallback_provider"`
	FallbackModel    string            `yaml:"fallback_model"`
	ProviderOrder    []string          `yaml:"provider_order"`
	RequestTimeout   string            `yaml:"request_timeout"`
	BaseURLs         map[string]string `yaml:"base_urls"`
}

// Timeout returns the per-call deadline for remote generation.
func (c LLMConfig) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// SchedulerConfig holds the cron specs of the background jobs.
type SchedulerConfig struct {
	UsageResetSpec  string `yaml:"usage_reset_spec"`
	FeedCollectSpec string `yaml:"feed_collect_spec"`
}

// FeedsConfig holds RSS fetching limits.
type FeedsConfig struct {
	FetchTimeout string `yaml:"fetch_timeout"`
	MaxEntries   int    `yaml:"max_entries"`
}

// Timeout returns the parsed fetch timeout.
func (c FeedsConfig) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// Config holds the configuration for the platform.
type Config struct {
	Database    DatabaseConfig  `yaml:"database"`
	Auth        AuthConfig      `yaml:"auth"`
	LLM         LLMConfig       `yaml:"llm"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
	Feeds       FeedsConfig     `yaml:"feeds"`
	CORSOrigins []string        `yaml:"cors_origins"`
	Port        int             `yaml:"port"`
	Debug       bool            `yaml:"debug"`
}

// LoadConfig reads and parses the configuration file. It returns the config and a potential warning message.
var LoadConfig = func(path string) (*Config, string, error) {
	var config Config
	var warnings []string

	data, err := os.ReadFile(path)
	if err == nil {
		if err = yaml.Unmarshal(data, &config); err != nil {
			return nil, "", fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}
	// A missing file is fine, environment variables may carry everything.

	applyEnv(&config)

	if config.Port == 0 {
		config.Port = 8001
	}
	if config.Auth.TokenTTL == "" {
		config.Auth.TokenTTL = "24h"
	}
	if len(config.LLM.ProviderOrder) == 0 {
		config.LLM.ProviderOrder = []string{"gemini", "openai", "anthropic"}
	}
	if config.LLM.FallbackProvider == "" {
		config.LLM.FallbackProvider = "gemini"
	}
	if config.LLM.FallbackModel == "" {
		config.LLM.FallbackModel = "gemini-2.0-flash"
	}
	if config.LLM.RequestTimeout == "" {
		config.LLM.RequestTimeout = "60s"
	}
	if config.Scheduler.UsageResetSpec == "" {
		config.Scheduler.UsageResetSpec = "@daily"
	}
	if config.Scheduler.FeedCollectSpec == "" {
		config.Scheduler.FeedCollectSpec = DisabledSpec
	}
	if config.Feeds.FetchTimeout == "" {
		config.Feeds.FetchTimeout = "30s"
	}
	if config.Feeds.MaxEntries == 0 {
		config.Feeds.MaxEntries = 10
	}
	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"*"}
	}
	if config.LLM.FallbackKey == "" {
		warnings = append(warnings, "llm.fallback_key not set, generation fails once every managed credential is exhausted")
	}

	if config.Database.Type == "" || config.Database.DSN == "" {
		return nil, "", fmt.Errorf("database type and dsn must be configured in config.yaml or via environment variables")
	}
	if config.Auth.JWTSecret == "" {
		return nil, "", fmt.Errorf("auth.jwt_secret must be configured in config.yaml or via TECHPULSE_JWT_SECRET")
	}
	for name, value := range map[string]string{
		"auth.token_ttl":      config.Auth.TokenTTL,
		"llm.request_timeout": config.LLM.RequestTimeout,
		"feeds.fetch_timeout": config.Feeds.FetchTimeout,
	} {
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return nil, "", fmt.Errorf("invalid duration for %s: %q", name, value)
		}
	}

	return &config, strings.Join(warnings, "; "), nil
}

func applyEnv(config *Config) {
	if dsn := os.Getenv("TECHPULSE_DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if dbType := os.Getenv("TECHPULSE_DATABASE_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if port := os.Getenv("TECHPULSE_PORT"); port != "" {
		var p int
		if n, err := fmt.Sscanf(port, "%d", &p); err == nil && n == 1 {
			config.Port = p
		}
	}
	if debug := os.Getenv("TECHPULSE_DEBUG"); debug != "" {
		config.Debug = debug == "true"
	}
	if secret := os.Getenv("TECHPULSE_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if key := os.Getenv("TECHPULSE_FALLBACK_LLM_KEY"); key != "" {
		config.LLM.FallbackKey = key
	} else if key := os.Getenv("EMERGENT_LLM_KEY"); key != "" && config.LLM.FallbackKey == "" {
		config.LLM.FallbackKey = key
	}
	if order := os.Getenv("TECHPULSE_PROVIDER_ORDER"); order != "" {
		var providers []string
		for _, p := range strings.Split(order, ",") {
			if p = strings.TrimSpace(p); p != "" {
				providers = append(providers, p)
			}
		}
		config.LLM.ProviderOrder = providers
	}
	if origins := os.Getenv("TECHPULSE_CORS_ORIGINS"); origins != "" {
		config.CORSOrigins = strings.Split(origins, ",")
	}
}
