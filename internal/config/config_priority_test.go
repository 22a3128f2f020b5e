package config

import (
	"testing"
)

func TestConfigPriority(t *testing.T) {
	t.Run("env vars should override file config", func(t *testing.T) {
		path := writeTempConfig(t,
			"port: 8000\n"+
				"debug: false\n"+
				"database:\n"+
				"  type: \"file-db\"\n"+
				"  dsn: \"file-dsn\"\n"+
				"auth:\n"+
				"  jwt_secret: \"file-secret\"\n"+
				"llm:\n"+
				"  fallback_key: \"file-fallback\"\n")

		t.Setenv("TECHPULSE_PORT", "9000")
		t.Setenv("TECHPULSE_DEBUG", "true")
		t.Setenv("TECHPULSE_DATABASE_TYPE", "env-db")
		t.Setenv("TECHPULSE_DATABASE_DSN", "env-dsn")
		t.Setenv("TECHPULSE_JWT_SECRET", "env-secret")
		t.Setenv("TECHPULSE_FALLBACK_LLM_KEY", "env-fallback")
		t.Setenv("TECHPULSE_PROVIDER_ORDER", "anthropic, openai")

		config, _, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}

		if config.Port != 9000 {
			t.Errorf("Expected port from env (9000), but got %d", config.Port)
		}
		if !config.Debug {
			t.Error("Expected debug from env (true), but got false")
		}
		if config.Database.Type != "env-db" {
			t.Errorf("Expected db type from env ('env-db'), but got %s", config.Database.Type)
		}
		if config.Database.DSN != "env-dsn" {
			t.Errorf("Expected db dsn from env ('env-dsn'), but got %s", config.Database.DSN)
		}
		if config.Auth.JWTSecret != "env-secret" {
			t.Errorf("Expected jwt secret from env ('env-secret'), but got %s", config.Auth.JWTSecret)
		}
		if config.LLM.FallbackKey != "env-fallback" {
			t.Errorf("Expected fallback key from env ('env-fallback'), but got %s", config.LLM.FallbackKey)
		}
		if len(config.LLM.ProviderOrder) != 2 || config.LLM.ProviderOrder[0] != "anthropic" || config.LLM.ProviderOrder[1] != "openai" {
			t.Errorf("Expected provider order [anthropic openai], but got %v", config.LLM.ProviderOrder)
		}
	})

	t.Run("legacy fallback variable is honoured", func(t *testing.T) {
		path := writeTempConfig(t, "database: {type: sqlite, dsn: x.db}\nauth: {jwt_secret: s}\n")
		t.Setenv("EMERGENT_LLM_KEY", "legacy-fallback")

		config, warning, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if config.LLM.FallbackKey != "legacy-fallback" {
			t.Errorf("Expected fallback key 'legacy-fallback', got %s", config.LLM.FallbackKey)
		}
		if warning != "" {
			t.Errorf("Expected no warning, got %q", warning)
		}
	})
}
