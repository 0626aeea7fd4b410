package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IDEABOARD_DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 3000 {
		t.Errorf("default port = %d, want 3000", cfg.HTTPPort)
	}
	if cfg.AdminUsername != "admin" {
		t.Errorf("default admin username = %q", cfg.AdminUsername)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("default embedding model = %q", cfg.EmbeddingModel)
	}
	if cfg.TelemetryQueueSize != 256 {
		t.Errorf("default queue size = %d", cfg.TelemetryQueueSize)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected a generated JWT secret")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IDEABOARD_DATA_DIR", t.TempDir())
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("ADMIN_USERNAME", "boss")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-large")
	t.Setenv("JWT_SECRET", "fixed-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SLACK_CHANNEL", "#alerts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.AdminUsername != "boss" {
		t.Errorf("admin username = %q", cfg.AdminUsername)
	}
	if cfg.EmbeddingModel != "text-embedding-3-large" {
		t.Errorf("embedding model = %q", cfg.EmbeddingModel)
	}
	if cfg.JWTSecret != "fixed-secret" {
		t.Errorf("jwt secret = %q", cfg.JWTSecret)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SlackChannel != "#alerts" {
		t.Errorf("slack channel = %q, want #alerts", cfg.SlackChannel)
	}
}

func TestLoadYAMLFileWithEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "http_port: 9000\nembedding_model: from-file\nlog_mode: prod\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("IDEABOARD_DATA_DIR", dir)
	t.Setenv("IDEABOARD_CONFIG", path)
	t.Setenv("HTTP_PORT", "8081") // env beats file

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPPort != 8081 {
		t.Errorf("port = %d, want env override 8081", cfg.HTTPPort)
	}
	if cfg.EmbeddingModel != "from-file" {
		t.Errorf("embedding model = %q, want from-file", cfg.EmbeddingModel)
	}
	if cfg.LogMode != "prod" {
		t.Errorf("log mode = %q, want prod", cfg.LogMode)
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	t.Setenv("IDEABOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestJWTSecretPersistedAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IDEABOARD_DATA_DIR", dir)

	first := loadOrGenerateJWTSecret(filepath.Join(dir, ".jwt_secret"))
	second := loadOrGenerateJWTSecret(filepath.Join(dir, ".jwt_secret"))
	if first == "" || first != second {
		t.Errorf("expected stable persisted secret, got %q then %q", first, second)
	}
}
