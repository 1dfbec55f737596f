package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr default mismatch: got %q", cfg.HTTPAddr)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("RedisAddr default mismatch: got %q", cfg.RedisAddr)
	}
	if cfg.MongoDB != "recordmusic" {
		t.Errorf("MongoDB default mismatch: got %q", cfg.MongoDB)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort default mismatch: got %d", cfg.SMTPPort)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("KAFKA_TOPIC", "events")

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr: got %q want :9090", cfg.HTTPAddr)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB: got %d want 3", cfg.RedisDB)
	}
	if !cfg.MinIOUseSSL {
		t.Errorf("MinIOUseSSL: got false want true")
	}
	if cfg.KafkaTopic != "events" {
		t.Errorf("KafkaTopic: got %q want events", cfg.KafkaTopic)
	}
}

func TestLoadEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "maybe")

	cfg := Load()

	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB: got %d want fallback 0", cfg.RedisDB)
	}
	if cfg.MinIOUseSSL {
		t.Errorf("MinIOUseSSL: got true want fallback false")
	}
}
