package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
server:
  listen: ":9090"
  postgresDsn: "host=db user=postgres"
  redisAddr: "localhost:6379"
auth:
  secret: "hunter2"
  sessionTTL: 720h
  freshnessWindow: 10s
  trustedProxies: ["10.0.0.0/8"]
  enableEmailHint: true
  secureCookies: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Listen != ":9090" {
		t.Fatalf("unexpected listen %s", cfg.Server.Listen)
	}
	if cfg.Auth.SessionTTL.Std() != 720*time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.Auth.SessionTTL.Std())
	}
	if cfg.Auth.FreshnessWindow.Std() != 10*time.Second {
		t.Fatalf("unexpected freshness window %v", cfg.Auth.FreshnessWindow.Std())
	}
	if !cfg.Auth.EnableEmailHint || !cfg.Auth.SecureCookies {
		t.Fatalf("unexpected auth flags %+v", cfg.Auth)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := write(t, `
auth:
  secret: "hunter2"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Fatalf("expected default listen, got %s", cfg.Server.Listen)
	}
	if cfg.Auth.SessionTTL.Std() != 30*24*time.Hour {
		t.Fatalf("expected 30 day default ttl, got %v", cfg.Auth.SessionTTL.Std())
	}
	if cfg.Auth.FreshnessWindow.Std() != 10*time.Second {
		t.Fatalf("expected 10s default window, got %v", cfg.Auth.FreshnessWindow.Std())
	}
}

func TestLoadMissingSecret(t *testing.T) {
	path := write(t, `
server:
  listen: ":8080"
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := write(t, `
auth:
  secret: "hunter2"
  freshnessWindow: soon
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
