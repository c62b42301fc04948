package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/respicare_test")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AIServiceURL != "http://localhost:8000" {
		t.Errorf("expected default AI service URL, got %s", cfg.AIServiceURL)
	}
	if cfg.AITimeout() != 10*time.Second {
		t.Errorf("expected 10s AI timeout, got %s", cfg.AITimeout())
	}
	if cfg.AIHealthTimeout() != 3*time.Second {
		t.Errorf("expected 3s health probe timeout, got %s", cfg.AIHealthTimeout())
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_AuthSecretRequiredOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", AIServiceURL: "http://ai:8000", AITimeoutSeconds: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing AUTH_SECRET in production")
	}
	cfg.AuthSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DevSkipsAuthSecret(t *testing.T) {
	cfg := &Config{Env: "development", AIServiceURL: "http://ai:8000", AITimeoutSeconds: 10}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_TimeoutMustBePositive(t *testing.T) {
	cfg := &Config{Env: "development", AIServiceURL: "http://ai:8000", AITimeoutSeconds: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive AI timeout")
	}
}
