package config

import (
	"testing"
	"time"
)

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing API_BASE_URL")
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid API_BASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("timeout = %v, want 15s", cfg.API.Timeout)
	}
	// https host'undan wss türetilmeli.
	if cfg.Realtime.URL != "wss://api.example.com" {
		t.Errorf("realtime url = %q, want wss://api.example.com", cfg.Realtime.URL)
	}
	if cfg.Storage.Path != "./data/lokanta.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Pretty {
		t.Errorf("log config = %+v", cfg.Log)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8080")
	t.Setenv("REALTIME_URL", "ws://localhost:9090")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Realtime.URL != "ws://localhost:9090" {
		t.Errorf("realtime url = %q", cfg.Realtime.URL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("log config = %+v", cfg.Log)
	}
}
