package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Models.Dir != "./models" || config.HTTP.Port != 5001 {
		t.Errorf("unexpected defaults: %+v", config)
	}
	if config.Targets.CacheSize != 16 {
		t.Errorf("unexpected target cache size %d", config.Targets.CacheSize)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
models:
  dir: /srv/models
http:
  port: 8080
  timeout: 5s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := loadConfig(path, env(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Models.Dir != "/srv/models" || config.HTTP.Port != 8080 || config.Log.Level != "debug" {
		t.Errorf("file values not applied: %+v", config)
	}
	if time.Duration(config.HTTP.Timeout) != 5*time.Second {
		t.Errorf("unexpected timeout %v", time.Duration(config.HTTP.Timeout))
	}
	if len(config.HTTP.AllowedOrigins) != 1 {
		t.Errorf("defaults for unset keys should survive, got %v", config.HTTP.AllowedOrigins)
	}

	config, err = loadConfig(path, env(map[string]string{"MODEL_DIR": "/tmp/m", "PORT": "9000"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Models.Dir != "/tmp/m" || config.HTTP.Port != 9000 {
		t.Errorf("env overrides not applied: %+v", config)
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), env(map[string]string{"PORT": "http"}))
	if err == nil {
		t.Fatal("expected an error for a non-numeric PORT")
	}
}
