package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORTAL_UPSTREAM_URL", "http://gateway.local")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %s, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Upstream.BaseURL != "http://gateway.local" {
		t.Errorf("BaseURL = %s, want http://gateway.local", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Upstream.MaxRetries)
	}
}

func TestLoadFromPath_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	data := []byte(`
server:
  listen_addr: ":9090"
upstream:
  base_url: "http://from-file"
  timeout: 5s
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	// Env wins over file.
	t.Setenv("PORTAL_UPSTREAM_URL", "http://from-env")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %s, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Upstream.BaseURL != "http://from-env" {
		t.Errorf("BaseURL = %s, want http://from-env", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Upstream.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromPath_MissingUpstreamURL(t *testing.T) {
	t.Setenv("PORTAL_UPSTREAM_URL", "")

	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadFromPath() expected error for missing upstream URL")
	}
}
