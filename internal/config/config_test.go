package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath(t *testing.T) {
	content := `
anthropic:
  api_key: test-key
  model: claude-sonnet-4-20250514
  call_timeout: 2m
store:
  backend: mongo
  mongo_uri: mongodb://localhost:27017
  mongo_database: loom_test
designs:
  dir: /etc/loom/designs
  watch: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("APIKey = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.CallTimeout != 2*time.Minute {
		t.Errorf("CallTimeout = %v, want 2m", cfg.Anthropic.CallTimeout)
	}
	if cfg.Store.Backend != "mongo" || cfg.Store.MongoDatabase != "loom_test" {
		t.Errorf("store config not parsed: %+v", cfg.Store)
	}
	if cfg.Designs.Dir != "/etc/loom/designs" || cfg.Designs.Watch {
		t.Errorf("designs config not parsed: %+v", cfg.Designs)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("default backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Anthropic.CallTimeout != 5*time.Minute {
		t.Errorf("default call timeout = %v, want 5m", cfg.Anthropic.CallTimeout)
	}
	if cfg.Designs.Dir != "designs" || !cfg.Designs.Watch {
		t.Errorf("unexpected designs defaults: %+v", cfg.Designs)
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	original := os.Getenv("LOOM_TEST_KEY")
	defer os.Setenv("LOOM_TEST_KEY", original)
	os.Setenv("LOOM_TEST_KEY", "expanded-key")

	content := "anthropic:\n  api_key: ${LOOM_TEST_KEY}\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Anthropic.APIKey != "expanded-key" {
		t.Errorf("APIKey = %q, want expanded value", cfg.Anthropic.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	cfg.Store.Backend = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Error("mongo backend without URI must be rejected")
	}
	cfg.Store.MongoURI = "mongodb://localhost:27017"
	if err := cfg.Validate(); err != nil {
		t.Errorf("mongo backend with URI must validate: %v", err)
	}

	cfg.Store.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend must be rejected")
	}
}
