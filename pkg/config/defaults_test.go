package config

import (
	"testing"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_LoggingNormalizesLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Store(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Store.Type != "filesystem" {
		t.Errorf("Expected default store type 'filesystem', got %q", cfg.Store.Type)
	}

	// Check filesystem defaults
	if cfg.Store.Filesystem == nil {
		t.Fatal("Expected Filesystem map to be initialized")
	}
	if root, ok := cfg.Store.Filesystem["root"]; !ok || root != "/tmp/zarrfs-data" {
		t.Errorf("Expected default filesystem root '/tmp/zarrfs-data', got %v", root)
	}

	// Check badger defaults
	if cfg.Store.Badger == nil {
		t.Fatal("Expected Badger map to be initialized")
	}
	if path, ok := cfg.Store.Badger["path"]; !ok || path != "/tmp/zarrfs-badger" {
		t.Errorf("Expected default badger path '/tmp/zarrfs-badger', got %v", path)
	}

	if cfg.Store.Memory == nil || cfg.Store.S3 == nil {
		t.Fatal("Expected all store sections to be initialized")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{
			Type:       "badger",
			Filesystem: map[string]any{"root": "/data/arrays"},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Store.Type != "badger" {
		t.Errorf("Expected explicit store type 'badger' to be preserved, got %q", cfg.Store.Type)
	}
	if cfg.Store.Filesystem["root"] != "/data/arrays" {
		t.Errorf("Expected explicit filesystem root to be preserved, got %v", cfg.Store.Filesystem["root"])
	}
}
