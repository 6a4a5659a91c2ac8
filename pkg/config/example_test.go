package config

import (
	"path/filepath"
	"testing"
)

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := WriteExample(path); err != nil {
		t.Fatalf("Failed to write example config: %v", err)
	}

	// The generated file must load and validate as-is.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated example config does not load: %v", err)
	}
	if cfg.Store.Type != "filesystem" {
		t.Errorf("Expected example store type 'filesystem', got %q", cfg.Store.Type)
	}

	// Writing over an existing file is refused.
	if err := WriteExample(path); err == nil {
		t.Fatal("Expected error when config file already exists, got nil")
	}
}
