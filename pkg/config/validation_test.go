package config

import (
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Expected valid config, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid log level, got nil")
	}
}

func TestValidate_BadStoreType(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Type = "redis"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown store type, got nil")
	}
}

func TestValidate_FilesystemRequiresRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Type = "filesystem"
	cfg.Store.Filesystem = map[string]any{}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for missing filesystem root, got nil")
	}
}

func TestValidate_BadgerPathOrInMemory(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Type = "badger"
	cfg.Store.Badger = map[string]any{}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for badger without path, got nil")
	}

	cfg.Store.Badger = map[string]any{"in_memory": true}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected in-memory badger to validate, got: %v", err)
	}
}

func TestValidate_S3RequiresBucketAndRegion(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Type = "s3"
	cfg.Store.S3 = map[string]any{"region": "us-east-1"}

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for missing S3 bucket, got nil")
	}

	cfg.Store.S3 = map[string]any{"bucket": "data"}
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for missing S3 region, got nil")
	}

	cfg.Store.S3 = map[string]any{"bucket": "data", "region": "us-east-1"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected valid S3 config, got: %v", err)
	}
}
