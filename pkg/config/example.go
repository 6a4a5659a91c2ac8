package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteExample writes a commented example configuration file to path.
//
// The file holds the default configuration with every store section
// present, so users can switch backends by editing store.type.
// Fails if a file already exists at path.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	doc := exampleDocument()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// exampleDocument builds the commented YAML tree for the example config.
func exampleDocument() *yaml.Node {
	return mapping(
		entry("logging", "Log output behavior", mapping(
			entry("level", "DEBUG, INFO, WARN or ERROR", scalar("INFO")),
			entry("format", "text or json", scalar("text")),
			entry("output", "stdout, stderr or a file path", scalar("stdout")),
		)),
		entry("store", "Storage backend selection", mapping(
			entry("type", "filesystem, memory, badger or s3", scalar("filesystem")),
			entry("filesystem", "", mapping(
				entry("root", "Directory holding the container", scalar("/tmp/zarrfs-data")),
			)),
			entry("badger", "", mapping(
				entry("path", "Database directory", scalar("/tmp/zarrfs-badger")),
				entry("in_memory", "Keep everything in RAM (testing)", scalar("false")),
				entry("sync_writes", "Flush every write to disk", scalar("false")),
			)),
			entry("s3", "", mapping(
				entry("bucket", "Bucket name (required for s3)", scalar("my-bucket")),
				entry("region", "AWS region (required for s3)", scalar("us-east-1")),
				entry("key_prefix", "Optional prefix for all object keys", scalar("")),
				entry("endpoint", "Custom endpoint for MinIO/Localstack", scalar("")),
				entry("access_key_id", "Static credentials (default chain if empty)", scalar("")),
				entry("secret_access_key", "", scalar("")),
			)),
		)),
		entry("metrics", "Prometheus metrics collection", mapping(
			entry("enabled", "", scalar("false")),
		)),
	)
}

// entry returns the key/value node pair for one mapping entry, with an
// optional head comment on the key.
func entry(key, comment string, value *yaml.Node) []*yaml.Node {
	k := &yaml.Node{Kind: yaml.ScalarNode, Value: key, HeadComment: comment}
	return []*yaml.Node{k, value}
}

func mapping(entries ...[]*yaml.Node) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		node.Content = append(node.Content, e...)
	}
	return node
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}
