package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
//
// Type-specific store sections are free-form maps, so the presence of
// fields required by the selected backend is checked here rather than
// through tags. Field-level decoding errors are left to the store
// factories.
func validateCustomRules(cfg *Config) error {
	switch cfg.Store.Type {
	case "filesystem":
		if v, ok := cfg.Store.Filesystem["root"].(string); !ok || v == "" {
			return fmt.Errorf("store.filesystem: root is required")
		}
	case "badger":
		inMemory, _ := cfg.Store.Badger["in_memory"].(bool)
		path, _ := cfg.Store.Badger["path"].(string)
		if !inMemory && path == "" {
			return fmt.Errorf("store.badger: path is required unless in_memory is set")
		}
	case "s3":
		if v, ok := cfg.Store.S3["bucket"].(string); !ok || v == "" {
			return fmt.Errorf("store.s3: bucket is required")
		}
		if v, ok := cfg.Store.S3["region"].(string); !ok || v == "" {
			return fmt.Errorf("store.s3: region is required")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
