package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/yoanbernabeu/wrtprobe/internal/security"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ValidateSuiteConfig validates the suite configuration
func ValidateSuiteConfig(config *SuiteConfig) ValidationErrors {
	var errors ValidationErrors

	if config.Expect.Distribution == "" {
		errors = append(errors, ValidationError{
			Field:   "expect.distribution",
			Message: "expected distribution is required",
		})
	}

	if config.Memory.Threshold() < 0 {
		errors = append(errors, ValidationError{
			Field:   "memory.used_threshold_mb",
			Message: "threshold must not be negative",
		})
	}

	if config.Dropbear.Attempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "dropbear.attempts",
			Message: "attempts must be at least 1",
		})
	}

	before := len(errors)
	errors = appendDurationError(errors, "dropbear.interval", config.Dropbear.Interval)
	errors = appendDurationError(errors, "dropbear.settle", config.Dropbear.Settle)
	errors = appendDurationError(errors, "check_timeout", config.CheckTimeout)

	// base.DropbearStartup must reach its listen check before the timeout
	if len(errors) == before && config.Dropbear.Attempts > 0 {
		if budget := config.Dropbear.Budget(); config.Timeout() <= budget {
			errors = append(errors, ValidationError{
				Field:   "check_timeout",
				Message: fmt.Sprintf("check timeout %s must be longer than the dropbear poll budget %s (attempts x interval + settle)", config.Timeout(), budget),
			})
		}
	}

	if err := security.ValidateRemotePath(config.Dropbear.HostKey); err != nil {
		errors = append(errors, ValidationError{
			Field:   "dropbear.host_key",
			Message: err.Error(),
		})
	}

	if err := security.ValidateRemotePath(config.Backup.Path); err != nil {
		errors = append(errors, ValidationError{
			Field:   "backup.path",
			Message: err.Error(),
		})
	}

	if config.Backup.ConfigEntry == "" || strings.HasPrefix(config.Backup.ConfigEntry, "/") {
		errors = append(errors, ValidationError{
			Field:   "backup.config_entry",
			Message: "config entry must be a relative archive path like etc/config/dropbear",
		})
	}

	if !isValidStore(config.Results.Store) {
		errors = append(errors, ValidationError{
			Field:   "results.store",
			Message: "unsupported results store (use sqlite or json)",
		})
	}

	return errors
}

// ValidateTargetConfig validates a target configuration
func ValidateTargetConfig(config *TargetConfig) ValidationErrors {
	var errors ValidationErrors

	if config.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "host",
			Message: "target host is required",
		})
	}

	if config.User == "" {
		errors = append(errors, ValidationError{
			Field:   "user",
			Message: "target user is required",
		})
	} else if err := security.ValidateUnixUser(config.User); err != nil {
		errors = append(errors, ValidationError{
			Field:   "user",
			Message: err.Error(),
		})
	}

	if config.Port < 1 || config.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "port",
			Message: "port must be between 1 and 65535",
		})
	}

	for _, f := range config.Features {
		if err := security.ValidateFeature(f); err != nil {
			errors = append(errors, ValidationError{
				Field:   "features",
				Message: err.Error(),
			})
		}
	}

	return errors
}

func appendDurationError(errors ValidationErrors, field, value string) ValidationErrors {
	if value == "" {
		return errors
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return append(errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid duration %q", value),
		})
	}
	return errors
}

func isValidStore(store string) bool {
	validStores := []string{"sqlite", "json"}
	for _, s := range validStores {
		if store == s {
			return true
		}
	}
	return false
}
