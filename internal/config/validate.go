package config

import (
	"fmt"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks the configuration for errors.
// Returns nil if valid, or ValidationErrors if invalid.
func Validate(cfg Config) error {
	var errs ValidationErrors

	durations := []struct {
		field string
		value string
	}{
		{"PROVISION_GRACE", cfg.ProvisionGraceStr},
		{"DELETION_GRACE", cfg.DeletionGraceStr},
		{"MAX_TRACKED_AGE", cfg.MaxTrackedAgeStr},
		{"ANALYTICS_RETENTION", cfg.AnalyticsRetentionStr},
		{"DB_OP_TIMEOUT", cfg.DBOpTimeoutStr},
		{"HTTP_SHUTDOWN_TIMEOUT", cfg.HTTPShutdownTimeoutStr},
		{"DRAIN_TIMEOUT", cfg.DrainTimeoutStr},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if parsed <= 0 {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: "must be positive",
			})
		}
	}

	// The sweep must fire at least as often as records can overage;
	// a grace period longer than the max age would be cut short.
	if cfg.ProvisionGrace > 0 && cfg.MaxTrackedAge > 0 && cfg.ProvisionGrace >= cfg.MaxTrackedAge {
		errs = append(errs, ValidationError{
			Field:   "PROVISION_GRACE",
			Message: "must be shorter than MAX_TRACKED_AGE",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
