package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidOutputFormats returns the list of valid CLI output formats
func ValidOutputFormats() []string {
	return []string{"text", "markdown", "json", "yaml"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Value:   c.Server.Port,
			Message: "must be between 1 and 65535",
		})
	}
	for _, d := range []struct {
		field string
		value any
		ok    bool
	}{
		{"server.read_header_timeout", c.Server.ReadHeaderTimeout, c.Server.ReadHeaderTimeout > 0},
		{"server.read_timeout", c.Server.ReadTimeout, c.Server.ReadTimeout > 0},
		{"server.write_timeout", c.Server.WriteTimeout, c.Server.WriteTimeout > 0},
		{"server.idle_timeout", c.Server.IdleTimeout, c.Server.IdleTimeout > 0},
		{"server.solve_timeout", c.Server.SolveTimeout, c.Server.SolveTimeout > 0},
		{"server.max_body_bytes", c.Server.MaxBodyBytes, c.Server.MaxBodyBytes > 0},
		{"batch.concurrency", c.Batch.Concurrency, c.Batch.Concurrency > 0},
	} {
		if !d.ok {
			errs = append(errs, ValidationError{Field: d.field, Value: d.value, Message: "must be positive"})
		}
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if !slices.Contains(ValidOutputFormats(), c.Output.Format) {
		errs = append(errs, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	return errs
}
