package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error with user-friendly message.
type ValidationError struct {
	Field   string      // Field path (e.g., "sampling.history_size")
	Tag     string      // Validation tag that failed (e.g., "min", "oneof")
	Value   interface{} // Actual value that failed validation
	Message string      // User-friendly error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Has reports whether any error refers to field.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their config key instead of the Go field name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// Validate validates the configuration and returns user-friendly error messages.
func Validate(cfg *Config) error {
	var validationErrors ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, &ValidationError{
					Field:   formatFieldName(fe.Namespace()),
					Tag:     fe.Tag(),
					Value:   fe.Value(),
					Message: translateError(fe),
				})
			}
		}
	}

	validationErrors = append(validationErrors, validateSampling(cfg)...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// validateSampling checks the cadence settings against each other.
func validateSampling(cfg *Config) ValidationErrors {
	var errs ValidationErrors
	s := cfg.Sampling

	if s.Interval > 0 && s.FrameInterval > s.Interval {
		errs = append(errs, &ValidationError{
			Field:   "sampling.frame_interval",
			Tag:     "ltefield",
			Value:   s.FrameInterval,
			Message: fmt.Sprintf("frame interval (%s) must not exceed the sampling interval (%s)", s.FrameInterval, s.Interval),
		})
	}

	if s.Interval > 0 && s.PollTimeout > s.Interval {
		errs = append(errs, &ValidationError{
			Field:   "sampling.poll_timeout",
			Tag:     "ltefield",
			Value:   s.PollTimeout,
			Message: fmt.Sprintf("poll timeout (%s) must not exceed the sampling interval (%s)", s.PollTimeout, s.Interval),
		})
	}

	return errs
}

// formatFieldName strips the root struct name from a validator namespace.
// Example: "Config.sampling.history_size" -> "sampling.history_size"
func formatFieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

// translateError converts a validator.FieldError to a user-friendly message.
func translateError(fe validator.FieldError) string {
	field := formatFieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "gt":
		return fmt.Sprintf("value must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("value must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("value must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	case "ip":
		return fmt.Sprintf("invalid IP address: %v", fe.Value())
	case "hostname_port":
		return fmt.Sprintf("invalid host:port address: %v", fe.Value())
	default:
		return fmt.Sprintf("validation failed on '%s' tag for field '%s'", fe.Tag(), field)
	}
}
