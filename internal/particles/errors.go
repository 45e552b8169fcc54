package particles

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates a simulation configuration that violates a
	// validation rule.
	ErrConfiguration = errors.New("particles: invalid configuration")

	// ErrInvalidArgument indicates an argument outside its valid domain,
	// such as a negative time step.
	ErrInvalidArgument = errors.New("particles: invalid argument")
)

// ConfigurationError reports the first validation rule a configuration
// violated.
type ConfigurationError struct {
	Field      string
	Constraint string
	Value      any
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s %s, got %v", ErrConfiguration, e.Field, e.Constraint, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
