package conproxy

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFunction is returned when an interceptor is registered for a
	// name the target console does not have.
	ErrUnknownFunction = errors.New("conproxy: unknown console function")

	// ErrConfig is wrapped by every configuration loading failure.
	ErrConfig = errors.New("conproxy: invalid config")
)

// ConfigError reports a registration against a function missing from the target.
type ConfigError struct {
	Name FuncName
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("conproxy: console doesn't have a function named %q", string(e.Name))
}

func (e *ConfigError) Unwrap() error { return ErrUnknownFunction }
