package config

import "fmt"

// ConfigError describes an invalid configuration: a parse failure, an
// unknown key or layer reference, a duplicate binding, or a base layer
// missing a binding for a cataloged key. Detected entirely at load time,
// fatal only to that load attempt.
type ConfigError struct {
	// Path is the file that failed to load, when known.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
