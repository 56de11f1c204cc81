package analytics

import "errors"

// ErrNotInitialized is returned by every operation invoked on a client that
// was never constructed, including the ambient handle before Init.
var ErrNotInitialized = errors.New("analytics: client is not initialized")

// ErrAlreadyInitialized is returned by Init when an ambient client already
// exists. The losing client is closed, never silently swapped in.
var ErrAlreadyInitialized = errors.New("analytics: ambient client is already initialized")

// ConfigError reports a write key or endpoint configuration that cannot
// produce a usable client.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// ValidationError reports an event that is missing a field its variant
// requires. The delivery client never sees the event.
type ValidationError struct {
	Op      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
