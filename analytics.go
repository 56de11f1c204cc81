package analytics

import "sync/atomic"

// ambient is the process-wide client behind Init and Default. It is
// published atomically: readers observe either nil or a fully constructed
// client, never a partial one.
var ambient atomic.Pointer[Client]

// Init constructs the ambient client used by Default. Calling it twice is
// an error: the second client is closed and ErrAlreadyInitialized returned,
// so a misconfigured double-init fails loudly instead of silently replacing
// the handle.
func Init(writeKey string, cfg Config) error {
	c, err := NewWithConfig(writeKey, cfg)
	if err != nil {
		return err
	}
	if !ambient.CompareAndSwap(nil, c) {
		_ = c.Close()
		return ErrAlreadyInitialized
	}
	return nil
}

// Default returns the ambient client. Before Init it returns nil, which is
// safe to call methods on: every operation reports ErrNotInitialized.
func Default() *Client {
	return ambient.Load()
}

// Shutdown closes the ambient client, draining buffered events, and clears
// the handle so a later Init can succeed. It is a no-op before Init.
func Shutdown() error {
	c := ambient.Swap(nil)
	if c == nil {
		return nil
	}
	return c.Close()
}
