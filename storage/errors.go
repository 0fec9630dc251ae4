package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across backends. Callers match them with
// errors.Is to distinguish "missing" from "misconfigured" from
// "unreachable".
var (
	// ErrNotFound is returned when a path or artifact is absent after
	// resolution.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration is returned for invalid configuration: an
	// unmapped role, a malformed retry policy, or an ambiguous path
	// request.
	ErrConfiguration = errors.New("configuration error")

	// ErrBackendUnavailable is returned when a remote backend cannot be
	// reached at construction, or when retries of a transient failure
	// are exhausted.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

func wrapConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}
