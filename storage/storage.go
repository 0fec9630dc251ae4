// Package storage defines the byte-level backend abstraction shared by the
// local filesystem and remote object-storage implementations.
//
// A Backend stores opaque byte blobs addressed by a Location: a directory
// role plus a role-relative path. How a role maps to a physical directory
// or container is an implementation detail of each backend, so callers see
// identical path semantics regardless of where the bytes live.
//
// Implementations should be safe for concurrent use by multiple goroutines.
// No coordination is provided for concurrent writes to the same Location;
// the last writer wins.
package storage

import (
	"context"
	"path"
	"time"
)

// Role is a logical storage location tag (e.g. "raw", "processed") that a
// backend maps to a physical directory or container. Roles are free-form;
// the conventional set mirrors a data-science project layout.
type Role string

// Conventional roles. Backends accept any Role; these are the ones the
// default configuration maps out of the box.
const (
	RoleRaw            Role = "raw"
	RoleInterim        Role = "interim"
	RoleProcessed      Role = "processed"
	RoleConfigurations Role = "configurations"
	RoleTemplates      Role = "templates"
)

// Location addresses one stored object within a backend.
//
// Path is a slash-separated path relative to the role's directory or
// container ("report.csv", "monthly/report.csv"). RootLevel marks roles
// that live directly under the project root rather than under the data
// directory; remote backends ignore it since containers have no nesting.
type Location struct {
	Role      Role
	RootLevel bool
	Path      string
}

// String returns the canonical "role/path" form used in logs and manifests.
func (l Location) String() string {
	if l.Path == "" {
		return string(l.Role)
	}
	return string(l.Role) + "/" + l.Path
}

// Base returns the final element of the location path.
func (l Location) Base() string {
	return path.Base(l.Path)
}

// Dir returns the location of the containing directory. The role and
// root-level flag are preserved.
func (l Location) Dir() Location {
	dir := path.Dir(l.Path)
	if dir == "." {
		dir = ""
	}
	return Location{Role: l.Role, RootLevel: l.RootLevel, Path: dir}
}

// Join returns a location for name inside l.
func (l Location) Join(name string) Location {
	return Location{Role: l.Role, RootLevel: l.RootLevel, Path: path.Join(l.Path, name)}
}

// Backend is the byte-level storage contract. Both the local filesystem
// and the Azure Blob implementations satisfy it with identical semantics.
type Backend interface {
	// WriteBytes stores data at loc, creating any missing parent
	// directories or containers. An existing object at the exact
	// location is overwritten silently; callers rely on timestamped
	// names to avoid unintended overwrites.
	WriteBytes(ctx context.Context, loc Location, data []byte) error

	// ReadBytes returns the content stored at loc. The returned error
	// wraps ErrNotFound when no object exists there.
	ReadBytes(ctx context.Context, loc Location) ([]byte, error)

	// Exists reports whether an object exists at loc. It never fails:
	// any underlying error is logged at debug level and reported as
	// false, so the result is safe to use directly in conditionals.
	Exists(ctx context.Context, loc Location) bool

	// List returns the names (final path elements) of objects directly
	// under dir, sorted lexicographically. When pattern is non-empty
	// only names matching it (path.Match syntax) are returned. A
	// missing directory yields an empty listing, not an error.
	List(ctx context.Context, dir Location, pattern string) ([]string, error)

	// Delete removes the object at loc. The returned error wraps
	// ErrNotFound when nothing exists there.
	Delete(ctx context.Context, loc Location) error
}

// RetryPolicy bounds retries of transient remote-backend failures.
// It is fixed at backend construction and treated as immutable.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first failure.
	MaxRetries int

	// BaseDelay is the initial backoff interval.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff interval.
	MaxDelay time.Duration
}

// DefaultRetryPolicy mirrors the stock remote-backend retry settings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Validate checks the policy for nonsensical values.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return wrapConfig("max_retries must not be negative")
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return wrapConfig("retry delays must not be negative")
	}
	if p.MaxDelay > 0 && p.BaseDelay > p.MaxDelay {
		return wrapConfig("base_delay exceeds max_delay")
	}
	return nil
}
