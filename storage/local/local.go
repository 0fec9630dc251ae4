// Package local implements the storage backend on the local filesystem.
//
// Roles map to directories under the project's data directory (or the
// project root for root-level roles). Writes are atomic: content lands
// in a temp file first and is renamed into place, so readers never see
// a partially written artifact.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/datakit-io/datakit/logger"
	"github.com/datakit-io/datakit/metrics"
	"github.com/datakit-io/datakit/storage"
)

const backendName = "local"

// Config holds the filesystem layout.
type Config struct {
	// ProjectRoot is the base directory. Empty means the current
	// working directory.
	ProjectRoot string

	// DataDir is the directory under ProjectRoot holding role
	// directories. Empty means "data".
	DataDir string

	// Directories optionally renames role directories. A role without
	// an entry uses its own name as the directory.
	Directories map[storage.Role]string
}

// Backend is the local filesystem implementation of storage.Backend.
type Backend struct {
	cfg Config
}

var _ storage.Backend = (*Backend)(nil)

// New creates a local backend. The root and data directories are not
// created eagerly; writes create what they need.
func New(cfg Config) (*Backend, error) {
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	return &Backend{cfg: cfg}, nil
}

// WriteBytes stores data at loc, creating parent directories as needed.
func (b *Backend) WriteBytes(ctx context.Context, loc storage.Location, data []byte) (err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "write", time.Since(start), err) }()

	abs, err := b.abs(loc)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
		return fmt.Errorf("create directory for %s: %w", loc, err)
	}
	if err = writeFileAtomic(abs, data); err != nil {
		return fmt.Errorf("write %s: %w", loc, err)
	}
	metrics.RecordBytesWritten(backendName, len(data))
	return nil
}

// ReadBytes returns the content at loc.
func (b *Backend) ReadBytes(ctx context.Context, loc storage.Location) (data []byte, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "read", time.Since(start), err) }()

	abs, err := b.abs(loc)
	if err != nil {
		return nil, err
	}
	data, err = os.ReadFile(abs)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	metrics.RecordBytesRead(backendName, len(data))
	return data, nil
}

// Exists reports whether a regular file exists at loc.
func (b *Backend) Exists(ctx context.Context, loc storage.Location) bool {
	abs, err := b.abs(loc)
	if err != nil {
		logger.Debug("existence check failed", "location", loc.String(), "error", err)
		return false
	}
	info, err := os.Stat(abs)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("existence check failed", "location", loc.String(), "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}

// List returns file names directly under dir, sorted, optionally
// filtered by pattern.
func (b *Backend) List(ctx context.Context, dir storage.Location, pattern string) (names []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "list", time.Since(start), err) }()

	abs, err := b.abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if pattern != "" {
			ok, matchErr := filepath.Match(pattern, name)
			if matchErr != nil {
				return nil, fmt.Errorf("list %s: bad pattern %q: %w", dir, pattern, matchErr)
			}
			if !ok {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the file at loc.
func (b *Backend) Delete(ctx context.Context, loc storage.Location) (err error) {
	start := time.Now()
	defer func() { metrics.RecordOperation(backendName, "delete", time.Since(start), err) }()

	abs, err := b.abs(loc)
	if err != nil {
		return err
	}
	err = os.Remove(abs)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, loc)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", loc, err)
	}
	return nil
}

// abs resolves a location to an absolute filesystem path, rejecting
// escapes from the role directory.
func (b *Backend) abs(loc storage.Location) (string, error) {
	roleDir := string(loc.Role)
	if mapped, ok := b.cfg.Directories[loc.Role]; ok && mapped != "" {
		roleDir = mapped
	}

	base := filepath.Join(b.cfg.ProjectRoot, b.cfg.DataDir, roleDir)
	if loc.RootLevel {
		base = filepath.Join(b.cfg.ProjectRoot, roleDir)
	}
	if loc.Path == "" {
		return base, nil
	}

	rel := filepath.Clean(filepath.FromSlash(loc.Path))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path %q escapes role directory", storage.ErrConfiguration, loc.Path)
	}
	return filepath.Join(base, rel), nil
}

func writeFileAtomic(abs string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(abs), "."+filepath.Base(abs)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
