// Package datakit is a storage-abstraction and format-dispatch
// persistence layer: one facade for saving and loading tabular datasets
// and documents against a local filesystem or Azure Blob Storage,
// with timestamped versioning and manifest-linked multi-artifact saves.
//
// The backend is chosen once at construction. There is no silent
// fallback from remote to local: a facade whose remote backend is
// unreachable fails to construct with storage.ErrBackendUnavailable,
// and the host application decides what to do about it (see doc.go for
// the remote-then-local composition pattern).
package datakit

import (
	"context"
	"fmt"
	"time"

	"github.com/datakit-io/datakit/config"
	"github.com/datakit-io/datakit/document"
	"github.com/datakit-io/datakit/format"
	"github.com/datakit-io/datakit/logger"
	"github.com/datakit-io/datakit/storage"
	"github.com/datakit-io/datakit/storage/azure"
	"github.com/datakit-io/datakit/storage/local"
	"github.com/datakit-io/datakit/tabular"
)

// FileStore is the persistence facade. Every operation is stateless
// given the backend fixed at construction; the zero value is not usable.
type FileStore struct {
	cfg      *config.Config
	backend  storage.Backend
	registry *format.Registry
	now      func() time.Time
}

// New builds a FileStore from configuration, constructing the backend
// it selects. projectRoot anchors the local backend's directory layout;
// empty means the current working directory. Remote connectivity is
// verified here: an unreachable storage account returns an error
// wrapping storage.ErrBackendUnavailable instead of a degraded store.
func New(ctx context.Context, cfg *config.Config, projectRoot string) (*FileStore, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backend storage.Backend
	switch cfg.Storage.Type {
	case config.BackendAzure:
		b, err := azure.New(ctx, azure.Config{
			ConnectionString: cfg.Storage.Azure.ConnectionString,
			AccountURL:       cfg.Storage.Azure.AccountURL,
			Containers:       roleMap(cfg.Storage.Azure.ContainerMapping),
			EnsureContainers: cfg.Storage.Azure.EnsureContainers,
			Retry:            cfg.Storage.Azure.Retry.Policy(),
		})
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		b, err := local.New(local.Config{
			ProjectRoot: projectRoot,
			DataDir:     cfg.DataDirectory,
			Directories: roleMap(cfg.Directories),
		})
		if err != nil {
			return nil, err
		}
		backend = b
	}

	logger.Debug("file store ready", "backend", cfg.Storage.Type)
	return NewWithBackend(cfg, backend), nil
}

// NewWithBackend builds a FileStore around an already constructed
// backend. Useful for tests and for hosts that manage backends
// themselves.
func NewWithBackend(cfg *config.Config, backend storage.Backend) *FileStore {
	if cfg == nil {
		cfg = config.Default()
	}
	return &FileStore{
		cfg:      cfg,
		backend:  backend,
		registry: format.NewRegistry(format.Options{CSVDelimiter: cfg.Delimiter()}),
		now:      time.Now,
	}
}

// Backend returns the backend the store was constructed with.
func (fs *FileStore) Backend() storage.Backend { return fs.backend }

// SaveOptions tunes one save call.
type SaveOptions struct {
	// SubPath nests the file under a sub-directory of the role
	// directory. Mutually exclusive with a name that contains
	// separators.
	SubPath string

	// RootLevel places the role directly under the project root
	// instead of the data directory.
	RootLevel bool

	// Timestamp overrides the configured timestamping default.
	Timestamp *bool

	// SheetName names the sheet for single-table xlsx saves.
	SheetName string
}

// LoadOptions tunes one load call.
type LoadOptions struct {
	SubPath   string
	RootLevel bool
}

// SaveTable encodes one table and stores it under role. name carries
// the extension ("report.csv"); the stored name gains a generation
// timestamp unless timestamping is off. The concrete location is
// returned.
func (fs *FileStore) SaveTable(ctx context.Context, t *tabular.Table, role storage.Role, name string, opts SaveOptions) (storage.Location, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return storage.Location{}, err
	}
	codec, err := fs.registry.Tabular(ext)
	if err != nil {
		return storage.Location{}, err
	}
	data, err := codec.EncodeTable(t, format.EncodeOptions{SheetName: opts.SheetName})
	if err != nil {
		return storage.Location{}, err
	}
	return fs.store(ctx, role, name, data, opts, fs.now())
}

// SaveWorkbook encodes a set of named tables as one multi-sheet
// workbook. name must carry a workbook-capable extension (xlsx).
func (fs *FileStore) SaveWorkbook(ctx context.Context, set tabular.TableSet, role storage.Role, name string, opts SaveOptions) (storage.Location, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return storage.Location{}, err
	}
	codec, ok := fs.registry.Workbook(ext)
	if !ok {
		return storage.Location{}, fmt.Errorf("%w: %q cannot hold multiple sheets; use SaveMany", format.ErrUnsupportedFormat, ext)
	}
	data, err := codec.EncodeWorkbook(set)
	if err != nil {
		return storage.Location{}, err
	}
	return fs.store(ctx, role, name, data, opts, fs.now())
}

// SaveMany stores one file per named table plus a JSON manifest linking
// artifact names to the exact stored paths. baseName carries the
// per-artifact extension ("batch.csv" stores "batch_<artifact>_<ts>.csv"
// files and a "batch_manifest_<ts>.json"). The manifest and its
// location are returned; loads go through LoadMany with the manifest
// name.
func (fs *FileStore) SaveMany(ctx context.Context, set tabular.TableSet, role storage.Role, baseName string, opts SaveOptions) (*Manifest, storage.Location, error) {
	if err := set.Validate(); err != nil {
		return nil, storage.Location{}, fmt.Errorf("%w: %v", format.ErrInvalidPayload, err)
	}
	ext, err := format.ExtensionOf(baseName)
	if err != nil {
		return nil, storage.Location{}, err
	}
	codec, err := fs.registry.Tabular(ext)
	if err != nil {
		return nil, storage.Location{}, err
	}

	generatedAt := fs.now()
	stem, _ := splitName(baseName)
	manifest := newManifest(generatedAt)

	for _, sh := range set {
		data, err := codec.EncodeTable(sh.Table, format.EncodeOptions{SheetName: sh.Name})
		if err != nil {
			return nil, storage.Location{}, fmt.Errorf("artifact %q: %w", sh.Name, err)
		}
		name := fmt.Sprintf("%s_%s.%s", stem, sh.Name, ext)
		loc, err := fs.store(ctx, role, name, data, opts, generatedAt)
		if err != nil {
			return nil, storage.Location{}, fmt.Errorf("artifact %q: %w", sh.Name, err)
		}
		manifest.Artifacts = append(manifest.Artifacts, ManifestEntry{
			ArtifactName: sh.Name,
			Role:         string(loc.Role),
			RootLevel:    loc.RootLevel,
			Path:         loc.Path,
			Extension:    string(ext),
			GeneratedAt:  generatedAt,
		})
	}

	data, err := manifest.encode()
	if err != nil {
		return nil, storage.Location{}, err
	}
	manifestLoc, err := fs.store(ctx, role, stem+"_manifest.json", data, opts, generatedAt)
	if err != nil {
		return nil, storage.Location{}, fmt.Errorf("manifest: %w", err)
	}
	logger.Info("saved artifact set",
		"manifest", manifestLoc.String(), "artifacts", len(manifest.Artifacts))
	return manifest, manifestLoc, nil
}

// LoadTable loads one table. The extension is inferred from name, and
// the newest timestamped variant is used when no exact match exists.
func (fs *FileStore) LoadTable(ctx context.Context, role storage.Role, name string, opts LoadOptions) (*tabular.Table, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return nil, err
	}
	codec, err := fs.registry.Tabular(ext)
	if err != nil {
		return nil, err
	}
	data, _, err := fs.fetch(ctx, role, name, opts)
	if err != nil {
		return nil, err
	}
	return codec.DecodeTable(data)
}

// LoadWorkbook loads every sheet of a workbook file as a TableSet.
func (fs *FileStore) LoadWorkbook(ctx context.Context, role storage.Role, name string, opts LoadOptions) (tabular.TableSet, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return nil, err
	}
	codec, ok := fs.registry.Workbook(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a workbook format", format.ErrUnsupportedFormat, ext)
	}
	data, _, err := fs.fetch(ctx, role, name, opts)
	if err != nil {
		return nil, err
	}
	return codec.DecodeWorkbook(data)
}

// LoadMany reads a manifest and loads every artifact it references.
// Manifest entries are exact paths and are read verbatim; a missing or
// corrupt artifact yields an error marker under its key while the rest
// of the set loads normally. The result has exactly one entry per
// manifest artifact.
func (fs *FileStore) LoadMany(ctx context.Context, role storage.Role, manifestName string, opts LoadOptions) (map[string]TableResult, error) {
	data, _, err := fs.fetch(ctx, role, manifestName, opts)
	if err != nil {
		return nil, err
	}
	manifest, err := decodeManifest(data)
	if err != nil {
		return nil, err
	}

	results := make(map[string]TableResult, len(manifest.Artifacts))
	for _, entry := range manifest.Artifacts {
		results[entry.ArtifactName] = fs.loadEntry(ctx, entry)
	}
	return results, nil
}

func (fs *FileStore) loadEntry(ctx context.Context, entry ManifestEntry) TableResult {
	codec, err := fs.registry.Tabular(format.Extension(entry.Extension))
	if err != nil {
		return TableResult{Err: err}
	}
	data, err := fs.backend.ReadBytes(ctx, entry.Location())
	if err != nil {
		logger.Warn("manifest artifact unavailable",
			"artifact", entry.ArtifactName, "path", entry.Path, "error", err)
		return TableResult{Err: err}
	}
	t, err := codec.DecodeTable(data)
	if err != nil {
		return TableResult{Err: err}
	}
	return TableResult{Table: t}
}

// LoadTables loads several same-role files in one call, keyed by file
// stem. Unlike LoadMany it fails on the first error; use it for files
// the caller knows exist.
func (fs *FileStore) LoadTables(ctx context.Context, role storage.Role, names []string, opts LoadOptions) (map[string]*tabular.Table, error) {
	out := make(map[string]*tabular.Table, len(names))
	for _, name := range names {
		t, err := fs.LoadTable(ctx, role, name, opts)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", name, err)
		}
		stem, _ := splitName(name)
		out[stem] = t
	}
	return out, nil
}

// SaveDocument encodes one document and stores it under role.
func (fs *FileStore) SaveDocument(ctx context.Context, d *document.Document, role storage.Role, name string, opts SaveOptions) (storage.Location, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return storage.Location{}, err
	}
	codec, err := fs.registry.Document(ext)
	if err != nil {
		return storage.Location{}, err
	}
	data, err := codec.EncodeDocument(d)
	if err != nil {
		return storage.Location{}, err
	}
	return fs.store(ctx, role, name, data, opts, fs.now())
}

// LoadDocument loads one document, resolving timestamped variants like
// every other load.
func (fs *FileStore) LoadDocument(ctx context.Context, role storage.Role, name string, opts LoadOptions) (*document.Document, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return nil, err
	}
	codec, err := fs.registry.Document(ext)
	if err != nil {
		return nil, err
	}
	data, _, err := fs.fetch(ctx, role, name, opts)
	if err != nil {
		return nil, err
	}
	return codec.DecodeDocument(data)
}

// LoadValue loads a JSON or YAML file as a generic value, through the
// same path and timestamp machinery as the typed loads.
func (fs *FileStore) LoadValue(ctx context.Context, role storage.Role, name string, opts LoadOptions) (any, error) {
	ext, err := format.ExtensionOf(name)
	if err != nil {
		return nil, err
	}
	if ext != format.ExtJSON && ext != format.ExtYAML {
		return nil, fmt.Errorf("%w: raw value loads support json and yaml, not %q", format.ErrUnsupportedFormat, ext)
	}
	data, _, err := fs.fetch(ctx, role, name, opts)
	if err != nil {
		return nil, err
	}
	return decodeValue(data, ext)
}

// store resolves the location, applies timestamping, and writes.
func (fs *FileStore) store(ctx context.Context, role storage.Role, name string, data []byte, opts SaveOptions, generatedAt time.Time) (storage.Location, error) {
	if fs.timestamping(opts.Timestamp) {
		name = timestampedName(name, generatedAt)
	}
	loc, err := resolveLocation(role, opts.SubPath, name, opts.RootLevel)
	if err != nil {
		return storage.Location{}, err
	}
	if err := fs.backend.WriteBytes(ctx, loc, data); err != nil {
		return storage.Location{}, err
	}
	logger.Debug("saved artifact", "location", loc.String(), "bytes", len(data))
	return loc, nil
}

// fetch resolves the location (including the newest timestamped
// variant) and reads it.
func (fs *FileStore) fetch(ctx context.Context, role storage.Role, name string, opts LoadOptions) ([]byte, storage.Location, error) {
	loc, err := resolveLocation(role, opts.SubPath, name, opts.RootLevel)
	if err != nil {
		return nil, storage.Location{}, err
	}
	loc, err = resolveLatest(ctx, fs.backend, loc)
	if err != nil {
		return nil, storage.Location{}, err
	}
	data, err := fs.backend.ReadBytes(ctx, loc)
	if err != nil {
		return nil, storage.Location{}, err
	}
	return data, loc, nil
}

func (fs *FileStore) timestamping(override *bool) bool {
	if override != nil {
		return *override
	}
	return fs.cfg.Timestamping()
}

func roleMap(m map[string]string) map[storage.Role]string {
	if m == nil {
		return nil
	}
	out := make(map[storage.Role]string, len(m))
	for k, v := range m {
		out[storage.Role(k)] = v
	}
	return out
}
