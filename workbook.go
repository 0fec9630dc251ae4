package datakit

import (
	"context"
	"fmt"

	"github.com/datakit-io/datakit/format"
	"github.com/datakit-io/datakit/storage"
	"github.com/datakit-io/datakit/tabular"
)

// ExplodeWorkbook converts a stored multi-sheet workbook into one CSV
// per sheet plus a manifest recording the sheet structure. The manifest
// preserves sheet order, so RebuildWorkbook can reassemble an
// equivalent workbook later.
func (fs *FileStore) ExplodeWorkbook(ctx context.Context, role storage.Role, workbookName string, opts SaveOptions) (*Manifest, storage.Location, error) {
	set, err := fs.LoadWorkbook(ctx, role, workbookName, LoadOptions{SubPath: opts.SubPath, RootLevel: opts.RootLevel})
	if err != nil {
		return nil, storage.Location{}, err
	}
	stem, _ := splitName(workbookName)
	return fs.SaveMany(ctx, set, role, stem+".csv", opts)
}

// RebuildWorkbook reassembles a workbook from a manifest written by
// SaveMany or ExplodeWorkbook. Artifact order becomes sheet order.
// Unlike LoadMany, a missing artifact fails the rebuild: a workbook
// with silently absent sheets is worse than no workbook.
func (fs *FileStore) RebuildWorkbook(ctx context.Context, role storage.Role, manifestName, workbookName string, opts SaveOptions) (storage.Location, error) {
	data, _, err := fs.fetch(ctx, role, manifestName, LoadOptions{SubPath: opts.SubPath, RootLevel: opts.RootLevel})
	if err != nil {
		return storage.Location{}, err
	}
	manifest, err := decodeManifest(data)
	if err != nil {
		return storage.Location{}, err
	}
	if len(manifest.Artifacts) == 0 {
		return storage.Location{}, fmt.Errorf("%w: manifest has no artifacts", format.ErrInvalidPayload)
	}

	set := make(tabular.TableSet, 0, len(manifest.Artifacts))
	for _, entry := range manifest.Artifacts {
		res := fs.loadEntry(ctx, entry)
		if res.Err != nil {
			return storage.Location{}, fmt.Errorf("artifact %q: %w", entry.ArtifactName, res.Err)
		}
		set = append(set, tabular.Sheet{Name: entry.ArtifactName, Table: res.Table})
	}
	return fs.SaveWorkbook(ctx, set, role, workbookName, opts)
}
