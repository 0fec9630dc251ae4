package datakit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/datakit-io/datakit/format"
	"github.com/datakit-io/datakit/storage"
	"github.com/datakit-io/datakit/tabular"
	"github.com/google/uuid"
)

// ManifestEntry links one artifact name to its concrete stored file.
// Path is exact: loads through a manifest never go through timestamp
// resolution, so an entry survives later saves of the same base name.
type ManifestEntry struct {
	ArtifactName string    `json:"artifact_name"`
	Role         string    `json:"role"`
	RootLevel    bool      `json:"root_level,omitempty"`
	Path         string    `json:"path"`
	Extension    string    `json:"extension"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Location returns the backend location the entry points at.
func (e ManifestEntry) Location() storage.Location {
	return storage.Location{Role: storage.Role(e.Role), RootLevel: e.RootLevel, Path: e.Path}
}

// Manifest is the side-car record written by multi-artifact saves.
// Artifact order is save order.
type Manifest struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Artifacts   []ManifestEntry `json:"artifacts"`
}

func newManifest(generatedAt time.Time) *Manifest {
	return &Manifest{ID: uuid.NewString(), GeneratedAt: generatedAt}
}

func (m *Manifest) encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", format.ErrInvalidPayload, err)
	}
	return &m, nil
}

// TableResult is the per-artifact outcome of a manifest-driven load.
// Exactly one of Table and Err is set.
type TableResult struct {
	Table *tabular.Table
	Err   error
}
