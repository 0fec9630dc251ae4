package datakit

import (
	"fmt"
	"path"
	"strings"

	"github.com/datakit-io/datakit/storage"
)

// resolveLocation turns a logical request into a backend location.
//
// A file name may carry its own directory part only when no sub-path is
// given; supplying both is ambiguous and rejected rather than merged.
func resolveLocation(role storage.Role, subPath, fileName string, rootLevel bool) (storage.Location, error) {
	if fileName == "" {
		return storage.Location{}, fmt.Errorf("%w: empty file name", storage.ErrConfiguration)
	}
	if strings.Contains(fileName, "\\") {
		return storage.Location{}, fmt.Errorf("%w: file name %q contains a backslash; use forward slashes", storage.ErrConfiguration, fileName)
	}
	if strings.Contains(fileName, "/") && subPath != "" {
		return storage.Location{}, fmt.Errorf(
			"%w: file name %q contains a path separator and a sub-path %q was also given; supply one or the other",
			storage.ErrConfiguration, fileName, subPath)
	}

	p := fileName
	if subPath != "" {
		p = path.Join(strings.Trim(subPath, "/"), fileName)
	}
	p = path.Clean(p)
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return storage.Location{}, fmt.Errorf("%w: path %q escapes the role directory", storage.ErrConfiguration, p)
	}

	return storage.Location{Role: role, RootLevel: rootLevel, Path: p}, nil
}
