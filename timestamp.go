package datakit

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/datakit-io/datakit/storage"
)

// timestampLayout is the fixed-width generation-time suffix embedded in
// file names. Fixed width makes lexicographic order equal generation
// order, which the load side relies on.
const timestampLayout = "20060102_150405"

// splitName separates a file name into stem and extension (without dot).
func splitName(name string) (stem, ext string) {
	ext = path.Ext(name)
	return strings.TrimSuffix(name, ext), strings.TrimPrefix(ext, ".")
}

// timestampedName embeds ts into name: "report.json" becomes
// "report_20260825_143005.json".
func timestampedName(name string, ts time.Time) string {
	stem, ext := splitName(name)
	if ext == "" {
		return stem + "_" + ts.Format(timestampLayout)
	}
	return stem + "_" + ts.Format(timestampLayout) + "." + ext
}

// resolveLatest maps a logical file name to the concrete stored name.
//
// An exact match wins. Otherwise the directory listing is scanned for
// timestamped variants "{stem}_*.{ext}" and the lexicographically
// greatest (most recent) is returned. No match is ErrNotFound.
func resolveLatest(ctx context.Context, b storage.Backend, loc storage.Location) (storage.Location, error) {
	if b.Exists(ctx, loc) {
		return loc, nil
	}

	stem, ext := splitName(loc.Base())
	pattern := stem + "_*"
	if ext != "" {
		pattern += "." + ext
	}

	dir := loc.Dir()
	names, err := b.List(ctx, dir, pattern)
	if err != nil {
		return storage.Location{}, fmt.Errorf("resolve %s: %w", loc, err)
	}
	if len(names) == 0 {
		return storage.Location{}, fmt.Errorf("%w: no artifact matching %s", storage.ErrNotFound, loc)
	}
	// List returns names sorted, so the last entry is the newest.
	return dir.Join(names[len(names)-1]), nil
}
