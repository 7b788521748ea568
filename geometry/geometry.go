// Package geometry turns a named image-size preset, or an explicit inode
// and data-block count, into a validated ds3fs layout. It's the
// configuration layer consumed by cmd/mkfs: the equivalent of the teacher's
// disks package, which loads named physical-disk geometries from an
// embedded CSV with gocsv.
package geometry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	multierror "github.com/hashicorp/go-multierror"
)

// Layout is the inode and data-block counts needed to format a ds3fs image.
// Everything else (region addresses and lengths) is derived from these two
// numbers; see ufs.Format.
type Layout struct {
	NumInodes int32
	NumData   int32
}

// Preset is one named, pre-validated image size, loaded from presets.csv.
type Preset struct {
	Name      string `csv:"name"`
	NumInodes int32  `csv:"num_inodes"`
	NumData   int32  `csv:"num_data"`
}

//go:embed presets.csv
var presetsRawCSV string

var presets map[string]Preset

func init() {
	presets = make(map[string]Preset)
	reader := strings.NewReader(presetsRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Preset) error {
		if _, exists := presets[row.Name]; exists {
			return fmt.Errorf("duplicate preset name %q", row.Name)
		}
		presets[row.Name] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(fmt.Sprintf("geometry: failed to load built-in presets: %s", err))
	}
}

// Named looks up a built-in preset by name (e.g. "tiny", "small", "medium",
// "large").
func Named(name string) (Layout, error) {
	preset, ok := presets[name]
	if !ok {
		return Layout{}, fmt.Errorf("no built-in preset named %q", name)
	}
	return Layout{NumInodes: preset.NumInodes, NumData: preset.NumData}, nil
}

// PresetNames returns the names of every built-in preset, for CLI help text.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

// Validate checks a Layout's counts before anything is formatted: both must
// be positive and there must be at least two inodes. It collects every
// violation instead of stopping at the first. Region sizes are not checked
// here; ufs.Format derives them from the counts.
func Validate(layout Layout) error {
	var result *multierror.Error

	if layout.NumInodes <= 0 {
		result = multierror.Append(result, fmt.Errorf("num_inodes must be positive, got %d", layout.NumInodes))
	}
	if layout.NumData <= 0 {
		result = multierror.Append(result, fmt.Errorf("num_data must be positive, got %d", layout.NumData))
	}
	// Inode 0 is always the root directory; there must be room for it plus
	// at least one more inode to make a useful volume. The root directory
	// also consumes one data block at format time.
	if layout.NumInodes > 0 && layout.NumInodes < 2 {
		result = multierror.Append(result, fmt.Errorf("num_inodes must be at least 2 (root plus one), got %d", layout.NumInodes))
	}

	return result.ErrorOrNil()
}
