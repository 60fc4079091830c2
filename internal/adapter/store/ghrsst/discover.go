package ghrsst

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// DefaultProductMarker selects DMI Level 4 products.
	DefaultProductMarker = "-DMI-L4"

	// FilenameDateLayout is the layout of the first "-" separated token of a product file name,
	// e.g. 20150313000000-DMI-L4_GHRSST-SSTfnd-DMI_OI-NSEABALTIC-v02.0-fv01.0.nc.
	FilenameDateLayout = "20060102150405"

	fileSuffix = ".nc"
)

// Catalog finds product files under a data directory by the date in their name.
type Catalog struct {
	dataDir string
	marker  string
}

// NewCatalog creates a catalog for dataDir. An empty marker selects DefaultProductMarker.
func NewCatalog(dataDir, marker string) *Catalog {
	if marker == "" {
		marker = DefaultProductMarker
	}
	return &Catalog{dataDir: dataDir, marker: marker}
}

// DataDir returns the root directory of the catalog.
func (c *Catalog) DataDir() string {
	return c.dataDir
}

// FileDate parses the date encoded in a product file name.
func FileDate(path string) (time.Time, error) {
	token, _, _ := strings.Cut(filepath.Base(path), "-")
	t, err := time.ParseInLocation(FilenameDateLayout, token, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("no date in file name %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Files walks the data directory and yields the absolute path of every product file
// dated in [from, to). The bounds are swapped if given in reverse order. Walking
// starts anew on every iteration and stops as soon as the consumer breaks.
func (c *Catalog) Files(from, to time.Time) iter.Seq2[string, error] {
	if to.Before(from) {
		from, to = to, from
	}

	return func(yield func(string, error) bool) {
		root, err := filepath.Abs(c.dataDir)
		if err != nil {
			yield("", err)
			return
		}
		if _, err := os.Stat(root); err != nil {
			yield("", fmt.Errorf("data directory %s: %w", root, err))
			return
		}

		stopped := false
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !c.matches(d.Name()) {
				return nil
			}
			date, err := FileDate(d.Name())
			if err != nil {
				// Not a product file.
				return nil
			}
			if date.Before(from) || !date.Before(to) {
				return nil
			}
			if !yield(path, nil) {
				stopped = true
				return fs.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", fmt.Errorf("failed to walk data directory: %w", err))
		}
	}
}

func (c *Catalog) matches(name string) bool {
	return strings.HasSuffix(name, fileSuffix) && strings.Contains(name, c.marker)
}

// AvailableDates returns the sorted, de-duplicated days that have at least one
// product file. Dates come from the file names, not the file contents.
func (c *Catalog) AvailableDates() ([]time.Time, error) {
	from := time.Date(1981, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Now().UTC().AddDate(0, 0, 1)

	var dates []time.Time
	for path, err := range c.Files(from, to) {
		if err != nil {
			return nil, err
		}
		date, err := FileDate(path)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date.Truncate(24*time.Hour))
	}

	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) }), nil
}

// FileForDate returns the first product file dated on the given day.
func (c *Catalog) FileForDate(day time.Time) (string, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	for path, err := range c.Files(from, from.AddDate(0, 0, 1)) {
		if err != nil {
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("no product file for %s: %w", from.Format(time.DateOnly), fs.ErrNotExist)
}
