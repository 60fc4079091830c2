package domain

import (
	"fmt"
	"math"
	"time"
)

// Variable names used by GHRSST L4 products.
const (
	LatVarName         = "lat"
	LonVarName         = "lon"
	TimeVarName        = "time"
	DefaultPrimaryVar  = "analysed_sst"
	DefaultMaskVar     = "mask"
	DefaultSeaIceVar   = "sea_ice_fraction"
	SmoothedSuffix     = "_smoothed"
	IceDistanceVarName = "distance_to_ice"
)

// TimeEpoch is the reference of the time variable (seconds since 1981-01-01).
var TimeEpoch = time.Date(1981, 1, 1, 0, 0, 0, 0, time.UTC)

// Field is a masked 2-D array indexed [lat][lon].
type Field struct {
	Name    string
	Units   string
	Values  [][]float64
	Missing [][]bool // Nil when no cell is flagged missing.
}

// IsMissing reports whether the cell is flagged missing by the underlying store.
func (f *Field) IsMissing(i, j int) bool {
	return f.Missing != nil && f.Missing[i][j]
}

// At returns the cell value and false if the cell is missing.
func (f *Field) At(i, j int) (float64, bool) {
	if f.IsMissing(i, j) {
		return 0, false
	}
	return f.Values[i][j], true
}

// Dataset is the read-only snapshot of one gridded input file.
type Dataset struct {
	Path string

	Lat           []float64 // Ascending cell-center latitudes.
	Lon           []float64 // Ascending cell-center longitudes.
	LatResolution float64   // Cell height in degrees.
	LonResolution float64   // Cell width in degrees.
	TimeSeconds   float64   // Seconds since TimeEpoch.

	// Fields holds every 2-D variable by name.
	Fields map[string]*Field

	// Variables lists the names declared by the file, in load order,
	// including the coordinate and time variables.
	Variables []string

	PrimaryVar string // Kelvin temperature field, usually "analysed_sst".
	MaskVar    string // Land/sea mask, bit 0 set means sea.
	SeaIceVar  string // Sea ice fraction in [0, 1].
}

// Time decodes the time variable.
func (d *Dataset) Time() time.Time {
	return TimeEpoch.Add(time.Duration(int64(d.TimeSeconds)) * time.Second)
}

// SmoothedVarName is the synthetic name of the radius-averaged primary temperature.
func (d *Dataset) SmoothedVarName() string {
	return d.PrimaryVar + SmoothedSuffix
}

// VariableNames returns every name a query may ask for: the declared variables
// followed by the two derived ones.
func (d *Dataset) VariableNames() []string {
	names := make([]string, 0, len(d.Variables)+2)
	names = append(names, d.Variables...)
	return append(names, d.SmoothedVarName(), IceDistanceVarName)
}

// Index returns the grid index of the dataset.
func (d *Dataset) Index() *GridIndex {
	return NewGridIndex(d.Lat, d.Lon, d.LatResolution, d.LonResolution)
}

// isSea reports whether bit 0 of the land/sea mask is set for the cell.
func (d *Dataset) isSea(i, j int) bool {
	v, ok := d.Fields[d.MaskVar].At(i, j)
	return ok && int64(v)&1 == 1
}

// Validate checks that the dataset is structurally usable.
func (d *Dataset) Validate() error {
	if len(d.Lat) == 0 {
		return fmt.Errorf("dataset has no latitudes")
	}
	if len(d.Lon) == 0 {
		return fmt.Errorf("dataset has no longitudes")
	}
	for i := 1; i < len(d.Lat); i++ {
		if d.Lat[i] <= d.Lat[i-1] {
			return fmt.Errorf("latitudes must be strictly increasing")
		}
	}
	for i := 1; i < len(d.Lon); i++ {
		if d.Lon[i] <= d.Lon[i-1] {
			return fmt.Errorf("longitudes must be strictly increasing")
		}
	}
	if !(d.LatResolution > 0) || math.IsInf(d.LatResolution, 0) {
		return fmt.Errorf("invalid latitude resolution %g", d.LatResolution)
	}
	if !(d.LonResolution > 0) || math.IsInf(d.LonResolution, 0) {
		return fmt.Errorf("invalid longitude resolution %g", d.LonResolution)
	}

	for _, name := range []string{d.PrimaryVar, d.MaskVar, d.SeaIceVar} {
		if _, ok := d.Fields[name]; !ok {
			return fmt.Errorf("required variable %q not found", name)
		}
	}

	for name, f := range d.Fields {
		if len(f.Values) != len(d.Lat) {
			return fmt.Errorf("variable %s has %d rows, expected %d", name, len(f.Values), len(d.Lat))
		}
		for i, row := range f.Values {
			if len(row) != len(d.Lon) {
				return fmt.Errorf("variable %s row %d has %d values, expected %d", name, i, len(row), len(d.Lon))
			}
		}
		if f.Missing != nil && len(f.Missing) != len(d.Lat) {
			return fmt.Errorf("variable %s missing-mask has %d rows, expected %d", name, len(f.Missing), len(d.Lat))
		}
	}

	return nil
}
