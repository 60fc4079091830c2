// Package ghrsst reads GHRSST Level 4 NetCDF products into domain datasets.
package ghrsst

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/sst-validation/internal/domain"
)

// FileConfig defines the expected NetCDF file structure.
type FileConfig struct {
	// Variable names in NetCDF files.
	LatVarName     string // E.g., "lat".
	LonVarName     string // E.g., "lon".
	TimeVarName    string // Seconds since 1981-01-01.
	PrimaryVarName string // Kelvin temperature, e.g. "analysed_sst".
	MaskVarName    string // Land/sea mask, bit 0 = sea.
	SeaIceVarName  string // Sea ice fraction.

	// ExtraVarNames are optional gridded variables declared when present.
	ExtraVarNames []string

	// Global attributes holding the cell size in degrees.
	LatResolutionAttr string
	LonResolutionAttr string
}

// DefaultConfig returns the DMI L4 file configuration.
func DefaultConfig() FileConfig {
	return FileConfig{
		LatVarName:        domain.LatVarName,
		LonVarName:        domain.LonVarName,
		TimeVarName:       domain.TimeVarName,
		PrimaryVarName:    domain.DefaultPrimaryVar,
		MaskVarName:       domain.DefaultMaskVar,
		SeaIceVarName:     domain.DefaultSeaIceVar,
		ExtraVarNames:     []string{"analysis_error"},
		LatResolutionAttr: "geospatial_lat_resolution",
		LonResolutionAttr: "geospatial_lon_resolution",
	}
}

// Loader opens GHRSST L4 files.
type Loader struct {
	config FileConfig
}

// NewLoader creates a loader for the given file layout.
func NewLoader(config FileConfig) *Loader {
	return &Loader{config: config}
}

// Load reads one file into an in-memory dataset. Every failure is reported
// as a *domain.DatasetLoadError.
func (l *Loader) Load(path string) (*domain.Dataset, error) {
	ds, err := l.load(path)
	if err != nil {
		return nil, &domain.DatasetLoadError{Path: path, Err: err}
	}
	return ds, nil
}

func (l *Loader) load(path string) (*domain.Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	nc, err := netcdf.OpenFile(abs, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	cfg := l.config

	lat, err := readCoordVar(nc, cfg.LatVarName)
	if err != nil {
		return nil, err
	}
	lon, err := readCoordVar(nc, cfg.LonVarName)
	if err != nil {
		return nil, err
	}

	timeVar, err := nc.Var(cfg.TimeVarName)
	if err != nil {
		return nil, fmt.Errorf("time variable %q not found: %w", cfg.TimeVarName, err)
	}
	times, err := readFlat(timeVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.TimeVarName, err)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("time variable %q is empty", cfg.TimeVarName)
	}

	latRes, err := readResolution(nc, cfg.LatResolutionAttr)
	if err != nil {
		return nil, err
	}
	lonRes, err := readResolution(nc, cfg.LonResolutionAttr)
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		Path:          abs,
		Lat:           lat,
		Lon:           lon,
		LatResolution: latRes,
		LonResolution: lonRes,
		TimeSeconds:   times[0],
		Fields:        make(map[string]*domain.Field),
		Variables:     []string{cfg.LatVarName, cfg.LonVarName, cfg.TimeVarName},
		PrimaryVar:    cfg.PrimaryVarName,
		MaskVar:       cfg.MaskVarName,
		SeaIceVar:     cfg.SeaIceVarName,
	}

	required := []string{cfg.PrimaryVarName, cfg.MaskVarName, cfg.SeaIceVarName}
	for _, name := range required {
		v, err := nc.Var(name)
		if err != nil {
			return nil, fmt.Errorf("required variable %q not found: %w", name, err)
		}
		f, err := readField(v, name, len(lat), len(lon))
		if err != nil {
			return nil, err
		}
		ds.Fields[name] = f
		ds.Variables = append(ds.Variables, name)
	}

	for _, name := range cfg.ExtraVarNames {
		v, err := nc.Var(name)
		if err != nil {
			// Optional.
			continue
		}
		f, err := readField(v, name, len(lat), len(lon))
		if err != nil {
			return nil, err
		}
		ds.Fields[name] = f
		ds.Variables = append(ds.Variables, name)
	}

	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	return ds, nil
}

// readCoordVar reads a 1-D coordinate variable.
func readCoordVar(nc netcdf.Dataset, name string) ([]float64, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("coordinate variable %q not found: %w", name, err)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable %s, got %dD", name, len(dims))
	}
	values, err := readFlat(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return values, nil
}

// readField reads a (lat, lon) or single-step (time, lat, lon) variable, applying
// scale_factor and add_offset. Fill values and NaN become missing cells.
func readField(v netcdf.Var, name string, nLat, nLon int) (*domain.Field, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}

	shape := make([]uint64, len(dims))
	for i, d := range dims {
		if shape[i], err = d.Len(); err != nil {
			return nil, fmt.Errorf("failed to get dim%d length of %s: %w", i, name, err)
		}
	}

	switch {
	case len(shape) == 2:
	case len(shape) == 3 && shape[0] == 1:
		shape = shape[1:]
	default:
		return nil, fmt.Errorf("variable %s has shape %v, expected [%d %d] or [1 %d %d]", name, shape, nLat, nLon, nLat, nLon)
	}
	if shape[0] != uint64(nLat) || shape[1] != uint64(nLon) {
		return nil, fmt.Errorf("dimension mismatch for %s: data is %v, expected [%d %d]", name, shape, nLat, nLon)
	}

	raw, err := readFlat(v)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	fill, hasFill := scalarAttr(v, "_FillValue")
	if !hasFill {
		fill, hasFill = scalarAttr(v, "missing_value")
	}
	scale, ok := scalarAttr(v, "scale_factor")
	if !ok || scale == 0 {
		scale = 1
	}
	offset, _ := scalarAttr(v, "add_offset")

	f := &domain.Field{
		Name:   name,
		Units:  textAttr(v, "units"),
		Values: make([][]float64, nLat),
	}
	for i := 0; i < nLat; i++ {
		row := raw[i*nLon : (i+1)*nLon]
		for j, packed := range row {
			if (hasFill && packed == fill) || math.IsNaN(packed) {
				markMissing(f, i, j, nLat, nLon)
				row[j] = math.NaN()
				continue
			}
			row[j] = packed*scale + offset
		}
		f.Values[i] = row
	}
	return f, nil
}

func markMissing(f *domain.Field, i, j, nLat, nLon int) {
	if f.Missing == nil {
		f.Missing = make([][]bool, nLat)
		for r := range f.Missing {
			f.Missing[r] = make([]bool, nLon)
		}
	}
	f.Missing[i][j] = true
}

// readFlat reads a whole variable of any numeric type as float64.
func readFlat(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	n := uint64(1)
	for _, d := range dims {
		length, err := d.Len()
		if err != nil {
			return nil, err
		}
		n *= length
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.BYTE:
		tmp := make([]int8, n)
		if err := v.ReadInt8s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.UBYTE:
		tmp := make([]uint8, n)
		if err := v.ReadUint8s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

// scalarAttr returns the first value of a numeric attribute as float64.
func scalarAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}

	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi32 := make([]int32, 1)
	if err := a.ReadInt32s(bufi32); err == nil {
		return float64(bufi32[0]), true
	}
	bufi16 := make([]int16, 1)
	if err := a.ReadInt16s(bufi16); err == nil {
		return float64(bufi16[0]), true
	}
	bufi8 := make([]int8, 1)
	if err := a.ReadInt8s(bufi8); err == nil {
		return float64(bufi8[0]), true
	}
	bufu8 := make([]uint8, 1)
	if err := a.ReadUint8s(bufu8); err == nil {
		return float64(bufu8[0]), true
	}
	return 0, false
}

// textAttr returns a character attribute, or "" if absent.
func textAttr(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

// readResolution reads a global resolution attribute in degrees. Some producers
// store it as text such as "0.05 degree".
func readResolution(nc netcdf.Dataset, name string) (float64, error) {
	a := nc.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, fmt.Errorf("global attribute %q not found", name)
	}

	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], nil
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), nil
	}

	n, _ := a.Len()
	text := make([]byte, n)
	if err := a.ReadBytes(text); err != nil {
		return 0, fmt.Errorf("global attribute %q has unsupported type", name)
	}
	fields := strings.Fields(strings.TrimRight(string(text), "\x00"))
	if len(fields) == 0 {
		return 0, fmt.Errorf("global attribute %q is empty", name)
	}
	res, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("global attribute %q: %w", name, err)
	}
	return res, nil
}
