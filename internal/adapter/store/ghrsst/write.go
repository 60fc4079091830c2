package ghrsst

import (
	"fmt"
	"math"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/sst-validation/internal/domain"
)

// Packing of the written variables, following DMI L4 products.
const (
	sstScale      = 0.01
	sstOffset     = 273.15
	sstFill       = int16(math.MinInt16)
	iceScale      = 0.01
	iceFill       = int8(math.MinInt8)
	errorScale    = 0.01
	errorFill     = int16(math.MinInt16)
	maskSeaValue  = int8(1)
	maskLandValue = int8(2)
)

// Snapshot is one day of gridded fields to be written as an L4 file.
// NaN marks a missing cell.
type Snapshot struct {
	Time       time.Time
	Lat        []float64
	Lon        []float64
	Resolution float64 // Degrees, both axes.

	SSTKelvin     [][]float64
	AnalysisError [][]float64 // Optional.
	SeaIce        [][]float64 // Fraction in [0, 1].
	Land          [][]bool
}

// FileName returns the DMI style file name of the snapshot.
func (s *Snapshot) FileName() string {
	return s.Time.UTC().Format(FilenameDateLayout) + "-DMI-L4_GHRSST-SSTfnd-DMI_OI-NSEABALTIC-v02.0-fv01.0.nc"
}

// WriteFile writes the snapshot as a single-time-step (time, lat, lon) NetCDF file.
func WriteFile(path string, s *Snapshot) error {
	nLat, nLon := len(s.Lat), len(s.Lon)
	if nLat == 0 || nLon == 0 {
		return fmt.Errorf("empty grid")
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = ds.Close() }()

	timeDim, err := ds.AddDim(domain.TimeVarName, 1)
	if err != nil {
		return fmt.Errorf("failed to add time dimension: %w", err)
	}
	latDim, err := ds.AddDim(domain.LatVarName, uint64(nLat))
	if err != nil {
		return fmt.Errorf("failed to add lat dimension: %w", err)
	}
	lonDim, err := ds.AddDim(domain.LonVarName, uint64(nLon))
	if err != nil {
		return fmt.Errorf("failed to add lon dimension: %w", err)
	}
	grid := []netcdf.Dim{timeDim, latDim, lonDim}

	timeVar, err := ds.AddVar(domain.TimeVarName, netcdf.INT, []netcdf.Dim{timeDim})
	if err != nil {
		return fmt.Errorf("failed to add time variable: %w", err)
	}
	latVar, err := ds.AddVar(domain.LatVarName, netcdf.FLOAT, []netcdf.Dim{latDim})
	if err != nil {
		return fmt.Errorf("failed to add lat variable: %w", err)
	}
	lonVar, err := ds.AddVar(domain.LonVarName, netcdf.FLOAT, []netcdf.Dim{lonDim})
	if err != nil {
		return fmt.Errorf("failed to add lon variable: %w", err)
	}
	sstVar, err := ds.AddVar(domain.DefaultPrimaryVar, netcdf.SHORT, grid)
	if err != nil {
		return fmt.Errorf("failed to add sst variable: %w", err)
	}
	iceVar, err := ds.AddVar(domain.DefaultSeaIceVar, netcdf.BYTE, grid)
	if err != nil {
		return fmt.Errorf("failed to add sea ice variable: %w", err)
	}
	maskVar, err := ds.AddVar(domain.DefaultMaskVar, netcdf.BYTE, grid)
	if err != nil {
		return fmt.Errorf("failed to add mask variable: %w", err)
	}

	attrs := []attrWriter{
		{timeVar.Attr("units"), text("seconds since 1981-01-01 00:00:00")},
		{latVar.Attr("units"), text("degrees_north")},
		{lonVar.Attr("units"), text("degrees_east")},
		{sstVar.Attr("units"), text("kelvin")},
		{sstVar.Attr("scale_factor"), double(sstScale)},
		{sstVar.Attr("add_offset"), double(sstOffset)},
		{sstVar.Attr("_FillValue"), func(a netcdf.Attr) error { return a.WriteInt16s([]int16{sstFill}) }},
		{iceVar.Attr("units"), text("1")},
		{iceVar.Attr("scale_factor"), double(iceScale)},
		{iceVar.Attr("_FillValue"), func(a netcdf.Attr) error { return a.WriteInt8s([]int8{iceFill}) }},
		{maskVar.Attr("flag_meanings"), text("water land")},
		{ds.Attr("geospatial_lat_resolution"), double(s.Resolution)},
		{ds.Attr("geospatial_lon_resolution"), double(s.Resolution)},
		{ds.Attr("title"), text("Synthetic DMI OI L4 analysis")},
	}

	var errVar netcdf.Var
	if s.AnalysisError != nil {
		if errVar, err = ds.AddVar("analysis_error", netcdf.SHORT, grid); err != nil {
			return fmt.Errorf("failed to add analysis error variable: %w", err)
		}
		attrs = append(attrs,
			attrWriter{errVar.Attr("scale_factor"), double(errorScale)},
			attrWriter{errVar.Attr("_FillValue"), func(a netcdf.Attr) error { return a.WriteInt16s([]int16{errorFill}) }},
		)
	}

	for _, a := range attrs {
		if err := a.put(a.attr); err != nil {
			return fmt.Errorf("failed to write attribute: %w", err)
		}
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	seconds := int32(s.Time.Sub(domain.TimeEpoch) / time.Second)
	if err := timeVar.WriteInt32s([]int32{seconds}); err != nil {
		return fmt.Errorf("failed to write time: %w", err)
	}
	if err := latVar.WriteFloat32s(toFloat32s(s.Lat)); err != nil {
		return fmt.Errorf("failed to write lat: %w", err)
	}
	if err := lonVar.WriteFloat32s(toFloat32s(s.Lon)); err != nil {
		return fmt.Errorf("failed to write lon: %w", err)
	}

	sst := make([]int16, 0, nLat*nLon)
	ice := make([]int8, 0, nLat*nLon)
	mask := make([]int8, 0, nLat*nLon)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			land := s.Land != nil && s.Land[i][j]
			if land {
				sst = append(sst, sstFill)
				ice = append(ice, iceFill)
				mask = append(mask, maskLandValue)
				continue
			}
			sst = append(sst, packInt16(s.SSTKelvin[i][j], sstScale, sstOffset, sstFill))
			ice = append(ice, packInt8(cell(s.SeaIce, i, j), iceScale, iceFill))
			mask = append(mask, maskSeaValue)
		}
	}
	if err := sstVar.WriteInt16s(sst); err != nil {
		return fmt.Errorf("failed to write sst: %w", err)
	}
	if err := iceVar.WriteInt8s(ice); err != nil {
		return fmt.Errorf("failed to write sea ice: %w", err)
	}
	if err := maskVar.WriteInt8s(mask); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}

	if s.AnalysisError != nil {
		packed := make([]int16, 0, nLat*nLon)
		for i := 0; i < nLat; i++ {
			for j := 0; j < nLon; j++ {
				packed = append(packed, packInt16(s.AnalysisError[i][j], errorScale, 0, errorFill))
			}
		}
		if err := errVar.WriteInt16s(packed); err != nil {
			return fmt.Errorf("failed to write analysis error: %w", err)
		}
	}

	return nil
}

type attrWriter struct {
	attr netcdf.Attr
	put  func(a netcdf.Attr) error
}

func text(s string) func(a netcdf.Attr) error {
	return func(a netcdf.Attr) error { return a.WriteBytes([]byte(s)) }
}

func double(v float64) func(a netcdf.Attr) error {
	return func(a netcdf.Attr) error { return a.WriteFloat64s([]float64{v}) }
}

func cell(values [][]float64, i, j int) float64 {
	if values == nil {
		return 0
	}
	return values[i][j]
}

func packInt16(v, scale, offset float64, fill int16) int16 {
	if math.IsNaN(v) {
		return fill
	}
	return int16(math.Round((v - offset) / scale))
}

func packInt8(v, scale float64, fill int8) int8 {
	if math.IsNaN(v) {
		return fill
	}
	return int8(math.Round(v / scale))
}

func toFloat32s(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
