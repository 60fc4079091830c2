package domain

import (
	"fmt"
	"slices"
)

// KelvinOffset converts Kelvin to degrees Celsius.
const KelvinOffset = 273.15

// VariableKind is the extraction rule of a requested variable.
type VariableKind int

const (
	// KindLatitude is the grid latitude of the resolved cell.
	KindLatitude VariableKind = iota
	// KindLongitude is the grid longitude of the resolved cell.
	KindLongitude
	// KindTime is the decoded time of the snapshot.
	KindTime
	// KindCelsius is the primary temperature converted from Kelvin.
	KindCelsius
	// KindSmoothed is the radius-averaged primary temperature in Celsius.
	KindSmoothed
	// KindIceDistance is the distance to the nearest ice cell.
	KindIceDistance
	// KindPassthrough is the raw cell value of any other declared variable.
	KindPassthrough
)

func (k VariableKind) String() string {
	switch k {
	case KindLatitude:
		return "latitude"
	case KindLongitude:
		return "longitude"
	case KindTime:
		return "time"
	case KindCelsius:
		return "celsius"
	case KindSmoothed:
		return "smoothed"
	case KindIceDistance:
		return "ice_distance"
	case KindPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("VariableKind(%d)", int(k))
	}
}

// Resolver computes variable values for query points of one dataset.
type Resolver struct {
	ds    *Dataset
	index *GridIndex

	// SmoothingRadiusKm is the window radius of the smoothed variable.
	SmoothingRadiusKm float64
}

// NewResolver creates a resolver with the default smoothing radius.
func NewResolver(ds *Dataset) *Resolver {
	return &Resolver{
		ds:                ds,
		index:             ds.Index(),
		SmoothingRadiusKm: DefaultSmoothingRadiusKm,
	}
}

// Dataset returns the dataset the resolver reads from.
func (r *Resolver) Dataset() *Dataset {
	return r.ds
}

// KindOf returns the extraction rule for name, checked in priority order.
func (r *Resolver) KindOf(name string) (VariableKind, error) {
	if !slices.Contains(r.ds.Variables, name) &&
		name != r.ds.SmoothedVarName() && name != IceDistanceVarName {
		available := r.ds.VariableNames()
		slices.Sort(available)
		return 0, &UnknownVariableError{Name: name, Available: available}
	}

	switch name {
	case LatVarName:
		return KindLatitude, nil
	case LonVarName:
		return KindLongitude, nil
	case TimeVarName:
		return KindTime, nil
	case r.ds.PrimaryVar:
		return KindCelsius, nil
	case r.ds.SmoothedVarName():
		return KindSmoothed, nil
	case IceDistanceVarName:
		return KindIceDistance, nil
	default:
		return KindPassthrough, nil
	}
}

// Value resolves one variable at the cell (latIdx, lonIdx). The query point
// (lat, lon) centers the derived computations.
func (r *Resolver) Value(name string, latIdx, lonIdx int, lat, lon float64) (Value, error) {
	kind, err := r.KindOf(name)
	if err != nil {
		return Value{}, err
	}

	switch kind {
	case KindLatitude:
		return Number(r.ds.Lat[latIdx]), nil
	case KindLongitude:
		return Number(r.ds.Lon[lonIdx]), nil
	case KindTime:
		return Timestamp(r.ds.Time()), nil
	case KindCelsius:
		v, ok := r.ds.Fields[name].At(latIdx, lonIdx)
		if !ok {
			return Missing(), nil
		}
		return Number(v - KelvinOffset), nil
	case KindSmoothed:
		mean, err := Average(r.ds, lat, lon, r.SmoothingRadiusKm)
		if err != nil {
			return Value{}, fmt.Errorf("variable %s: %w", name, err)
		}
		return Number(mean - KelvinOffset), nil
	case KindIceDistance:
		return Number(DistanceToIceKm(r.ds, lat, lon)), nil
	default:
		f, ok := r.ds.Fields[name]
		if !ok {
			// Declared but not gridded.
			return Missing(), nil
		}
		v, ok := f.At(latIdx, lonIdx)
		if !ok {
			return Missing(), nil
		}
		return Number(v), nil
	}
}

// Query resolves the point and returns a fresh record with the requested variables.
// When names is empty every declared variable is returned in declared order.
func (r *Resolver) Query(lat, lon float64, names []string) (*DataPoint, error) {
	latIdx, lonIdx, err := r.index.Resolve(lat, lon)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = r.ds.Variables
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		v, err := r.Value(name, latIdx, lonIdx, lat, lon)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: name, Value: v})
	}
	return NewDataPoint(entries...), nil
}
