package domain

import "math"

// Range is a closed interval of degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the closed interval. NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// GridIndex resolves query coordinates to cell indices of one dataset.
// Coordinate arrays are assumed strictly ascending and are not re-sorted.
type GridIndex struct {
	lat    []float64
	lon    []float64
	latRes float64
	lonRes float64
}

// NewGridIndex creates an index over ascending cell-center coordinates.
func NewGridIndex(lat, lon []float64, latRes, lonRes float64) *GridIndex {
	return &GridIndex{lat: lat, lon: lon, latRes: latRes, lonRes: lonRes}
}

// Bounds returns the valid query envelope. Grid points are cell centers, so the
// coordinate extent is widened by half a cell on each edge.
func (g *GridIndex) Bounds() (latRange, lonRange Range) {
	latRange = Range{
		Min: g.lat[0] - g.latRes/2,
		Max: g.lat[len(g.lat)-1] + g.latRes/2,
	}
	lonRange = Range{
		Min: g.lon[0] - g.lonRes/2,
		Max: g.lon[len(g.lon)-1] + g.lonRes/2,
	}
	return latRange, lonRange
}

// Resolve returns the nearest latitude and longitude indices for the point.
// Each axis is resolved independently.
func (g *GridIndex) Resolve(lat, lon float64) (latIdx, lonIdx int, err error) {
	latRange, lonRange := g.Bounds()
	if !latRange.Contains(lat) {
		return 0, 0, &OutOfRangeError{Axis: "latitude", Value: lat, Min: latRange.Min, Max: latRange.Max}
	}
	if !lonRange.Contains(lon) {
		return 0, 0, &OutOfRangeError{Axis: "longitude", Value: lon, Min: lonRange.Min, Max: lonRange.Max}
	}
	return NearestIndex(g.lat, lat), NearestIndex(g.lon, lon), nil
}

// NearestIndex finds the index of the value closest to target in an ascending array.
// On an exact tie the lower index wins.
func NearestIndex(arr []float64, target float64) int {
	if len(arr) == 0 {
		return 0
	}

	// Binary search for the first element >= target.
	left, right := 0, len(arr)-1
	for left < right {
		mid := (left + right) / 2
		if arr[mid] < target {
			left = mid + 1
		} else {
			right = mid
		}
	}

	// Check if left-1 is at least as close.
	if left > 0 && math.Abs(arr[left-1]-target) <= math.Abs(arr[left]-target) {
		return left - 1
	}

	return left
}
