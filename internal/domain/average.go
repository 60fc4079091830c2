package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultSmoothingRadiusKm is the radius used for the smoothed temperature variable.
const DefaultSmoothingRadiusKm = 25.0

// Average returns the mean of the primary variable over the sea cells of a square
// window of radiusKm around (lat, lon). Cells flagged missing are ignored.
//
// The latitude window is closed and the longitude window is open.
func Average(ds *Dataset, lat, lon, radiusKm float64) (float64, error) {
	if !(radiusKm >= 0) || math.IsInf(radiusKm, 0) {
		return 0, fmt.Errorf("invalid averaging radius %g km", radiusKm)
	}
	primary, ok := ds.Fields[ds.PrimaryVar]
	if !ok {
		return 0, fmt.Errorf("primary variable %q not found", ds.PrimaryVar)
	}

	dLat := KmToDegreesLatitude(radiusKm)
	dLon := lonHalfWidth(radiusKm, lat)

	latLo, latHi := lat-dLat, lat+dLat
	lonLo, lonHi := lon-dLon, lon+dLon

	cols := make([]int, 0, len(ds.Lon))
	for j, cellLon := range ds.Lon {
		if cellLon > lonLo && cellLon < lonHi {
			cols = append(cols, j)
		}
	}

	var selected []float64
	for i, cellLat := range ds.Lat {
		if cellLat < latLo || cellLat > latHi {
			continue
		}
		for _, j := range cols {
			if !ds.isSea(i, j) {
				continue
			}
			if v, ok := primary.At(i, j); ok {
				selected = append(selected, v)
			}
		}
	}

	if len(selected) == 0 {
		return 0, fmt.Errorf("%.4f/%.4f radius %g km: %w", lat, lon, radiusKm, ErrNoDataInWindow)
	}
	return floats.Sum(selected) / float64(len(selected)), nil
}
