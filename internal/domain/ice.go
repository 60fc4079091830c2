package domain

import "math"

const (
	// MaxIceDistanceKm is the largest ice distance reported.
	MaxIceDistanceKm = 500.0
	// NoIceSentinelKm is reported when no ice lies within MaxIceDistanceKm.
	NoIceSentinelKm = 1000.0
	// MinSeaIceFraction is the fraction above which a sea cell counts as ice.
	MinSeaIceFraction = 0.15
)

// isIce reports whether the cell is a sea cell with an ice fraction above MinSeaIceFraction.
func (d *Dataset) isIce(ice *Field, i, j int) bool {
	v, ok := ice.At(i, j)
	return ok && v > MinSeaIceFraction && d.isSea(i, j)
}

// DistanceToIceKm returns the planar distance in kilometers from (lat, lon) to the
// nearest ice cell of the dataset, or NoIceSentinelKm if none lies within
// MaxIceDistanceKm.
//
// The east-west offset is scaled at the cell's latitude, not the query's.
func DistanceToIceKm(ds *Dataset, lat, lon float64) float64 {
	ice, ok := ds.Fields[ds.SeaIceVar]
	if !ok {
		return NoIceSentinelKm
	}

	best := math.Inf(1)
	for i, cellLat := range ds.Lat {
		y := DegreesLatitudeToKm(math.Abs(cellLat - lat))
		// The north-south offset is a lower bound for every cell in the row.
		if y >= best {
			continue
		}
		for j, cellLon := range ds.Lon {
			if !ds.isIce(ice, i, j) {
				continue
			}
			x := DegreesLongitudeToKm(math.Abs(cellLon-lon), cellLat)
			if d := math.Sqrt(x*x + y*y); d < best {
				best = d
			}
		}
	}

	if best > MaxIceDistanceKm {
		return NoIceSentinelKm
	}
	return best
}
