package domain

import "math"

const (
	// EarthMeanRadiusKm is the mean radius of the Earth in kilometers.
	EarthMeanRadiusKm = 6371.0

	// OneMeanDegreeKm is the length of one degree along a great circle.
	// It is also the length of one degree of latitude, independent of latitude.
	OneMeanDegreeKm = 2 * math.Pi * EarthMeanRadiusKm / 360.0
)

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// oneDegreeLongitudeKm returns the length of one degree of longitude at the given latitude.
// Meridians converge toward the poles, so the length shrinks with cos(latitude).
func oneDegreeLongitudeKm(atLatitude float64) float64 {
	return OneMeanDegreeKm * math.Cos(Deg2Rad(atLatitude))
}

// DegreesLatitudeToKm converts a latitude difference in degrees to kilometers.
func DegreesLatitudeToKm(dLat float64) float64 {
	return dLat * OneMeanDegreeKm
}

// DegreesLongitudeToKm converts a longitude difference in degrees to kilometers
// at the given latitude.
func DegreesLongitudeToKm(dLon, atLatitude float64) float64 {
	return dLon * oneDegreeLongitudeKm(atLatitude)
}

// KmToDegreesLatitude converts a north-south distance in kilometers to degrees of latitude.
func KmToDegreesLatitude(km float64) float64 {
	return km / OneMeanDegreeKm
}

// KmToDegreesLongitude converts an east-west distance in kilometers to degrees of longitude
// at the given latitude.
//
// At the poles cos(latitude) is zero and the result is +Inf (or NaN for km == 0).
// Callers that build longitude windows must clamp the span, see lonHalfWidth.
func KmToDegreesLongitude(km, atLatitude float64) float64 {
	return km / oneDegreeLongitudeKm(atLatitude)
}

// lonHalfWidth returns the longitude half-width in degrees of a window with the given
// radius centered at the given latitude, clamped to a full circle near the poles.
func lonHalfWidth(radiusKm, atLatitude float64) float64 {
	d := KmToDegreesLongitude(radiusKm, atLatitude)
	if math.IsNaN(d) || math.IsInf(d, 0) || d > 180 {
		return 180
	}
	return d
}
