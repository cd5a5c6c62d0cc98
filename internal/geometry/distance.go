package geometry

import "math"

// Haversine returns the great-circle distance in meters between two
// lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const deg = math.Pi / 180

	phi1 := lat1 * deg
	phi2 := lat2 * deg
	dPhi := (lat2 - lat1) * deg
	dLambda := (lon2 - lon1) * deg

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidCoordinate reports whether lat/lon form a usable WGS84 coordinate.
// NaN, infinite, and out-of-range values are rejected.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
