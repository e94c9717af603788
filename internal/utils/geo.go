package utils

import "math"

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// InitialBearing is the great-circle bearing in degrees [0, 360) from the first point towards the
// second.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	dLon := radians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

// Compass maps a bearing to one of eight compass points.
func Compass(bearing float64) string {
	bearing = math.Mod(bearing, 360)
	if bearing < 0 {
		bearing += 360
	}
	return compassPoints[int((bearing+22.5)/45)%8]
}

// Heading is the compass point from the first point towards the second, or "" when they coincide.
func Heading(lat1, lon1, lat2, lon2 float64) string {
	if lat1 == lat2 && lon1 == lon2 {
		return ""
	}
	return Compass(InitialBearing(lat1, lon1, lat2, lon2))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
