package listing

import (
	"fmt"
	"math"

	"github.com/mekedron/grocer-cli/internal/domain"
)

// EarthRadiusMeters is the sphere radius used for distance calculations.
const EarthRadiusMeters = 6378137.0

// Distance returns the great-circle distance between two coordinates in meters.
func Distance(from, to domain.Coordinate) float64 {
	phi1 := radians(from.Lat)
	phi2 := radians(to.Lat)
	deltaPhi := radians(to.Lat - from.Lat)
	deltaLambda := radians(to.Lon - from.Lon)

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	// rounding can push a just outside [0, 1] near antipodes
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// FormatDistance renders meters as "850 m" below one kilometer and "1.50 km" above.
func FormatDistance(meters float64) string {
	if math.IsNaN(meters) || math.IsInf(meters, 0) || meters < 0 {
		return "-"
	}
	if meters < 1000 {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
