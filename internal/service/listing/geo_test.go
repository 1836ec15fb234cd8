package listing

import (
	"math"
	"testing"

	"github.com/mekedron/grocer-cli/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := [][2]domain.Coordinate{
		{{Lat: -7.770717, Lon: 110.3695}, {Lat: -6.2088, Lon: 106.8456}},
		{{Lat: 60.1699, Lon: 24.9384}, {Lat: 59.4370, Lon: 24.7536}},
		{{Lat: 0, Lon: 179.9}, {Lat: 0, Lon: -179.9}},
		{{Lat: 89.9, Lon: 0}, {Lat: -89.9, Lon: 180}},
	}
	for _, pair := range pairs {
		assert.Equal(t, Distance(pair[0], pair[1]), Distance(pair[1], pair[0]))
	}
}

func TestDistanceIdentityIsZero(t *testing.T) {
	point := domain.Coordinate{Lat: -7.770717, Lon: 110.3695}
	assert.Zero(t, Distance(point, point))

	for _, c := range []domain.Coordinate{{}, {Lat: 90, Lon: 180}, {Lat: -90, Lon: -180}} {
		assert.Zero(t, Distance(c, c))
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// one degree of longitude on the equator
	got := Distance(domain.Coordinate{Lat: 0, Lon: 0}, domain.Coordinate{Lat: 0, Lon: 1})
	assert.InDelta(t, EarthRadiusMeters*math.Pi/180, got, 1e-6)

	antipodal := Distance(domain.Coordinate{Lat: 0, Lon: 0}, domain.Coordinate{Lat: 0, Lon: 180})
	assert.False(t, math.IsNaN(antipodal))
	assert.InDelta(t, EarthRadiusMeters*math.Pi, antipodal, 1e-3)
}

func TestFormatDistance(t *testing.T) {
	cases := map[float64]string{
		0:       "0 m",
		850:     "850 m",
		999.4:   "999 m",
		1000:    "1.00 km",
		1500:    "1.50 km",
		12345.6: "12.35 km",
		-1:      "-",
	}
	for meters, want := range cases {
		assert.Equal(t, want, FormatDistance(meters), "meters=%v", meters)
	}
	assert.Equal(t, "-", FormatDistance(math.NaN()))
}
