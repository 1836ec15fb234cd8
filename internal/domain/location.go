package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// ErrInvalidCoordinate is returned for coordinates outside the valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate identifies a point on earth in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Validate checks that both axes are finite and in range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v must be within [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v must be within [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// Geohash encodes the coordinate as a geohash cell of the given length.
func (c Coordinate) Geohash(precision uint) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, precision)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// CoordinateFromGeohash decodes the centre of a geohash cell.
func CoordinateFromGeohash(hash string) (Coordinate, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return Coordinate{}, fmt.Errorf("%w: empty geohash", ErrInvalidCoordinate)
	}
	if err := geohash.Validate(hash); err != nil {
		return Coordinate{}, fmt.Errorf("%w: geohash %q: %v", ErrInvalidCoordinate, hash, err)
	}
	lat, lon := geohash.DecodeCenter(hash)
	return Coordinate{Lat: lat, Lon: lon}, nil
}
