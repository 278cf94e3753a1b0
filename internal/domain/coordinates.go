package domain

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Geographic position of a site. Either field may be absent while the
// site has not been located yet.
type Coordinate struct {
	Lat *float64
	Lon *float64
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: &lat, Lon: &lon}
}

// Return both values when they are present.
func (c Coordinate) LatLon() (lat, lon float64, ok bool) {
	if c.Lat == nil || c.Lon == nil {
		return 0, 0, false
	}
	return *c.Lat, *c.Lon, true
}

// Complete reports whether both latitude and longitude are present.
func (c Coordinate) Complete() bool {
	return c.Lat != nil && c.Lon != nil
}

// Equal reports whether both coordinates have the same fields present with
// exactly the same values.
func (c Coordinate) Equal(o Coordinate) bool {
	return sameValue(c.Lat, o.Lat) && sameValue(c.Lon, o.Lon)
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Validate checks present fields against the WGS84 ranges.
func (c Coordinate) Validate() error {
	if c.Lat != nil && (*c.Lat < -90 || *c.Lat > 90) {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, *c.Lat)
	}
	if c.Lon != nil && (*c.Lon < -180 || *c.Lon > 180) {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, *c.Lon)
	}
	return nil
}

// Return the coordinate as an orb point ([lon, lat]) for geometry tooling.
func (c Coordinate) Point() (orb.Point, bool) {
	lat, lon, ok := c.LatLon()
	if !ok {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}
