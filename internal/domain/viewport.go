package domain

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	baseZoom     = 14
	baseLatDelta = 0.01
	baseLngDelta = 0.015
)

// Map preview extent in degrees.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// BoundingBoxFor computes the preview box around a center point. Each zoom
// step below 14 doubles the extent, each step above halves it. Inputs are
// not validated.
func BoundingBoxFor(lat, lng float64, zoom int) BoundingBox {
	scale := math.Pow(2, float64(baseZoom-zoom))
	latDelta := baseLatDelta * scale
	lngDelta := baseLngDelta * scale

	return BoundingBox{
		West:  lng - lngDelta,
		South: lat - latDelta,
		East:  lng + lngDelta,
		North: lat + latDelta,
	}
}

// Return the box as [west, south, east, north].
func (b BoundingBox) BBox() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// HasLocation reports whether a coordinate can be placed on the map.
// Zero is treated as "unset" because form inputs default to it.
func HasLocation(c Coordinate) bool {
	lat, lon, ok := c.LatLon()
	if !ok {
		return false
	}
	return lat != 0 && lon != 0
}
