package domain

import (
	"fmt"
	"strconv"
)

// Latitude band with its display label. Bands are matched top-down and
// the first threshold that lat reaches wins.
type regionBand struct {
	minLat float64
	name   string
}

var regionBands = []regionBand{
	{69, "Northern region"},
	{63, "Central region"},
	{60, "Western region"},
	{58, "Southern region"},
}

type yieldBand struct {
	minLat float64
	kWh    int
}

// kWh/m²/year, highest threshold first.
var yieldBands = []yieldBand{
	{70, 700},
	{67, 780},
	{64, 850},
	{62, 920},
	{60, 980},
	{58, 1050},
}

const (
	defaultSolarYield = 1100

	solarYieldMinLat = 50.0
	solarYieldMaxLat = 75.0

	// Rendered wherever a derived value is unknown.
	UnknownValue = "-"
)

// RegionName maps a position to a coarse region label. South of the
// lowest band the coordinates themselves are returned.
func RegionName(lat, lng float64) string {
	for _, b := range regionBands {
		if lat >= b.minLat {
			return b.name
		}
	}
	return fmt.Sprintf("%.2f°N, %.2f°E", lat, lng)
}

// EstimateAnnualSolarYield returns the stepped annual yield in kWh/m².
// The lookup has no lower bound; use SolarYieldKnown before displaying it.
func EstimateAnnualSolarYield(lat float64) int {
	for _, b := range yieldBands {
		if lat >= b.minLat {
			return b.kWh
		}
	}
	return defaultSolarYield
}

func SolarYieldKnown(lat float64) bool {
	return lat >= solarYieldMinLat && lat <= solarYieldMaxLat
}

// Display value for the yield estimate of a site location.
func FormatSolarYield(c Coordinate) string {
	if !HasLocation(c) {
		return UnknownValue
	}
	lat := *c.Lat
	if !SolarYieldKnown(lat) {
		return UnknownValue
	}
	return strconv.Itoa(EstimateAnnualSolarYield(lat))
}
