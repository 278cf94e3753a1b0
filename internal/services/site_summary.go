package services

import "pool-site-service/internal/domain"

// Zoom used for the map preview when the caller does not pick one.
const DefaultZoom = 14

const regionPlaceholder = "Location not set"

// Derived display values for a site location.
type SiteSummary struct {
	Region      string
	SolarYield  string
	HasLocation bool
	BoundingBox *domain.BoundingBox
}

// Summarize derives the region label, yield estimate and map extent. A
// coordinate without a usable location yields placeholders and no box.
func Summarize(c domain.Coordinate, zoom int) SiteSummary {
	if !domain.HasLocation(c) {
		return SiteSummary{
			Region:     regionPlaceholder,
			SolarYield: domain.UnknownValue,
		}
	}

	lat, lon, _ := c.LatLon()
	box := domain.BoundingBoxFor(lat, lon, zoom)

	return SiteSummary{
		Region:      domain.RegionName(lat, lon),
		SolarYield:  domain.FormatSolarYield(c),
		HasLocation: true,
		BoundingBox: &box,
	}
}
