package dto

type SummaryResponse struct {
	Region      string `json:"region"`
	SolarYield  string `json:"solar_yield_kwh_m2"`
	HasLocation bool   `json:"has_location"`
	// [west, south, east, north]; omitted when there is no location.
	BoundingBox []float64 `json:"bbox,omitempty"`
	Zoom        int       `json:"zoom"`
}
