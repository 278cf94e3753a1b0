package domain

import (
	"testing"
)

func TestRegionNameNorthernBandIgnoresLongitude(t *testing.T) {
	for _, lat := range []float64{69, 69.5, 71.2, 80, 90} {
		for _, lng := range []float64{-170, 0, 5, 25.3, 179.9} {
			if got := RegionName(lat, lng); got != "Northern region" {
				t.Fatalf("RegionName(%v, %v) = %q, want %q", lat, lng, got, "Northern region")
			}
		}
	}
}

func TestRegionNameBands(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     string
	}{
		{68.99, 15, "Central region"},
		{63, 10, "Central region"},
		{62.99, 10, "Western region"},
		{60, 5, "Western region"},
		{59.91, 10.75, "Southern region"},
		{58.0, 5.0, "Southern region"},
		{58.5, 5.0, "Southern region"},
		{58.99, 5.0, "Southern region"},
		{57.99, 5.0, "57.99°N, 5.00°E"},
		{-33.9, 151.2, "-33.90°N, 151.20°E"},
	}

	for _, tt := range tests {
		if got := RegionName(tt.lat, tt.lng); got != tt.want {
			t.Errorf("RegionName(%v, %v) = %q, want %q", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestEstimateAnnualSolarYield(t *testing.T) {
	tests := []struct {
		lat  float64
		want int
	}{
		{75, 700},
		{70, 700},
		{69.9, 780},
		{67, 780},
		{64, 850},
		{62, 920},
		{60, 980},
		{59.91, 1050},
		{58, 1050},
		{57.99, 1100},
		{50, 1100},
		// No lower bound in the lookup itself.
		{10, 1100},
	}

	for _, tt := range tests {
		if got := EstimateAnnualSolarYield(tt.lat); got != tt.want {
			t.Errorf("EstimateAnnualSolarYield(%v) = %d, want %d", tt.lat, got, tt.want)
		}
	}
}

func TestFormatSolarYield(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want string
	}{
		{"no location", Coordinate{}, "-"},
		{"latitude only", Coordinate{Lat: ptr(60.0)}, "-"},
		{"zero sentinel", NewCoordinate(0, 10), "-"},
		{"below range", NewCoordinate(49.99, 10), "-"},
		{"above range", NewCoordinate(75.01, 10), "-"},
		{"lower edge", NewCoordinate(50, 10), "1100"},
		{"upper edge", NewCoordinate(75, 10), "700"},
		{"oslo", NewCoordinate(59.91, 10.75), "1050"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSolarYield(tt.c); got != tt.want {
				t.Fatalf("FormatSolarYield() = %q, want %q", got, tt.want)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }
