package domain

import "testing"

func TestCoordinateEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want bool
	}{
		{"same", NewCoordinate(59.91, 10.75), NewCoordinate(59.91, 10.75), true},
		{"moved", NewCoordinate(59.91, 10.75), NewCoordinate(63.43, 10.39), false},
		{"both empty", Coordinate{}, Coordinate{}, true},
		{"cleared", NewCoordinate(59.91, 10.75), Coordinate{}, false},
		{"latitude only", NewCoordinate(59.91, 10.75), Coordinate{Lat: ptr(59.91)}, false},
		{"same partial", Coordinate{Lon: ptr(10.75)}, Coordinate{Lon: ptr(10.75)}, true},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal() = %v, want %v", tt.name, got, tt.want)
		}
		if got := tt.b.Equal(tt.a); got != tt.want {
			t.Errorf("%s (swapped): Equal() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
