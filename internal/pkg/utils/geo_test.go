package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{name: "same point", lat1: -6.2, lon1: 106.8, lat2: -6.2, lon2: 106.8, want: 0, delta: 0.001},
		{name: "one degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: 111195, delta: 5},
		{name: "jakarta to bandung", lat1: -6.2088, lon1: 106.8456, lat2: -6.9175, lon2: 107.6191, want: 116000, delta: 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}
