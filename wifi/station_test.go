package wifi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalkStaysInBounds(t *testing.T) {
	sta := NewStation(0, 0, 0, 1)
	sta.Speed = 10.0
	sta.Bound = 1.0

	for i := 0; i < 1000; i++ {
		sta.Walk(1.0)
		assert.LessOrEqual(t, math.Abs(sta.X), sta.Bound)
		assert.LessOrEqual(t, math.Abs(sta.Y), sta.Bound)
	}
}

func TestWalkIsReproducible(t *testing.T) {
	a := NewStation(3, 1, 2, 42)
	b := NewStation(3, 1, 2, 42)

	for i := 0; i < 100; i++ {
		a.Walk(0.25)
		b.Walk(0.25)
	}

	assert.Equal(t, a.X, b.X)
	assert.Equal(t, a.Y, b.Y)
}

func TestZeroSpeedStationDoesNotMove(t *testing.T) {
	sta := NewStation(0, 0.3, 0.4, 1)
	sta.Speed = 0

	sta.Walk(0.25)

	assert.Equal(t, 0.3, sta.X)
	assert.Equal(t, 0.4, sta.Y)
	assert.InDelta(t, 0.5, sta.DistanceTo(0, 0), 1e-12)
}

func TestPlaceOnCircle(t *testing.T) {
	stations := PlaceOnCircle(8, 0.5, 7)

	assert.Len(t, stations, 8)
	for i, sta := range stations {
		assert.Equal(t, uint32(i), sta.ID)
		assert.InDelta(t, 0.5, sta.DistanceTo(0, 0), 1e-9)
	}
}
