// Package wifi models the producer side of the simulation: an access
// point, a set of mobile stations, and the periodic reporter that drives
// one control round trip per station through the exchange channel.
package wifi

import (
	"math"
	"math/rand"
)

// A Station is one mobile node. It random-walks inside a square area and
// accumulates per-interval throughput measurements.
type Station struct {
	ID uint32

	X, Y  float64
	Speed float64 // m/s
	Bound float64 // walk area is [-Bound, Bound] on both axes

	// Throughput measured over the last reporting interval (Mbps).
	DLThroughput float64
	ULThroughput float64

	rng *rand.Rand
}

// NewStation places a station and seeds its private random source so runs
// are reproducible per station.
func NewStation(id uint32, x, y float64, seed int64) *Station {
	return &Station{
		ID:    id,
		X:     x,
		Y:     y,
		Speed: 0.05,
		Bound: 50.0,
		rng:   rand.New(rand.NewSource(seed + int64(id))),
	}
}

// Walk advances the station by dt seconds in a random direction, clamped
// to the walk area.
func (s *Station) Walk(dt float64) {
	if s.Speed == 0 || dt == 0 {
		return
	}

	angle := s.rng.Float64() * 2 * math.Pi
	s.X += s.Speed * dt * math.Cos(angle)
	s.Y += s.Speed * dt * math.Sin(angle)

	s.X = clamp(s.X, -s.Bound, s.Bound)
	s.Y = clamp(s.Y, -s.Bound, s.Bound)
}

// DistanceTo returns the distance from the station to a point.
func (s *Station) DistanceTo(x, y float64) float64 {
	return math.Hypot(s.X-x, s.Y-y)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PlaceOnCircle positions n stations evenly on a circle of the given
// radius around the origin, the initial topology of the scenario.
func PlaceOnCircle(n int, radius float64, seed int64) []*Station {
	stations := make([]*Station, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		stations[i] = NewStation(
			uint32(i),
			radius*math.Cos(angle),
			radius*math.Sin(angle),
			seed,
		)
	}
	return stations
}
