package osm2sidewalks

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Kerb is kerb point of the crossing
type Kerb struct {
	ID         int64
	CrossingID int64
	Point      orb.Point
	// Direction toward crossing center: degrees clockwise from +Y axis
	Bearing float64
}

// PlaceKerbs returns two kerbs at percent and (100 - percent) of crossing length,
// both facing the crossing center.
func PlaceKerbs(crossing Crossing, percent float64) ([]Kerb, error) {
	length := planar.Length(crossing.Geom)
	if length <= epsilon {
		return nil, ErrZeroLengthCrossing
	}
	p := percent / 100.0
	center := pointAlong(crossing.Geom, length/2.0)
	kerbs := make([]Kerb, 2)
	for i, along := range []float64{p * length, (1.0 - p) * length} {
		pt := pointAlong(crossing.Geom, along)
		kerbs[i] = Kerb{
			ID:         crossing.ID*2 + int64(i),
			CrossingID: crossing.ID,
			Point:      pt,
			Bearing:    bearing(pt, center),
		}
	}
	return kerbs, nil
}

// bearing from p to q in degrees, clockwise from +Y axis, in [0, 360)
func bearing(p, q orb.Point) float64 {
	deg := math.Atan2(q[0]-p[0], q[1]-p[1]) * 180.0 / math.Pi
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
