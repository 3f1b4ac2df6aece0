package osm2sidewalks

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestPlaceKerbs(t *testing.T) {
	cfg := DefaultConfig()
	crossing := newCrossing(orb.Point{0, 0}, orb.Point{0, 20}, 14, cfg)
	crossing.ID = 3
	kerbs, err := PlaceKerbs(crossing, 15)
	if err != nil {
		t.Error(err)
		return
	}
	if len(kerbs) != 2 {
		t.Errorf("Number of kerbs should be %d, but got %d", 2, len(kerbs))
		return
	}
	correct := []orb.Point{{0, 3}, {0, 17}}
	for i, kerb := range kerbs {
		if math.Abs(kerb.Point[0]-correct[i][0]) > 1e-9 || math.Abs(kerb.Point[1]-correct[i][1]) > 1e-9 {
			t.Errorf("Kerb #%d should be at %v, but got %v", i, correct[i], kerb.Point)
		}
		if kerb.CrossingID != 3 {
			t.Errorf("Kerb #%d should reference crossing %d, but got %d", i, 3, kerb.CrossingID)
		}
	}
	if kerbs[0].Bearing != 0 || kerbs[1].Bearing != 180 {
		t.Errorf("Kerbs should face the center: bearings should be 0 and 180, but got %f and %f", kerbs[0].Bearing, kerbs[1].Bearing)
	}
	// symmetric about the midpoint
	mid := orb.Point{(kerbs[0].Point[0] + kerbs[1].Point[0]) / 2, (kerbs[0].Point[1] + kerbs[1].Point[1]) / 2}
	if math.Abs(mid[1]-10) > 1e-9 {
		t.Errorf("Kerbs midpoint should be %v, but got %v", orb.Point{0, 10}, mid)
	}
	if kerbs[0].ID == kerbs[1].ID {
		t.Errorf("Kerbs should have distinct IDs")
	}
}

func TestCrossingGeometry(t *testing.T) {
	cfg := DefaultConfig()
	crossing := newCrossing(orb.Point{10, 0}, orb.Point{0, 0}, 8, cfg)
	correct := orb.LineString{{10, 0}, {8.5, 0}, {5, 0}, {1.5, 0}, {0, 0}}
	for i := range correct {
		if math.Abs(crossing.Geom[i][0]-correct[i][0]) > 1e-9 || crossing.Geom[i][1] != correct[i][1] {
			t.Errorf("Crossing point #%d should be %v, but got %v", i, correct[i], crossing.Geom[i])
		}
	}
	if crossing.Length != 10 {
		t.Errorf("Crossing length should be %f, but got %f", 10.0, crossing.Length)
	}
	if crossing.ExpectedLength != 11 {
		t.Errorf("Expected length should be %f, but got %f", 11.0, crossing.ExpectedLength)
	}
}

func TestPlaceKerbsZeroLength(t *testing.T) {
	crossing := Crossing{Geom: orb.LineString{{1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}}}
	kerbs, err := PlaceKerbs(crossing, 15)
	if !errors.Is(err, ErrZeroLengthCrossing) {
		t.Errorf("Error should be '%v', but got '%v'", ErrZeroLengthCrossing, err)
	}
	if len(kerbs) != 0 {
		t.Errorf("No kerbs should be placed, but got %d", len(kerbs))
	}
	set := &CrossingSet{}
	if set.accept(crossing, 15) {
		t.Errorf("Zero-length crossing should not be accepted")
	}
	if len(set.Crossings) != 0 || len(set.Kerbs) != 0 {
		t.Errorf("Nothing should be stored for zero-length crossing")
	}
}
