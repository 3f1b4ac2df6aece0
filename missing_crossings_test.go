package osm2sidewalks

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

// coveredGrid returns nx*ny square blocks all marked as covered, plus sidewalk rings inset by given offset
func coveredGrid(nx, ny int, size, inset float64) (*ProtoblockSet, []orb.LineString) {
	set := &ProtoblockSet{}
	sidewalks := []orb.LineString{}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x0, y0 := float64(i)*size, float64(j)*size
			ring := orb.Ring{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}
			set.Covered = append(set.Covered, Protoblock{ID: int64(len(set.Covered)), Geom: orb.Polygon{ring}, Area: size * size})
			sidewalks = append(sidewalks, orb.LineString{
				{x0 + inset, y0 + inset}, {x0 + size - inset, y0 + inset}, {x0 + size - inset, y0 + size - inset}, {x0 + inset, y0 + size - inset}, {x0 + inset, y0 + inset},
			})
		}
	}
	return set, sidewalks
}

func TestInferMissingCrossings(t *testing.T) {
	cfg := DefaultConfig()
	set, sidewalks := coveredGrid(3, 3, 100, 4.5)
	result, err := InferMissingCrossings(context.Background(), set, sidewalks, nil, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(result.Candidates) != 12 {
		t.Errorf("Number of shared edges should be %d, but got %d", 12, len(result.Candidates))
	}
	// only edges around the central block connect two real intersections
	if result.Rejections[REJECT_MID_BLOCK] != 8 {
		t.Errorf("Number of mid-block rejections should be %d, but got %d", 8, result.Rejections[REJECT_MID_BLOCK])
	}
	if len(result.Crossings) != 4 {
		t.Errorf("Number of inferred crossings should be %d, but got %d", 4, len(result.Crossings))
		return
	}
	if result.Fallbacks != 0 {
		t.Errorf("Number of fallbacks should be %d, but got %d", 0, result.Fallbacks)
	}
	if len(result.Kerbs) != 8 {
		t.Errorf("Number of kerbs should be %d, but got %d", 8, len(result.Kerbs))
	}
	for _, crossing := range result.Crossings {
		if crossing.Origin != CROSSING_INFERRED {
			t.Errorf("Crossing %d origin should be '%s', but got '%s'", crossing.ID, CROSSING_INFERRED, crossing.Origin)
		}
		if math.Abs(crossing.Length-9) > 1e-9 {
			t.Errorf("Crossing %d length should be %f, but got %f", crossing.ID, 9.0, crossing.Length)
		}
		mid := crossing.Geom[2]
		if math.Abs(Round(mid[0], 1e-9)-150) > 1e-9 && math.Abs(Round(mid[1], 1e-9)-150) > 1e-9 {
			t.Errorf("Crossing %d should be placed at the middle of shared edge, but got center %v", crossing.ID, mid)
		}
	}
}

func TestInferMissingCrossingsExisting(t *testing.T) {
	cfg := DefaultConfig()
	set, sidewalks := coveredGrid(3, 3, 100, 4.5)
	existing := []orb.LineString{{{95.5, 150}, {104.5, 150}}}
	result, err := InferMissingCrossings(context.Background(), set, sidewalks, existing, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if result.Rejections[REJECT_EXISTING_CROSSING] != 1 {
		t.Errorf("Number of existing crossing rejections should be %d, but got %d", 1, result.Rejections[REJECT_EXISTING_CROSSING])
	}
	if len(result.Crossings) != 3 {
		t.Errorf("Number of inferred crossings should be %d, but got %d", 3, len(result.Crossings))
	}
}

func TestInferMissingCrossingsFallback(t *testing.T) {
	cfg := DefaultConfig()
	set, _ := coveredGrid(3, 3, 100, 4.5)
	result, err := InferMissingCrossings(context.Background(), set, nil, nil, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(result.Crossings) != 4 {
		t.Errorf("Number of inferred crossings should be %d, but got %d", 4, len(result.Crossings))
	}
	if result.Fallbacks != 8 {
		t.Errorf("Number of fallbacks should be %d, but got %d", 8, result.Fallbacks)
	}
	expected := cfg.expectedCrossingLength(cfg.FallbackWidth)
	for _, crossing := range result.Crossings {
		if math.Abs(crossing.Length-expected) > 1e-9 {
			t.Errorf("Crossing %d length should be %f, but got %f", crossing.ID, expected, crossing.Length)
		}
	}
}

func TestInferMissingCrossingsNotEnoughBlocks(t *testing.T) {
	cfg := DefaultConfig()
	set, sidewalks := coveredGrid(1, 1, 100, 4.5)
	result, err := InferMissingCrossings(context.Background(), set, sidewalks, nil, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(result.Crossings) != 0 || len(result.Candidates) != 0 {
		t.Errorf("Single block should produce nothing, but got %d crossings and %d candidates", len(result.Crossings), len(result.Candidates))
	}
}

func TestInferMissingCrossingsCancelled(t *testing.T) {
	set, sidewalks := coveredGrid(3, 3, 100, 4.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := InferMissingCrossings(ctx, set, sidewalks, nil, DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if !result.Cancelled {
		t.Errorf("Result should be marked as cancelled")
	}
	if len(result.Candidates) != 0 || len(result.Crossings) != 0 {
		t.Errorf("Cancelled inference should produce nothing, but got %d candidates and %d crossings", len(result.Candidates), len(result.Crossings))
	}
}

func TestRejectReasonString(t *testing.T) {
	correct := map[RejectReason]string{
		REJECT_MID_BLOCK:         "mid_block",
		REJECT_EXISTING_CROSSING: "existing_crossing",
		REJECT_CONTAINMENT:       "containment",
		REJECT_ZERO_LENGTH:       "zero_length",
	}
	for reason, name := range correct {
		if reason.String() != name {
			t.Errorf("Reason should be '%s', but got '%s'", name, reason.String())
		}
	}
}
