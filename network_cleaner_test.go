package osm2sidewalks

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"
)

func mustLine(t *testing.T, s string) orb.LineString {
	t.Helper()
	line, err := wkt.UnmarshalLineString(s)
	if err != nil {
		t.Fatal(err)
	}
	return line
}

func streetsFromWKT(t *testing.T, roadClass string, lines ...string) []StreetSegment {
	t.Helper()
	segments := make([]StreetSegment, len(lines))
	for i, s := range lines {
		segments[i] = StreetSegment{
			ID:        int64(i),
			RoadClass: roadClass,
			Tags:      osm.Tags{{Key: TAG_HIGHWAY, Value: roadClass}},
			Geom:      mustLine(t, s),
		}
	}
	return segments
}

func unitSquare(t *testing.T) []StreetSegment {
	return streetsFromWKT(t, "residential",
		"LINESTRING(0 0,1 0)",
		"LINESTRING(1 0,1 1)",
		"LINESTRING(1 1,0 1)",
		"LINESTRING(0 1,0 0)",
	)
}

func TestCleanUnitSquare(t *testing.T) {
	net, err := CleanNetwork(context.Background(), unitSquare(t), DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(net.Segments) != 4 {
		t.Errorf("Number of cleaned segments should be %d, but got %d", 4, len(net.Segments))
	}
	for i, segment := range net.Segments {
		if segment.ID != int64(i) {
			t.Errorf("Segment #%d should have ID %d, but got %d", i, i, segment.ID)
		}
		if segment.Width != 8 {
			t.Errorf("Width of residential segment should be %f, but got %f", 8.0, segment.Width)
		}
	}
}

func TestSplitDiagonals(t *testing.T) {
	lines := []orb.LineString{
		mustLine(t, "LINESTRING(0 0,2 2)"),
		mustLine(t, "LINESTRING(0 2,2 0)"),
	}
	pieces := splitAtIntersections(lines)
	total := 0
	for _, p := range pieces {
		total += len(p)
	}
	if total != 4 {
		t.Errorf("Number of pieces should be %d, but got %d", 4, total)
	}
	center := orb.Point{1, 1}
	for i, p := range pieces {
		for _, piece := range p {
			if !piece[0].Equal(center) && !piece[len(piece)-1].Equal(center) {
				t.Errorf("Every piece of line #%d should end at %v, but got %s", i, center, wkt.MarshalString(piece))
			}
		}
	}
}

func TestSplitSharedEndpointsIdentical(t *testing.T) {
	lines := []orb.LineString{
		mustLine(t, "LINESTRING(0 0,3 0)"),
		mustLine(t, "LINESTRING(1 -1,1 1)"),
		mustLine(t, "LINESTRING(0.1 0.3,2.9 -0.2)"),
	}
	pieces := splitAtIntersections(lines)
	ends := map[orb.Point]int{}
	for _, p := range pieces {
		for _, piece := range p {
			ends[piece[0]]++
			ends[piece[len(piece)-1]]++
		}
	}
	shared := 0
	for _, count := range ends {
		if count >= 2 {
			shared++
		}
	}
	// three pairwise intersections, every one is shared by four piece ends
	if shared != 3 {
		t.Errorf("Number of shared endpoints should be %d, but got %d", 3, shared)
	}
}

func TestPruneDeadEnds(t *testing.T) {
	segments := append(unitSquare(t), streetsFromWKT(t, "residential",
		"LINESTRING(1 0,2 0)",
		"LINESTRING(2 0,3 0)",
	)...)
	cfg := DefaultConfig()
	net, err := CleanNetwork(context.Background(), segments, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(net.Segments) != 4 {
		t.Errorf("Number of cleaned segments should be %d, but got %d", 4, len(net.Segments))
	}
	if len(net.PruneRounds) > cfg.DeadEndIterations {
		t.Errorf("Number of rounds should not exceed %d, but got %d", cfg.DeadEndIterations, len(net.PruneRounds))
	}
	prev := len(segments)
	for i, count := range net.PruneRounds {
		if count > prev {
			t.Errorf("Round #%d should not increase segments count: %d -> %d", i, prev, count)
		}
		prev = count
	}
	correctRounds := []int{5, 4, 4}
	if len(net.PruneRounds) != len(correctRounds) {
		t.Errorf("Rounds should be %v, but got %v", correctRounds, net.PruneRounds)
		return
	}
	for i := range correctRounds {
		if net.PruneRounds[i] != correctRounds[i] {
			t.Errorf("Rounds should be %v, but got %v", correctRounds, net.PruneRounds)
			break
		}
	}
}

func TestPruneRoundBudget(t *testing.T) {
	segments := append(unitSquare(t), streetsFromWKT(t, "residential",
		"LINESTRING(1 0,2 0)",
		"LINESTRING(2 0,3 0)",
	)...)
	cfg := DefaultConfig()
	cfg.DeadEndIterations = 1
	net, err := CleanNetwork(context.Background(), segments, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(net.PruneRounds) != 1 {
		t.Errorf("Number of rounds should be %d, but got %d", 1, len(net.PruneRounds))
	}
	if len(net.Segments) != 5 {
		t.Errorf("Number of cleaned segments should be %d, but got %d", 5, len(net.Segments))
	}
}

func TestCleanFilters(t *testing.T) {
	narrow := 0.3
	segments := unitSquare(t)
	segments = append(segments,
		StreetSegment{ID: 10, RoadClass: "footway", Tags: osm.Tags{{Key: TAG_HIGHWAY, Value: "footway"}, {Key: TAG_FOOTWAY, Value: "sidewalk"}}, Geom: mustLine(t, "LINESTRING(0 -1,1 -1)")},
		StreetSegment{ID: 11, RoadClass: "footway", Tags: osm.Tags{{Key: TAG_HIGHWAY, Value: "footway"}, {Key: TAG_FOOTWAY, Value: "crossing"}}, Geom: mustLine(t, "LINESTRING(0.5 -1,0.5 0)")},
		StreetSegment{ID: 12, RoadClass: "steps", Tags: osm.Tags{{Key: TAG_HIGHWAY, Value: "steps"}}, Geom: mustLine(t, "LINESTRING(0.5 0.5,0.7 0.7)")},
		StreetSegment{ID: 13, RoadClass: "residential", DeclaredWidth: &narrow, Tags: osm.Tags{{Key: TAG_HIGHWAY, Value: "residential"}}, Geom: mustLine(t, "LINESTRING(0 0,1 1)")},
	)
	net, err := CleanNetwork(context.Background(), segments, DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(net.Segments) != 4 {
		t.Errorf("Number of cleaned segments should be %d, but got %d", 4, len(net.Segments))
	}
	if len(net.ExistingSidewalks) != 1 {
		t.Errorf("Number of existing sidewalks should be %d, but got %d", 1, len(net.ExistingSidewalks))
	}
	if len(net.ExistingCrossings) != 1 {
		t.Errorf("Number of existing crossings should be %d, but got %d", 1, len(net.ExistingCrossings))
	}
	if net.Discarded != 2 {
		t.Errorf("Number of discarded segments should be %d, but got %d", 2, net.Discarded)
	}
	for _, segment := range net.Segments {
		if segment.Width < DefaultConfig().MinSegmentWidth {
			t.Errorf("Segment %d has width %f below minimum", segment.ID, segment.Width)
		}
	}
}

func TestCleanEmpty(t *testing.T) {
	segments := streetsFromWKT(t, "footway", "LINESTRING(0 0,1 0)")
	net, err := CleanNetwork(context.Background(), segments, DefaultConfig(), false)
	if !errors.Is(err, ErrEmptyNetwork) {
		t.Errorf("Error should be '%v', but got '%v'", ErrEmptyNetwork, err)
	}
	if net == nil || !net.Empty() {
		t.Errorf("Empty network should be returned along with error")
	}
}

func TestCleanInvalidGeometry(t *testing.T) {
	segments := []StreetSegment{{ID: 7, RoadClass: "residential", Geom: orb.LineString{{0, 0}}}}
	_, err := CleanNetwork(context.Background(), segments, DefaultConfig(), false)
	var geomErr *InvalidGeometryError
	if !errors.As(err, &geomErr) {
		t.Errorf("Error should be InvalidGeometryError, but got '%v'", err)
		return
	}
	if geomErr.FeatureID != 7 {
		t.Errorf("Feature ID should be %d, but got %d", 7, geomErr.FeatureID)
	}
}

func TestCleanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	net, err := CleanNetwork(ctx, unitSquare(t), DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if !net.Cancelled {
		t.Errorf("Network should be marked as cancelled")
	}
}
