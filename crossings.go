package osm2sidewalks

import (
	"context"
	"time"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// CrossingOrigin tells which stage produced crossing
type CrossingOrigin uint16

const (
	CROSSING_INTERSECTION = CrossingOrigin(iota + 1)
	CROSSING_INFERRED
)

func (iotaIdx CrossingOrigin) String() string {
	return [...]string{"intersection", "inferred"}[iotaIdx-1]
}

// Minimal degree of the endpoint to be treated as intersection
const minIntersectionDegree = 3

// Crossing is 5-point line spanning the road: anchor, kerb, center, kerb, anchor
type Crossing struct {
	ID             int64
	Geom           orb.LineString
	RoadWidth      float64
	Length         float64
	ExpectedLength float64
	// Cleaned segment the crossing spans (-1 for inferred crossings)
	SegmentID int64
	Origin    CrossingOrigin
}

// CrossingSet is output of CrossingSynthesizer
type CrossingSet struct {
	Crossings []Crossing
	Kerbs     []Kerb
	// Arms where less than two opposite anchors were found
	Unanchored int
	// Crossings filtered out by length tolerance
	Rejected  int
	Cancelled bool
}

// Geoms returns crossing geometries
func (set *CrossingSet) Geoms() []orb.LineString {
	lines := make([]orb.LineString, len(set.Crossings))
	for i := range set.Crossings {
		lines[i] = set.Crossings[i].Geom
	}
	return lines
}

// accept stores crossing and its kerbs. Zero-length crossings are dropped
func (set *CrossingSet) accept(crossing Crossing, kerbPercent float64) bool {
	crossing.ID = int64(len(set.Crossings))
	kerbs, err := PlaceKerbs(crossing, kerbPercent)
	if err != nil {
		return false
	}
	set.Crossings = append(set.Crossings, crossing)
	set.Kerbs = append(set.Kerbs, kerbs...)
	return true
}

// SynthesizeCrossings casts rays at every intersection arm perpendicular to the road and spans
// the nearest sidewalks found on both sides.
func SynthesizeCrossings(ctx context.Context, net *CleanedNetwork, sidewalks *SidewalkSet, cfg *Config, verbose bool) (*CrossingSet, error) {
	if verbose {
		Logf("Synthesizing crossings...")
	}
	st := time.Now()
	set := &CrossingSet{}
	if net.Empty() || len(sidewalks.Lines) == 0 {
		return set, nil
	}
	degrees := endpointDegrees(net.Lines(), nil)
	idx := newEdgeIndex(sidewalks.Geoms())
	for _, segment := range net.Segments {
		select {
		case <-ctx.Done():
			set.Cancelled = true
			return set, nil
		default:
		}
		line := segment.Geom
		if planar.Length(line) < cfg.MinRoadSegmentLength {
			continue
		}
		width, ok := sidewalks.Widths[segment.ID]
		if !ok {
			width = segment.Width
		}
		for _, arm := range roadArms(line, cfg.CrossingInwardDistance) {
			if degrees[arm.end] < minIntersectionDegree {
				continue
			}
			a, b, ok := castAcross(idx, arm, width, cfg)
			if !ok {
				set.Unanchored++
				continue
			}
			crossing := newCrossing(a, b, width, cfg)
			crossing.SegmentID = segment.ID
			crossing.Origin = CROSSING_INTERSECTION
			if !cfg.withinTolerance(crossing) {
				set.Rejected++
				continue
			}
			set.accept(crossing, cfg.KerbPercent)
		}
	}
	if verbose {
		Logf("Done in %v\n\tCrossings: %d, kerbs: %d (rejected: %d, unanchored: %d)\n", time.Since(st), len(set.Crossings), len(set.Kerbs), set.Rejected, set.Unanchored)
	}
	return set, nil
}

// roadArm is one end of road segment: last edge (prev -> end) and ray origin on the road
type roadArm struct {
	prev   orb.Point
	end    orb.Point
	origin orb.Point
}

// roadArms returns start and end arms of line. Origins are placed inward distance back from
// the end along the line itself, clamped to the opposite end for short lines.
func roadArms(line orb.LineString, inward float64) [2]roadArm {
	n := len(line)
	length := planar.Length(line)
	return [2]roadArm{
		{prev: line[1], end: line[0], origin: pointAlong(line, min(inward, length))},
		{prev: line[n-2], end: line[n-1], origin: pointAlong(line, max(length-inward, 0))},
	}
}

// castAcross casts a ray from arm origin perpendicular to the last road edge
func castAcross(idx *edgeIndex, arm roadArm, width float64, cfg *Config) (orb.Point, orb.Point, bool) {
	tangent := unit(arm.prev, arm.end)
	if tangent == (r2.Point{}) {
		return orb.Point{}, orb.Point{}, false
	}
	return pickAnchors(arm.origin, idx.castRay(arm.origin, tangent.Ortho(), cfg.rayReach(width)))
}

// pickAnchors takes the nearest hit and the nearest hit lying on the opposite side of origin
func pickAnchors(origin orb.Point, hits []rayHit) (orb.Point, orb.Point, bool) {
	if len(hits) < 2 {
		return orb.Point{}, orb.Point{}, false
	}
	first := toVec(hits[0].point).Sub(toVec(origin))
	for _, hit := range hits[1:] {
		if toVec(hit.point).Sub(toVec(origin)).Dot(first) < 0 {
			return hits[0].point, hit.point, true
		}
	}
	return orb.Point{}, orb.Point{}, false
}

// newCrossing builds 5-point crossing between two anchors
func newCrossing(a, b orb.Point, roadWidth float64, cfg *Config) Crossing {
	p := cfg.KerbPercent / 100.0
	av, bv := toVec(a), toVec(b)
	at := func(f float64) orb.Point {
		return fromVec(av.Add(bv.Sub(av).Mul(f)))
	}
	return Crossing{
		Geom:           orb.LineString{a, at(p), at(0.5), at(1 - p), b},
		RoadWidth:      roadWidth,
		Length:         distance(a, b),
		ExpectedLength: cfg.expectedCrossingLength(roadWidth),
		SegmentID:      -1,
	}
}

// withinTolerance reports whether crossing is not longer than expected length plus tolerance
func (cfg *Config) withinTolerance(crossing Crossing) bool {
	return crossing.Length <= crossing.ExpectedLength*(1.0+cfg.CrossingLengthTolerancePercent/100.0)
}

// rayReach is half-length of cast segment: far beyond any plausible crossing
func (cfg *Config) rayReach(width float64) float64 {
	return 10.0 * (width + cfg.SidewalkMargin)
}
