package osm2sidewalks

import (
	"context"
	"time"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"
)

// RejectReason tells why shared protoblock edge did not get crossing
type RejectReason uint16

const (
	REJECT_MID_BLOCK = RejectReason(iota + 1)
	REJECT_EXISTING_CROSSING
	REJECT_CONTAINMENT
	REJECT_ZERO_LENGTH
)

func (iotaIdx RejectReason) String() string {
	return [...]string{"mid_block", "existing_crossing", "containment", "zero_length"}[iotaIdx-1]
}

// Distance under which point is treated as lying on protoblock boundary
const touchTolerance = 1e-6

// SharedEdge is maximal polyline along which two protoblocks touch
type SharedEdge struct {
	BlockA int64
	BlockB int64
	Geom   orb.LineString
}

// InferenceResult is output of MissingCrossingInference
type InferenceResult struct {
	CrossingSet
	// Shared edges long enough to be considered
	Candidates []SharedEdge
	// Sides where no sidewalk was found and nominal offset was used
	Fallbacks  int
	Rejections map[RejectReason]int
}

// InferMissingCrossings looks for adjacent protoblocks which already carry sidewalks (covered
// ones) and places crossing over their shared edge when no crossing is mapped there yet.
// Intersection multiplicity is counted over every protoblock of the set.
func InferMissingCrossings(ctx context.Context, set *ProtoblockSet, sidewalks []orb.LineString, existingCrossings []orb.LineString, cfg *Config, verbose bool) (*InferenceResult, error) {
	if verbose {
		Logf("Inferring missing crossings...")
	}
	st := time.Now()
	result := &InferenceResult{Rejections: make(map[RejectReason]int)}
	blocks := set.Covered
	if len(blocks) < 2 {
		return result, nil
	}
	gctx := geos.NewContext()

	var blockIdx boundIndex
	for i := range blocks {
		blockIdx.insert(blocks[i].Geom.Bound(), i)
	}
	all := set.All()
	var allIdx boundIndex
	for i := range all {
		allIdx.insert(all[i].Geom.Bound(), i)
	}
	edges, cancelled, err := sharedEdges(ctx, gctx, blocks, &blockIdx, cfg.MinSharedEdgeLength)
	if err != nil {
		return nil, err
	}
	result.Candidates = edges
	if cancelled {
		result.Cancelled = true
		return result, nil
	}

	var sidewalkIdx *edgeIndex
	if len(sidewalks) > 0 {
		sidewalkIdx = newEdgeIndex(sidewalks)
	}
	var crossingIdx boundIndex
	for i, crossing := range existingCrossings {
		crossingIdx.insert(crossing.Bound(), i)
	}
	byID := make(map[int64]int, len(blocks))
	for i := range blocks {
		byID[blocks[i].ID] = i
	}

	for _, edge := range edges {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			return result, nil
		default:
		}
		line := edge.Geom
		m0 := blocksTouching(all, &allIdx, line[0])
		m1 := blocksTouching(all, &allIdx, line[len(line)-1])
		if m0 < cfg.MinProtoblocksAtNode || m1 < cfg.MinProtoblocksAtNode {
			result.Rejections[REJECT_MID_BLOCK]++
			continue
		}
		near, err := crossingNearby(gctx, line, existingCrossings, &crossingIdx, cfg.ExistingCrossingDistance)
		if err != nil {
			return nil, err
		}
		if near {
			result.Rejections[REJECT_EXISTING_CROSSING]++
			continue
		}

		length := planar.Length(line)
		along := length / 2.0
		switch {
		case m0 > m1:
			along = min(cfg.CrossingInwardDistance, length)
		case m1 > m0:
			along = max(length-cfg.CrossingInwardDistance, 0)
		}
		origin := pointAlong(line, along)
		normal := tangentAt(line, along).Ortho()
		half := cfg.expectedCrossingLength(cfg.FallbackWidth) / 2.0
		var hits []rayHit
		if sidewalkIdx != nil {
			hits = sidewalkIdx.castRay(origin, normal, cfg.rayReach(cfg.FallbackWidth))
		}
		a, b, fallbacks := anchorsBothSides(origin, normal, hits, half)
		result.Fallbacks += fallbacks

		blockA, blockB := blocks[byID[edge.BlockA]].Geom, blocks[byID[edge.BlockB]].Geom
		tol := cfg.ProtoblockContainmentTolerance
		opposite := (insideWithin(blockA, a, tol) && insideWithin(blockB, b, tol)) ||
			(insideWithin(blockB, a, tol) && insideWithin(blockA, b, tol))
		if !opposite {
			result.Rejections[REJECT_CONTAINMENT]++
			continue
		}
		crossing := newCrossing(a, b, cfg.FallbackWidth, cfg)
		crossing.Origin = CROSSING_INFERRED
		if !result.accept(crossing, cfg.KerbPercent) {
			result.Rejections[REJECT_ZERO_LENGTH]++
		}
	}
	if verbose {
		Logf("Done in %v\n\tShared edges: %d, inferred crossings: %d, rejections: %v\n", time.Since(st), len(edges), len(result.Crossings), result.Rejections)
	}
	return result, nil
}

// sharedEdges finds boundaries of ordered block pairs (i < j), merged into maximal polylines.
// Edges found before context cancellation are returned along with cancelled flag
// and filtered by minimal length
func sharedEdges(ctx context.Context, gctx *geos.Context, blocks []Protoblock, idx *boundIndex, minLength float64) ([]SharedEdge, bool, error) {
	rings := make([]*geos.Geom, len(blocks))
	edges := []SharedEdge{}
	cancelled := false
	err := guardGeos("shared protoblock edges", func() {
		for i := range blocks {
			rings[i] = geosLine(gctx, orb.LineString(blocks[i].Geom[0]))
		}
		for i := range blocks {
			select {
			case <-ctx.Done():
				cancelled = true
				return
			default:
			}
			for _, j := range idx.query(blocks[i].Geom.Bound()) {
				if j <= i {
					continue
				}
				common := orbLines(rings[i].Intersection(rings[j]))
				if len(common) == 0 {
					continue
				}
				for _, merged := range orbLines(geosLines(gctx, common).LineMerge()) {
					if planar.Length(merged) < minLength {
						continue
					}
					edges = append(edges, SharedEdge{BlockA: blocks[i].ID, BlockB: blocks[j].ID, Geom: merged})
				}
			}
		}
	})
	return edges, cancelled, err
}

// blocksTouching counts distinct blocks whose exterior passes through pt
func blocksTouching(blocks []Protoblock, idx *boundIndex, pt orb.Point) int {
	count := 0
	for _, i := range idx.query(orb.Bound{Min: pt, Max: pt}.Pad(touchTolerance)) {
		if _, _, dist := projectOnLine(orb.LineString(blocks[i].Geom[0]), pt); dist <= touchTolerance {
			count++
		}
	}
	return count
}

func crossingNearby(gctx *geos.Context, edge orb.LineString, crossings []orb.LineString, idx *boundIndex, maxDist float64) (bool, error) {
	candidates := idx.query(edge.Bound().Pad(maxDist))
	if len(candidates) == 0 {
		return false, nil
	}
	near := false
	err := guardGeos("existing crossing lookup", func() {
		g := geosLine(gctx, edge)
		for _, c := range candidates {
			if g.Distance(geosLine(gctx, crossings[c])) <= maxDist {
				near = true
				return
			}
		}
	})
	return near, err
}

// anchorsBothSides returns nearest hit on the positive and on the negative side of normal.
// Missing side is replaced by point at nominal offset; number of replacements is returned.
func anchorsBothSides(origin orb.Point, normal r2.Point, hits []rayHit, half float64) (orb.Point, orb.Point, int) {
	var pos, neg *orb.Point
	for i := range hits {
		side := toVec(hits[i].point).Sub(toVec(origin)).Dot(normal)
		if side > 0 && pos == nil {
			pos = &hits[i].point
		}
		if side < 0 && neg == nil {
			neg = &hits[i].point
		}
	}
	fallbacks := 0
	if pos == nil {
		pt := fromVec(toVec(origin).Add(normal.Mul(half)))
		pos = &pt
		fallbacks++
	}
	if neg == nil {
		pt := fromVec(toVec(origin).Sub(normal.Mul(half)))
		neg = &pt
		fallbacks++
	}
	return *pos, *neg, fallbacks
}

// tangentAt returns unit direction of the line edge containing given distance along it
func tangentAt(line orb.LineString, along float64) r2.Point {
	cl := 0.0
	for i := 1; i < len(line); i++ {
		segLen := distance(line[i-1], line[i])
		if segLen > 0 && cl+segLen >= along {
			return unit(line[i-1], line[i])
		}
		cl += segLen
	}
	return unit(line[len(line)-2], line[len(line)-1])
}

// insideWithin reports whether pt lies inside polygon or not farther than tol from its exterior
func insideWithin(poly orb.Polygon, pt orb.Point, tol float64) bool {
	if planar.PolygonContains(poly, pt) {
		return true
	}
	_, _, dist := projectOnLine(orb.LineString(poly[0]), pt)
	return dist <= tol
}
