package osm2sidewalks

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

const (
	// Edge parameter tolerance for treating intersection as located at a vertex
	paramEps = 1e-9
	// Grid step used to merge numerically identical intersection points
	snapGrid = 1e-6
)

// CleanedNetwork is output of NetworkCleaner
type CleanedNetwork struct {
	Segments []CleanedSegment
	// Already mapped pedestrian ways held aside from processing
	ExistingSidewalks []StreetSegment
	ExistingCrossings []StreetSegment
	// Number of alive segments after each dead-end pruning round
	PruneRounds []int
	Discarded   int
	Cancelled   bool
}

// Empty reports whether no usable street segment is left
func (net *CleanedNetwork) Empty() bool {
	return len(net.Segments) == 0
}

// Lines returns geometries of cleaned segments
func (net *CleanedNetwork) Lines() []orb.LineString {
	lines := make([]orb.LineString, len(net.Segments))
	for i := range net.Segments {
		lines[i] = net.Segments[i].Geom
	}
	return lines
}

// ExistingSidewalkLines returns geometries of already mapped sidewalks
func (net *CleanedNetwork) ExistingSidewalkLines() []orb.LineString {
	lines := make([]orb.LineString, len(net.ExistingSidewalks))
	for i := range net.ExistingSidewalks {
		lines[i] = net.ExistingSidewalks[i].Geom
	}
	return lines
}

// CleanNetwork resolves widths, filters non-road features, splits segments at mutual
// intersections and prunes dead ends.
//
// If nothing is left ErrEmptyNetwork is returned along with the (empty) network.
func CleanNetwork(ctx context.Context, segments []StreetSegment, cfg *Config, verbose bool) (*CleanedNetwork, error) {
	if verbose {
		Logf("Cleaning street network...")
	}
	st := time.Now()

	net := &CleanedNetwork{}
	kept := make([]CleanedSegment, 0, len(segments))
	for _, segment := range segments {
		if err := validateLine(segment.ID, segment.Geom); err != nil {
			return nil, err
		}
		if isExistingSidewalk(segment.Tags) {
			net.ExistingSidewalks = append(net.ExistingSidewalks, segment)
			continue
		}
		if isExistingCrossing(segment.Tags) {
			net.ExistingCrossings = append(net.ExistingCrossings, segment)
			continue
		}
		if isPedestrianHighway(segment.RoadClass) {
			net.Discarded++
			continue
		}
		width := cfg.widthFor(segment.RoadClass, segment.DeclaredWidth)
		if width < cfg.MinSegmentWidth {
			net.Discarded++
			continue
		}
		kept = append(kept, CleanedSegment{
			SourceID:  segment.ID,
			RoadClass: segment.RoadClass,
			Width:     width,
			Presence:  ClassifySidewalk(segment.Tags),
			Geom:      segment.Geom.Clone(),
		})
	}

	lines := make([]orb.LineString, len(kept))
	for i := range kept {
		lines[i] = kept[i].Geom
	}
	pieces := splitAtIntersections(lines)
	split := make([]CleanedSegment, 0, len(kept))
	for i, parts := range pieces {
		for _, part := range parts {
			segment := kept[i]
			segment.Geom = part
			split = append(split, segment)
		}
	}

	splitLines := make([]orb.LineString, len(split))
	for i := range split {
		splitLines[i] = split[i].Geom
	}
	alive, rounds, cancelled := pruneDeadEnds(ctx, splitLines, cfg.DeadEndIterations)
	net.PruneRounds = rounds
	net.Cancelled = cancelled
	for i, segment := range split {
		if !alive[i] {
			continue
		}
		segment.ID = int64(len(net.Segments))
		net.Segments = append(net.Segments, segment)
	}

	if verbose {
		Logf("Done in %v\n\tSegments: %d (discarded: %d, existing sidewalks: %d, existing crossings: %d, pruning rounds: %d)\n",
			time.Since(st), len(net.Segments), net.Discarded, len(net.ExistingSidewalks), len(net.ExistingCrossings), len(rounds))
	}
	if net.Empty() {
		return net, ErrEmptyNetwork
	}
	return net, nil
}

// cutPoint is location on line where it should be split
type cutPoint struct {
	edge  int
	t     float64
	point orb.Point
}

// splitAtIntersections splits every line at its intersections with other lines.
// Returns pieces for every input line in the same order.
// Pieces of different lines meeting at intersection share bitwise identical endpoint.
func splitAtIntersections(lines []orb.LineString) [][]orb.LineString {
	idx := newEdgeIndex(lines)
	cuts := make([][]cutPoint, len(lines))
	canonical := make(map[[2]int64]orb.Point)
	canonize := func(pt orb.Point) orb.Point {
		key := [2]int64{int64(math.Round(pt[0] / snapGrid)), int64(math.Round(pt[1] / snapGrid))}
		if found, ok := canonical[key]; ok {
			return found
		}
		canonical[key] = pt
		return pt
	}

	for i, line := range lines {
		for k := 0; k < len(line)-1; k++ {
			p1, p2 := line[k], line[k+1]
			idx.search(segmentBound(p1, p2), func(ref edgeRef) bool {
				if ref.line <= i {
					return true
				}
				p3, p4 := idx.segment(ref)
				pt, t, u, ok := segmentIntersection(p1, p2, p3, p4)
				if !ok {
					return true
				}
				switch {
				case t <= paramEps:
					pt = p1
				case t >= 1-paramEps:
					pt = p2
				case u <= paramEps:
					pt = p3
				case u >= 1-paramEps:
					pt = p4
				}
				pt = canonize(pt)
				cuts[i] = append(cuts[i], cutPoint{edge: k, t: t, point: pt})
				cuts[ref.line] = append(cuts[ref.line], cutPoint{edge: ref.edge, t: u, point: pt})
				return true
			})
		}
	}

	result := make([][]orb.LineString, len(lines))
	for i, line := range lines {
		if len(cuts[i]) == 0 {
			result[i] = []orb.LineString{line}
			continue
		}
		result[i] = applyCuts(line, cuts[i])
	}
	return result
}

// applyCuts splits line at given cut points
func applyCuts(line orb.LineString, cuts []cutPoint) []orb.LineString {
	verts := line.Clone()
	isCut := make([]bool, len(verts))
	interior := make(map[int][]cutPoint)
	for _, c := range cuts {
		switch {
		case c.t <= paramEps:
			verts[c.edge] = c.point
			isCut[c.edge] = true
		case c.t >= 1-paramEps:
			verts[c.edge+1] = c.point
			isCut[c.edge+1] = true
		default:
			interior[c.edge] = append(interior[c.edge], c)
		}
	}

	type vertex struct {
		pt  orb.Point
		cut bool
	}
	expanded := make([]vertex, 0, len(verts)+len(cuts))
	for k := range verts {
		expanded = append(expanded, vertex{pt: verts[k], cut: isCut[k]})
		if k == len(verts)-1 {
			break
		}
		edgeCuts := interior[k]
		sort.Slice(edgeCuts, func(a, b int) bool { return edgeCuts[a].t < edgeCuts[b].t })
		prevT := -1.0
		for _, c := range edgeCuts {
			if c.t-prevT < paramEps {
				continue
			}
			prevT = c.t
			expanded = append(expanded, vertex{pt: c.point, cut: true})
		}
	}

	pieces := []orb.LineString{}
	current := orb.LineString{expanded[0].pt}
	last := len(expanded) - 1
	for i := 1; i <= last; i++ {
		v := expanded[i]
		if !v.pt.Equal(current[len(current)-1]) {
			current = append(current, v.pt)
		}
		if v.cut && i != last && len(current) >= 2 {
			pieces = append(pieces, current)
			current = orb.LineString{v.pt}
		}
	}
	if len(current) >= 2 {
		pieces = append(pieces, current)
	}
	return pieces
}

// endpointDegrees counts how many line ends touch every endpoint coordinate.
// Lines marked dead in alive (if provided) are skipped.
func endpointDegrees(lines []orb.LineString, alive []bool) map[orb.Point]int {
	degrees := make(map[orb.Point]int, len(lines)*2)
	for i, line := range lines {
		if alive != nil && !alive[i] {
			continue
		}
		degrees[line[0]]++
		degrees[line[len(line)-1]]++
	}
	return degrees
}

// pruneDeadEnds iteratively drops lines having an endpoint of degree 1.
// Returns alive flags, number of alive lines after every round and cancellation flag.
//
// Only lines touching endpoints affected by the previous round are re-checked.
func pruneDeadEnds(ctx context.Context, lines []orb.LineString, iterations int) ([]bool, []int, bool) {
	alive := make([]bool, len(lines))
	candidates := make([]int, len(lines))
	for i := range alive {
		alive[i] = true
		candidates[i] = i
	}
	// Endpoint -> ids of lines touching it
	incidence := make(map[orb.Point][]int, len(lines)*2)
	for i, line := range lines {
		incidence[line[0]] = append(incidence[line[0]], i)
		incidence[line[len(line)-1]] = append(incidence[line[len(line)-1]], i)
	}
	degrees := endpointDegrees(lines, alive)
	aliveCount := len(lines)
	rounds := []int{}
	for round := 0; round < iterations; round++ {
		select {
		case <-ctx.Done():
			return alive, rounds, true
		default:
		}
		removed := []int{}
		for _, i := range candidates {
			if !alive[i] {
				continue
			}
			line := lines[i]
			if degrees[line[0]] == 1 || degrees[line[len(line)-1]] == 1 {
				removed = append(removed, i)
			}
		}
		next := make(map[int]struct{})
		for _, i := range removed {
			alive[i] = false
			for _, end := range []orb.Point{lines[i][0], lines[i][len(lines[i])-1]} {
				degrees[end]--
				for _, j := range incidence[end] {
					if alive[j] {
						next[j] = struct{}{}
					}
				}
			}
		}
		aliveCount -= len(removed)
		rounds = append(rounds, aliveCount)
		if len(removed) == 0 {
			break
		}
		candidates = candidates[:0]
		for j := range next {
			candidates = append(candidates, j)
		}
		sort.Ints(candidates)
	}
	return alive, rounds, false
}
