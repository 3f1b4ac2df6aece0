package osm2sidewalks

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

// SplitTopology cuts sidewalks at protoblock corners and crossing anchors, optionally
// re-splits long pieces and snaps piece ends onto crossing ends so both share exact vertices.
//
// Returns new sidewalk lines and cancellation flag.
func SplitTopology(ctx context.Context, sidewalks *SidewalkSet, blocks *ProtoblockSet, crossings *CrossingSet, cfg *Config, verbose bool) ([]SidewalkLine, bool) {
	if verbose {
		Logf("Splitting sidewalks...")
	}
	st := time.Now()
	lines := sidewalks.Geoms()
	if len(lines) == 0 {
		return []SidewalkLine{}, false
	}
	idx := newEdgeIndex(lines)
	cuts := make([][]float64, len(lines))

	seen := make(map[orb.Point]struct{})
	for _, block := range blocks.Blocks {
		ring := block.Geom[0]
		for _, corner := range ring[:len(ring)-1] {
			if _, ok := seen[corner]; ok {
				continue
			}
			seen[corner] = struct{}{}
			for line, along := range idx.nearbyProjections(corner, cfg.CornerSnapTolerance) {
				cuts[line] = append(cuts[line], along)
			}
		}
	}
	ends := crossingEnds(crossings)
	for _, end := range ends {
		for line, along := range idx.nearbyProjections(end, cfg.CrossingSnapTolerance) {
			cuts[line] = append(cuts[line], along)
		}
	}

	pieces := []orb.LineString{}
	for i, line := range lines {
		select {
		case <-ctx.Done():
			return wrapSidewalks(pieces), true
		default:
		}
		for _, piece := range splitClosable(line, cuts[i]) {
			if cfg.SplitByMaxLength {
				pieces = append(pieces, splitByMaxLength(piece, cfg.MaxSplitLength)...)
			} else {
				pieces = append(pieces, piece)
			}
		}
	}
	snapEnds(pieces, ends, cfg.CrossingSnapTolerance)

	result := wrapSidewalks(pieces)
	if verbose {
		Logf("Done in %v\n\tSidewalk pieces: %d (from %d lines)\n", time.Since(st), len(result), len(lines))
	}
	return result, false
}

func wrapSidewalks(lines []orb.LineString) []SidewalkLine {
	result := make([]SidewalkLine, len(lines))
	for i, line := range lines {
		result[i] = SidewalkLine{ID: int64(i), Geom: line, Kind: SIDEWALK_KIND}
	}
	return result
}

// crossingEnds returns both outer anchors of every crossing
func crossingEnds(crossings *CrossingSet) []orb.Point {
	if crossings == nil {
		return nil
	}
	ends := make([]orb.Point, 0, 2*len(crossings.Crossings))
	for _, crossing := range crossings.Crossings {
		ends = append(ends, crossing.Geom[0], crossing.Geom[len(crossing.Geom)-1])
	}
	return ends
}

// nearbyProjections returns, for every indexed line passing within tolerance of pt,
// the distance along that line of the closest location to pt
func (idx *edgeIndex) nearbyProjections(pt orb.Point, tolerance float64) map[int]float64 {
	found := make(map[int]float64)
	box := orb.Bound{Min: pt, Max: pt}.Pad(tolerance)
	candidates := map[int]struct{}{}
	idx.search(box, func(ref edgeRef) bool {
		candidates[ref.line] = struct{}{}
		return true
	})
	for line := range candidates {
		along, _, dist := projectOnLine(idx.lines[line], pt)
		if dist <= tolerance {
			found[line] = along
		}
	}
	return found
}

// splitClosable cuts line at given distances. Closed lines are rotated so that pieces
// start and end at cut points only; a cut at the ring start needs no rotation.
func splitClosable(line orb.LineString, cuts []float64) []orb.LineString {
	total := planar.Length(line)
	closed := line[0].Equal(line[len(line)-1])
	atStart := false
	sorted := make([]float64, 0, len(cuts))
	for _, cut := range cuts {
		if closed {
			cut = math.Mod(cut, total)
			if cut < 0 {
				cut += total
			}
			if cut <= epsilon || cut >= total-epsilon {
				atStart = true
				continue
			}
		}
		sorted = append(sorted, cut)
	}
	if len(sorted) == 0 && !atStart {
		return []orb.LineString{line.Clone()}
	}
	sort.Float64s(sorted)
	pieces := splitLineAtDistances(line, sorted)
	if !closed || atStart || len(pieces) < 2 {
		return pieces
	}
	last := pieces[len(pieces)-1]
	merged := append(last.Clone(), pieces[0][1:]...)
	return append([]orb.LineString{merged}, pieces[1:len(pieces)-1]...)
}

// splitByMaxLength cuts line into ceil(length/maxLength) pieces of equal length
func splitByMaxLength(line orb.LineString, maxLength float64) []orb.LineString {
	length := planar.Length(line)
	if maxLength <= 0 || length <= maxLength {
		return []orb.LineString{line}
	}
	n := int(math.Ceil(length / maxLength))
	step := length / float64(n)
	cuts := make([]float64, n-1)
	for k := range cuts {
		cuts[k] = step * float64(k+1)
	}
	return splitLineAtDistances(line, cuts)
}

// snapEnds moves line ends lying within tolerance of a target onto the nearest target
func snapEnds(lines []orb.LineString, targets []orb.Point, tolerance float64) {
	if len(targets) == 0 || len(lines) == 0 {
		return
	}
	bound := orb.MultiPoint(targets).Bound()
	for _, line := range lines {
		bound = bound.Union(line.Bound())
	}
	qt := quadtree.New(bound.Pad(1))
	for _, target := range targets {
		// Targets are inside the bound by construction
		_ = qt.Add(target)
	}
	for _, line := range lines {
		for _, i := range []int{0, len(line) - 1} {
			nearest := qt.Find(line[i])
			if nearest == nil {
				continue
			}
			if pt := nearest.Point(); distance(pt, line[i]) <= tolerance {
				line[i] = pt
			}
		}
	}
}
