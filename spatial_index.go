package osm2sidewalks

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

// edgeRef identifies single straight edge: line index and index of edge's first vertex
type edgeRef struct {
	line int
	edge int
}

// edgeIndex is R-tree over every straight edge of a set of lines
type edgeIndex struct {
	tree  rtree.RTreeG[edgeRef]
	lines []orb.LineString
}

func newEdgeIndex(lines []orb.LineString) *edgeIndex {
	idx := &edgeIndex{lines: lines}
	for i, line := range lines {
		for k := 0; k < len(line)-1; k++ {
			b := segmentBound(line[k], line[k+1])
			idx.tree.Insert(b.Min, b.Max, edgeRef{line: i, edge: k})
		}
	}
	return idx
}

func (idx *edgeIndex) segment(ref edgeRef) (orb.Point, orb.Point) {
	line := idx.lines[ref.line]
	return line[ref.edge], line[ref.edge+1]
}

// search calls iter for every edge whose bounding box intersects given bound
func (idx *edgeIndex) search(b orb.Bound, iter func(ref edgeRef) bool) {
	idx.tree.Search(b.Min, b.Max, func(min, max [2]float64, ref edgeRef) bool {
		return iter(ref)
	})
}

// rayHit is intersection of cast segment with indexed edge
type rayHit struct {
	point orb.Point
	dist  float64 // from ray origin
	ref   edgeRef
}

// castRay intersects segment origin-dir*reach .. origin+dir*reach with indexed edges.
// Hits are ordered by distance from origin; duplicates (ray through shared vertex) are dropped.
func (idx *edgeIndex) castRay(origin orb.Point, dir r2.Point, reach float64) []rayHit {
	from := fromVec(toVec(origin).Sub(dir.Mul(reach)))
	to := fromVec(toVec(origin).Add(dir.Mul(reach)))
	hits := []rayHit{}
	idx.search(segmentBound(from, to), func(ref edgeRef) bool {
		p, q := idx.segment(ref)
		pt, _, _, ok := segmentIntersection(from, to, p, q)
		if !ok {
			return true
		}
		hits = append(hits, rayHit{point: pt, dist: distance(origin, pt), ref: ref})
		return true
	})
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		if hits[i].ref.line != hits[j].ref.line {
			return hits[i].ref.line < hits[j].ref.line
		}
		return hits[i].ref.edge < hits[j].ref.edge
	})
	unique := hits[:0]
	for _, hit := range hits {
		if len(unique) > 0 && distance(unique[len(unique)-1].point, hit.point) < 1e-7 {
			continue
		}
		unique = append(unique, hit)
	}
	return unique
}

// boundIndex is R-tree over bounding boxes of arbitrary items referenced by position
type boundIndex struct {
	tree rtree.RTreeG[int]
}

func (idx *boundIndex) insert(b orb.Bound, item int) {
	idx.tree.Insert(b.Min, b.Max, item)
}

// query returns items whose boxes intersect given bound, in ascending order
func (idx *boundIndex) query(b orb.Bound) []int {
	items := []int{}
	idx.tree.Search(b.Min, b.Max, func(min, max [2]float64, item int) bool {
		items = append(items, item)
		return true
	})
	sort.Ints(items)
	return items
}

func segmentBound(p, q orb.Point) orb.Bound {
	return orb.MultiPoint{p, q}.Bound()
}
