package osm2sidewalks

import (
	"github.com/LdDl/ch"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"github.com/pkg/errors"
)

// vertexPoint is graph vertex stored in the quadtree
type vertexPoint struct {
	id int64
	pt orb.Point
}

func (v vertexPoint) Point() orb.Point {
	return v.pt
}

// PedestrianGraph is contraction hierarchies graph over sidewalk pieces and crossings.
// Vertices are exact end coordinates, so it is connected only where topology is shared.
type PedestrianGraph struct {
	graph    ch.Graph
	vertices map[orb.Point]int64
	points   []orb.Point
	qt       *quadtree.Quadtree
}

// NewPedestrianGraph builds and contracts graph. Every line becomes undirected edge between
// its ends weighted by its length.
func NewPedestrianGraph(sidewalks []SidewalkLine, crossings []Crossing) (*PedestrianGraph, error) {
	pg := &PedestrianGraph{
		graph:    ch.Graph{},
		vertices: make(map[orb.Point]int64),
	}
	lines := make([]orb.LineString, 0, len(sidewalks)+len(crossings))
	for _, sidewalk := range sidewalks {
		lines = append(lines, sidewalk.Geom)
	}
	for _, crossing := range crossings {
		lines = append(lines, crossing.Geom)
	}
	if len(lines) == 0 {
		return pg, nil
	}
	bound := lines[0].Bound()
	for _, line := range lines {
		bound = bound.Union(line.Bound())
		source, err := pg.vertex(line[0])
		if err != nil {
			return nil, err
		}
		target, err := pg.vertex(line[len(line)-1])
		if err != nil {
			return nil, err
		}
		if source == target {
			continue
		}
		cost := planar.Length(line)
		err = pg.graph.AddEdge(source, target, cost)
		if err != nil {
			return nil, errors.Wrap(err, "Can't wrap source and target vertices as edge")
		}
		err = pg.graph.AddEdge(target, source, cost)
		if err != nil {
			return nil, errors.Wrap(err, "Can't wrap target and source vertices as edge")
		}
	}
	pg.qt = quadtree.New(bound.Pad(1))
	for id, pt := range pg.points {
		// Every vertex is inside the bound by construction
		_ = pg.qt.Add(vertexPoint{id: int64(id), pt: pt})
	}
	pg.graph.PrepareContractionHierarchies()
	return pg, nil
}

func (pg *PedestrianGraph) vertex(pt orb.Point) (int64, error) {
	if id, ok := pg.vertices[pt]; ok {
		return id, nil
	}
	id := int64(len(pg.points))
	if err := pg.graph.CreateVertex(id); err != nil {
		return -1, errors.Wrap(err, "Can't create vertex")
	}
	pg.vertices[pt] = id
	pg.points = append(pg.points, pt)
	return id, nil
}

// NumVertices returns number of distinct line ends
func (pg *PedestrianGraph) NumVertices() int {
	return len(pg.points)
}

// Nearest returns vertex closest to given point
func (pg *PedestrianGraph) Nearest(pt orb.Point) (int64, orb.Point, bool) {
	if pg.qt == nil {
		return -1, orb.Point{}, false
	}
	found := pg.qt.Find(pt)
	if found == nil {
		return -1, orb.Point{}, false
	}
	v := found.(vertexPoint)
	return v.id, v.pt, true
}

// Route returns network distance and vertex path between vertices nearest to given points.
// ok is false when points are not connected.
func (pg *PedestrianGraph) Route(from, to orb.Point) (float64, []orb.Point, bool) {
	source, _, ok := pg.Nearest(from)
	if !ok {
		return -1, nil, false
	}
	target, _, ok := pg.Nearest(to)
	if !ok {
		return -1, nil, false
	}
	cost, path := pg.graph.ShortestPath(source, target)
	if cost < 0 || len(path) == 0 {
		return -1, nil, false
	}
	pts := make([]orb.Point, len(path))
	for i, id := range path {
		pts[i] = pg.points[id]
	}
	return cost, pts, true
}
