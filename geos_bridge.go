package osm2sidewalks

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"
)

// Quadrant segments used for round buffers
const quadSegs = 8

// guardGeos runs fn and converts panics raised by the geometry engine into PolygonizationError
func guardGeos(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &PolygonizationError{Op: op, Cause: cause}
		}
	}()
	fn()
	return nil
}

func lineCoords(line orb.LineString) [][]float64 {
	coords := make([][]float64, len(line))
	for i, pt := range line {
		coords[i] = []float64{pt[0], pt[1]}
	}
	return coords
}

func coordsLine(coords [][]float64) orb.LineString {
	line := make(orb.LineString, len(coords))
	for i, c := range coords {
		line[i] = orb.Point{c[0], c[1]}
	}
	return line
}

func geosLine(ctx *geos.Context, line orb.LineString) *geos.Geom {
	return ctx.NewLineString(lineCoords(line))
}

func geosPolygon(ctx *geos.Context, poly orb.Polygon) *geos.Geom {
	rings := make([][][]float64, len(poly))
	for i, ring := range poly {
		rings[i] = lineCoords(orb.LineString(ring))
	}
	return ctx.NewPolygon(rings)
}

func geosLines(ctx *geos.Context, lines []orb.LineString) *geos.Geom {
	geoms := make([]*geos.Geom, len(lines))
	for i, line := range lines {
		geoms[i] = geosLine(ctx, line)
	}
	return ctx.NewCollection(geos.TypeIDMultiLineString, geoms)
}

// unionAll dissolves geometries into single one
func unionAll(ctx *geos.Context, geoms []*geos.Geom) *geos.Geom {
	return ctx.NewCollection(geos.TypeIDGeometryCollection, geoms).UnaryUnion()
}

// orbPolygons flattens (multi)polygons and collections into slice of orb polygons
func orbPolygons(g *geos.Geom) []orb.Polygon {
	if g == nil || g.IsEmpty() {
		return nil
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		poly := orb.Polygon{orb.Ring(coordsLine(g.ExteriorRing().CoordSeq().ToCoords()))}
		for i := 0; i < g.NumInteriorRings(); i++ {
			poly = append(poly, orb.Ring(coordsLine(g.InteriorRing(i).CoordSeq().ToCoords())))
		}
		return []orb.Polygon{poly}
	case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		result := []orb.Polygon{}
		for i := 0; i < g.NumGeometries(); i++ {
			result = append(result, orbPolygons(g.Geometry(i))...)
		}
		return result
	default:
		return nil
	}
}

// orbLines flattens linear geometries and collections into slice of orb lines
func orbLines(g *geos.Geom) []orb.LineString {
	if g == nil || g.IsEmpty() {
		return nil
	}
	switch g.TypeID() {
	case geos.TypeIDLineString, geos.TypeIDLinearRing:
		line := coordsLine(g.CoordSeq().ToCoords())
		if len(line) < 2 {
			return nil
		}
		return []orb.LineString{line}
	case geos.TypeIDMultiLineString, geos.TypeIDGeometryCollection:
		result := []orb.LineString{}
		for i := 0; i < g.NumGeometries(); i++ {
			result = append(result, orbLines(g.Geometry(i))...)
		}
		return result
	default:
		return nil
	}
}
