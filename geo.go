package osm2sidewalks

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// LocalFrame is planar frame centred on the data: Web Mercator shifted to the origin and
// scaled by cos(lat0), so lengths near the origin are in meters
type LocalFrame struct {
	Origin orb.Point // lon/lat
	offset orb.Point // Mercator coordinates of origin
	scale  float64
}

// NewLocalFrame returns frame centred on the given lon/lat bound
func NewLocalFrame(bound orb.Bound) *LocalFrame {
	origin := bound.Center()
	return &LocalFrame{
		Origin: origin,
		offset: project.Point(origin, project.WGS84.ToMercator),
		scale:  math.Cos(origin.Lat() * math.Pi / 180.0),
	}
}

// Forward converts lon/lat point into local frame
func (frame *LocalFrame) Forward(pt orb.Point) orb.Point {
	merc := project.Point(pt, project.WGS84.ToMercator)
	return orb.Point{
		(merc[0] - frame.offset[0]) * frame.scale,
		(merc[1] - frame.offset[1]) * frame.scale,
	}
}

// Inverse converts local point back into lon/lat
func (frame *LocalFrame) Inverse(pt orb.Point) (orb.Point, error) {
	if !finitePoint(pt) || frame.scale == 0 {
		return orb.Point{}, &ReprojectionError{X: pt[0], Y: pt[1]}
	}
	merc := orb.Point{pt[0]/frame.scale + frame.offset[0], pt[1]/frame.scale + frame.offset[1]}
	if math.Abs(merc[0]) > earthR || math.Abs(merc[1]) > earthR {
		return orb.Point{}, &ReprojectionError{X: pt[0], Y: pt[1]}
	}
	return project.Point(merc, project.Mercator.ToWGS84), nil
}

// Mercator half-extent, meters
const earthR = 20037508.34

func (frame *LocalFrame) ForwardLine(line orb.LineString) orb.LineString {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		newLine[i] = frame.Forward(pt)
	}
	return newLine
}

func (frame *LocalFrame) ForwardPolygon(poly orb.Polygon) orb.Polygon {
	newPoly := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		newPoly[i] = orb.Ring(frame.ForwardLine(orb.LineString(ring)))
	}
	return newPoly
}

func (frame *LocalFrame) InverseLine(line orb.LineString) (orb.LineString, error) {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		geo, err := frame.Inverse(pt)
		if err != nil {
			return nil, err
		}
		newLine[i] = geo
	}
	return newLine, nil
}
