package osm2sidewalks

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
)

// StreetSegment is raw street centerline as delivered by the loader
type StreetSegment struct {
	ID            int64
	OSMWayID      osm.WayID
	RoadClass     string
	DeclaredWidth *float64
	Tags          osm.Tags
	Geom          orb.LineString
}

// CleanedSegment is street centerline which survived NetworkCleaner.
// Several cleaned segments may share the same SourceID after intersection splitting.
type CleanedSegment struct {
	ID        int64
	SourceID  int64
	RoadClass string
	Width     float64
	Presence  SidewalkPresence
	Geom      orb.LineString
}

// Building is footprint polygon used for width adjustment
type Building struct {
	ID   int64
	Geom orb.Polygon
}

func validateLine(id int64, line orb.LineString) error {
	if len(line) < 2 {
		return &InvalidGeometryError{FeatureID: id, Reason: "line must have at least 2 points"}
	}
	for _, pt := range line {
		if !finitePoint(pt) {
			return &InvalidGeometryError{FeatureID: id, Reason: "non-finite coordinate"}
		}
	}
	return nil
}

func validatePolygon(id int64, poly orb.Polygon) error {
	if len(poly) == 0 || len(poly[0]) < 4 {
		return &InvalidGeometryError{FeatureID: id, Reason: "polygon exterior ring must have at least 4 points"}
	}
	for _, ring := range poly {
		for _, pt := range ring {
			if !finitePoint(pt) {
				return &InvalidGeometryError{FeatureID: id, Reason: "non-finite coordinate"}
			}
		}
	}
	if planar.Area(poly[0]) == 0 {
		return &InvalidGeometryError{FeatureID: id, Reason: "zero-area exterior ring"}
	}
	return nil
}

func finitePoint(pt orb.Point) bool {
	return !math.IsNaN(pt[0]) && !math.IsNaN(pt[1]) && !math.IsInf(pt[0], 0) && !math.IsInf(pt[1], 0)
}
