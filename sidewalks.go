package osm2sidewalks

import (
	"context"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"
)

const (
	SIDEWALK_KIND = "sidewalk"
	// Mitre limit for road buffers: keeps block corners sharp before rounding
	mitreLimit = 5.0
)

// SidewalkLine is derived sidewalk centerline
type SidewalkLine struct {
	ID   int64
	Geom orb.LineString
	Kind string
}

// SidewalkSet is output of SidewalkSynthesizer
type SidewalkSet struct {
	Lines []SidewalkLine
	// Effective width of every cleaned segment (by segment ID) after building clearance
	Widths map[int64]float64
	// Number of segments narrowed because of nearby buildings
	Narrowed int
	// Number of sliver polygons dropped by area/perimeter filter
	Slivers   int
	Cancelled bool
}

// Geoms returns sidewalk geometries
func (set *SidewalkSet) Geoms() []orb.LineString {
	lines := make([]orb.LineString, len(set.Lines))
	for i := range set.Lines {
		lines[i] = set.Lines[i].Geom
	}
	return lines
}

// SynthesizeSidewalks derives sidewalk lines from buffered street network.
// Buildings are used only when cfg.UseBuildings is set.
func SynthesizeSidewalks(ctx context.Context, net *CleanedNetwork, blocks *ProtoblockSet, buildings []Building, cfg *Config, verbose bool) (*SidewalkSet, error) {
	if verbose {
		Logf("Synthesizing sidewalks...")
	}
	st := time.Now()
	set := &SidewalkSet{Widths: make(map[int64]float64, len(net.Segments))}
	if net.Empty() {
		return set, nil
	}
	gctx := geos.NewContext()

	widths := make([]float64, len(net.Segments))
	for i := range net.Segments {
		widths[i] = net.Segments[i].Width
	}
	if cfg.UseBuildings {
		adjusted, narrowed, err := adjustWidthsToBuildings(ctx, gctx, net.Segments, buildings, cfg)
		if err != nil {
			return nil, err
		}
		widths = adjusted
		set.Narrowed = narrowed
	}
	for i := range net.Segments {
		set.Widths[net.Segments[i].ID] = widths[i]
	}

	var parts []orb.Polygon
	var zones *geos.Geom
	err := guardGeos("sidewalk buffers", func() {
		buffers := make([]*geos.Geom, 0, len(net.Segments))
		zoneGeoms := []*geos.Geom{}
		maxRadius := 0.0
		for i, segment := range net.Segments {
			select {
			case <-ctx.Done():
				set.Cancelled = true
				return
			default:
			}
			radius := cfg.bufferRadius(widths[i])
			maxRadius = math.Max(maxRadius, radius)
			line := geosLine(gctx, segment.Geom)
			buffers = append(buffers, line.BufferWithStyle(radius, quadSegs, geos.BufCapStyleSquare, geos.BufJoinStyleMitre, mitreLimit))
			zoneGeoms = append(zoneGeoms, exclusionZones(gctx, segment, widths[i], cfg)...)
		}
		mass := unionAll(gctx, buffers)
		if cfg.CurveRadius > 0 {
			mass = mass.Buffer(cfg.CurveRadius, quadSegs).Buffer(-cfg.CurveRadius, quadSegs)
		}
		frame := backgroundFrame(net.Lines(), maxRadius)
		parts = dropLargest(orbPolygons(geosPolygon(gctx, frame).Difference(mass)))
		if len(zoneGeoms) > 0 {
			zones = unionAll(gctx, zoneGeoms)
		}
	})
	if err != nil {
		return nil, err
	}
	if set.Cancelled {
		return set, nil
	}

	lines := []orb.LineString{}
	for _, part := range parts {
		if planar.Area(part)/planar.Length(part) < cfg.MinAreaPerimeterRatio {
			set.Slivers++
			continue
		}
		for _, ring := range part {
			lines = append(lines, orb.LineString(ring))
		}
	}

	// Exclusion zones cut boundary lines, not polygons: ring parts inside a zone are
	// dropped while the rest of the ring survives as open lines
	if zones != nil {
		carved := []orb.LineString{}
		err := guardGeos("exclusion zones", func() {
			for _, line := range lines {
				// Merge pieces split at ring start
				carved = append(carved, orbLines(geosLine(gctx, line).Difference(zones).LineMerge())...)
			}
		})
		if err != nil {
			return nil, err
		}
		lines = carved
	}

	kept, err := touchingBlocks(gctx, lines, blocks.Polygons())
	if err != nil {
		return nil, err
	}
	for _, line := range kept {
		set.Lines = append(set.Lines, SidewalkLine{ID: int64(len(set.Lines)), Geom: line, Kind: SIDEWALK_KIND})
	}
	if verbose {
		Logf("Done in %v\n\tSidewalks: %d (narrowed segments: %d, slivers: %d)\n", time.Since(st), len(set.Lines), set.Narrowed, set.Slivers)
	}
	return set, nil
}

// backgroundFrame returns rectangle surrounding the network with margin far exceeding
// any buffer distance
func backgroundFrame(lines []orb.LineString, maxRadius float64) orb.Polygon {
	bound := lines[0].Bound()
	for _, line := range lines[1:] {
		bound = bound.Union(line.Bound())
	}
	extent := math.Max(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])
	return bound.Pad(10*extent + 10*maxRadius + 100).ToPolygon()
}

// dropLargest removes polygon of the largest area: the unbounded background left after
// subtracting road mass from the frame. On ties the first one is removed.
func dropLargest(parts []orb.Polygon) []orb.Polygon {
	if len(parts) == 0 {
		return parts
	}
	largest := 0
	largestArea := planar.Area(parts[0])
	for i := 1; i < len(parts); i++ {
		if area := planar.Area(parts[i]); area > largestArea {
			largest, largestArea = i, area
		}
	}
	result := make([]orb.Polygon, 0, len(parts)-1)
	result = append(result, parts[:largest]...)
	return append(result, parts[largest+1:]...)
}

// exclusionZones builds areas where sidewalk is declared absent for given segment
func exclusionZones(gctx *geos.Context, segment CleanedSegment, width float64, cfg *Config) []*geos.Geom {
	radius := width/2.0 + cfg.SidewalkMargin
	switch {
	case segment.Presence == SIDEWALK_NONE:
		return []*geos.Geom{geosLine(gctx, segment.Geom).BufferWithStyle(radius, quadSegs, geos.BufCapStyleSquare, geos.BufJoinStyleMitre, mitreLimit)}
	case segment.Presence.excludesLeft():
		return []*geos.Geom{sideZone(gctx, segment.Geom, radius)}
	case segment.Presence.excludesRight():
		return []*geos.Geom{sideZone(gctx, segment.Geom, -radius)}
	}
	return nil
}

// sideZone returns single-sided buffer of the line: positive offset covers the left side.
// Line ends are extended by the offset distance to mimic square caps.
func sideZone(gctx *geos.Context, line orb.LineString, offset float64) *geos.Geom {
	extended := extendLine(line, math.Abs(offset))
	shifted := offsetCurve(extended, offset)
	ring := make(orb.Ring, 0, len(extended)+len(shifted)+1)
	ring = append(ring, extended...)
	ring = append(ring, reverseLine(shifted)...)
	ring = append(ring, extended[0])
	// Zero-width buffer repairs self-intersections of offset curve on sharp bends
	return geosPolygon(gctx, orb.Polygon{ring}).Buffer(0, quadSegs)
}

// extendLine prolongs both ends of the line along end tangents
func extendLine(line orb.LineString, dist float64) orb.LineString {
	extended := line.Clone()
	n := len(line)
	startDir := toVec(line[0]).Sub(toVec(line[1]))
	endDir := toVec(line[n-1]).Sub(toVec(line[n-2]))
	if startDir.Norm() > 0 {
		extended[0] = fromVec(toVec(line[0]).Add(startDir.Normalize().Mul(dist)))
	}
	if endDir.Norm() > 0 {
		extended[n-1] = fromVec(toVec(line[n-1]).Add(endDir.Normalize().Mul(dist)))
	}
	return extended
}

// touchingBlocks keeps only lines intersecting at least one block
func touchingBlocks(gctx *geos.Context, lines []orb.LineString, blocks []orb.Polygon) ([]orb.LineString, error) {
	var idx boundIndex
	for i, block := range blocks {
		idx.insert(block.Bound(), i)
	}
	geoms := make([]*geos.Geom, len(blocks))
	kept := []orb.LineString{}
	err := guardGeos("protoblock containment", func() {
		for _, line := range lines {
			candidates := idx.query(line.Bound())
			if len(candidates) == 0 {
				continue
			}
			g := geosLine(gctx, line)
			for _, c := range candidates {
				if geoms[c] == nil {
					geoms[c] = geosPolygon(gctx, blocks[c])
				}
				if g.Intersects(geoms[c]) {
					kept = append(kept, line)
					break
				}
			}
		}
	})
	return kept, err
}

// unit returns direction of p->q, zero vector for coincident points
func unit(p, q orb.Point) r2.Point {
	d := toVec(q).Sub(toVec(p))
	if d.Norm() == 0 {
		return r2.Point{}
	}
	return d.Normalize()
}
