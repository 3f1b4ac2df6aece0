package osm2sidewalks

import (
	"context"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"
)

// Protoblock is closed cell of the street network: candidate city block
type Protoblock struct {
	ID   int64
	Geom orb.Polygon
	Area float64
	// ((existing sidewalk length / 4)^2 / area) * 100
	CoverageRatio float64
}

// ProtoblockSet is output of ProtoblockBuilder
type ProtoblockSet struct {
	// Blocks with coverage ratio below the cutoff, i.e. the ones needing sidewalks
	Blocks []Protoblock
	// Blocks already carrying dense existing sidewalk network
	Covered   []Protoblock
	Cancelled bool
}

// All returns retained and covered blocks ordered by ID
func (set *ProtoblockSet) All() []Protoblock {
	all := make([]Protoblock, 0, len(set.Blocks)+len(set.Covered))
	i, j := 0, 0
	for i < len(set.Blocks) || j < len(set.Covered) {
		if j >= len(set.Covered) || (i < len(set.Blocks) && set.Blocks[i].ID < set.Covered[j].ID) {
			all = append(all, set.Blocks[i])
			i++
		} else {
			all = append(all, set.Covered[j])
			j++
		}
	}
	return all
}

// Polygons returns geometries of retained blocks
func (set *ProtoblockSet) Polygons() []orb.Polygon {
	polys := make([]orb.Polygon, len(set.Blocks))
	for i := range set.Blocks {
		polys[i] = set.Blocks[i].Geom
	}
	return polys
}

// coverageRatio is areal proxy of how much of the block is already bounded by sidewalks
func coverageRatio(sidewalkLength, area float64) float64 {
	if area <= 0 {
		return math.Inf(1)
	}
	quarter := sidewalkLength / 4.0
	return (quarter * quarter / area) * 100.0
}

// BuildProtoblocks polygonizes cleaned network and splits resulting cells into the ones
// which need sidewalks and the ones which already are covered by existing sidewalks.
// No polygons is not an error: empty set is returned.
func BuildProtoblocks(ctx context.Context, lines []orb.LineString, existingSidewalks []orb.LineString, cfg *Config, verbose bool) (*ProtoblockSet, error) {
	if verbose {
		Logf("Building protoblocks...")
	}
	st := time.Now()
	set := &ProtoblockSet{}
	if len(lines) == 0 {
		return set, nil
	}

	gctx := geos.NewContext()
	var cells []orb.Polygon
	err := guardGeos("polygonize", func() {
		network := geosLines(gctx, lines).UnaryUnion()
		cells = orbPolygons(gctx.Polygonize([]*geos.Geom{network}))
	})
	if err != nil {
		return nil, err
	}

	var sidewalkIdx boundIndex
	for i, line := range existingSidewalks {
		sidewalkIdx.insert(line.Bound(), i)
	}

	nextID := int64(0)
	for _, cell := range cells {
		select {
		case <-ctx.Done():
			set.Cancelled = true
			return set, nil
		default:
		}
		area := planar.Area(cell)
		if area <= epsilon {
			continue
		}
		block := Protoblock{ID: nextID, Geom: cell, Area: area}
		nextID++

		candidates := sidewalkIdx.query(cell.Bound())
		if len(candidates) > 0 {
			subset := make([]orb.LineString, len(candidates))
			for i, c := range candidates {
				subset[i] = existingSidewalks[c]
			}
			inside := 0.0
			err := guardGeos("sidewalk coverage", func() {
				inside = geosPolygon(gctx, cell).Intersection(geosLines(gctx, subset)).Length()
			})
			if err != nil {
				return nil, err
			}
			block.CoverageRatio = coverageRatio(inside, area)
		}

		if block.CoverageRatio < cfg.ProtoblockCutoffPercent {
			set.Blocks = append(set.Blocks, block)
		} else {
			set.Covered = append(set.Covered, block)
		}
	}
	if verbose {
		Logf("Done in %v\n\tProtoblocks: %d (covered by existing sidewalks: %d)\n", time.Since(st), len(set.Blocks), len(set.Covered))
	}
	return set, nil
}
