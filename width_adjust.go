package osm2sidewalks

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"
)

// adjustWidthsToBuildings shrinks segment widths so that road buffer keeps at least
// MinDistToBuilding clearance to the nearest building. Width never drops below MinSidewalkWidth.
// Returns effective width for every segment (by position) and number of adjusted segments.
func adjustWidthsToBuildings(ctx context.Context, gctx *geos.Context, segments []CleanedSegment, buildings []Building, cfg *Config) ([]float64, int, error) {
	widths := make([]float64, len(segments))
	for i := range segments {
		widths[i] = segments[i].Width
	}
	if len(buildings) == 0 {
		return widths, 0, nil
	}

	var idx boundIndex
	for i := range buildings {
		if err := validatePolygon(buildings[i].ID, buildings[i].Geom); err != nil {
			return nil, 0, err
		}
		idx.insert(buildings[i].Geom.Bound(), i)
	}
	geoms := make([]*geos.Geom, len(buildings))

	adjusted := 0
	err := guardGeos("building distance", func() {
		for i, segment := range segments {
			select {
			case <-ctx.Done():
				return
			default:
			}
			radius := cfg.bufferRadius(segment.Width)
			reach := radius + cfg.MinDistToBuilding
			candidates := idx.query(segment.Geom.Bound().Pad(reach))
			if len(candidates) == 0 {
				continue
			}
			line := geosLine(gctx, segment.Geom)
			nearest := -1.0
			for _, c := range candidates {
				if geoms[c] == nil {
					geoms[c] = geosPolygon(gctx, buildings[c].Geom)
				}
				d := line.Distance(geoms[c])
				if nearest < 0 || d < nearest {
					nearest = d
				}
			}
			if nearest >= reach {
				continue
			}
			// Largest width w such that w/2 + margin/2 + clearance <= nearest
			width := 2.0*(nearest-cfg.MinDistToBuilding) - cfg.SidewalkMargin
			if width < cfg.MinSidewalkWidth {
				width = cfg.MinSidewalkWidth
			}
			if width < widths[i] {
				widths[i] = width
				adjusted++
			}
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return widths, adjusted, nil
}

// buildingsFromPolygons is a convenience for callers holding bare polygons
func buildingsFromPolygons(polys []orb.Polygon) []Building {
	buildings := make([]Building, len(polys))
	for i, poly := range polys {
		buildings[i] = Building{ID: int64(i), Geom: poly}
	}
	return buildings
}
