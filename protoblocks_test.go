package osm2sidewalks

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"
)

func TestProtoblocksUnitSquare(t *testing.T) {
	cfg := DefaultConfig()
	net, err := CleanNetwork(context.Background(), unitSquare(t), cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	set, err := BuildProtoblocks(context.Background(), net.Lines(), nil, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(set.Blocks) != 1 {
		t.Errorf("Number of protoblocks should be %d, but got %d", 1, len(set.Blocks))
		return
	}
	if Round(set.Blocks[0].Area, 1e-9) != 1 {
		t.Errorf("Protoblock area should be %f, but got %f", 1.0, set.Blocks[0].Area)
	}
}

// gridLines returns street lines of nx*ny grid of square blocks with given size
func gridLines(nx, ny int, size float64) []orb.LineString {
	lines := []orb.LineString{}
	for i := 0; i <= nx; i++ {
		x := float64(i) * size
		lines = append(lines, orb.LineString{{x, 0}, {x, float64(ny) * size}})
	}
	for j := 0; j <= ny; j++ {
		y := float64(j) * size
		lines = append(lines, orb.LineString{{0, y}, {float64(nx) * size, y}})
	}
	return lines
}

type blockSummary struct {
	Area     float64
	Centroid orb.Point
}

func summarizeBlocks(blocks []Protoblock) []blockSummary {
	summary := make([]blockSummary, len(blocks))
	for i, block := range blocks {
		centroid, area := planar.CentroidArea(block.Geom)
		summary[i] = blockSummary{Area: area, Centroid: centroid}
	}
	sort.Slice(summary, func(a, b int) bool {
		ax, bx := Round(summary[a].Centroid[0], 1e-6), Round(summary[b].Centroid[0], 1e-6)
		if ax != bx {
			return ax < bx
		}
		return Round(summary[a].Centroid[1], 1e-6) < Round(summary[b].Centroid[1], 1e-6)
	})
	return summary
}

func TestProtoblocksIdempotence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProtoblockCutoffPercent = 100
	first, err := BuildProtoblocks(context.Background(), gridLines(2, 2, 50), nil, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(first.Blocks) != 4 {
		t.Errorf("Number of protoblocks should be %d, but got %d", 4, len(first.Blocks))
		return
	}
	rings := []orb.LineString{}
	for _, block := range first.Blocks {
		rings = append(rings, orb.LineString(block.Geom[0]))
	}
	second, err := BuildProtoblocks(context.Background(), rings, nil, cfg, false)
	if err != nil {
		t.Error(err)
		return
	}
	if diff := cmp.Diff(summarizeBlocks(first.Blocks), summarizeBlocks(second.Blocks), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Protoblocks should be identical after rebuilding (-first +second):\n%s", diff)
	}
}

func TestProtoblocksSimple(t *testing.T) {
	lines := append(gridLines(3, 2, 40), orb.LineString{{0, 0}, {120, 80}})
	set, err := BuildProtoblocks(context.Background(), lines, nil, DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(set.Blocks) == 0 {
		t.Errorf("Protoblocks should be found")
		return
	}
	gctx := geos.NewContext()
	for _, block := range set.Blocks {
		if block.Area <= 0 {
			t.Errorf("Protoblock %d should have positive area, but got %f", block.ID, block.Area)
		}
		if !geosPolygon(gctx, block.Geom).IsValid() {
			t.Errorf("Protoblock %d should be simple polygon", block.ID)
		}
	}
	for i, block := range set.All() {
		if block.ID != int64(i) {
			t.Errorf("Protoblock #%d should have ID %d, but got %d", i, i, block.ID)
		}
	}
}

func TestProtoblocksCoverage(t *testing.T) {
	lines := gridLines(2, 1, 10)
	// dense existing sidewalks around the left block only
	existing := []orb.LineString{{{1, 1}, {9, 1}, {9, 9}, {1, 9}, {1, 1}}}
	set, err := BuildProtoblocks(context.Background(), lines, existing, DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(set.Blocks) != 1 || len(set.Covered) != 1 {
		t.Errorf("Should be 1 retained and 1 covered protoblock, but got %d and %d", len(set.Blocks), len(set.Covered))
		return
	}
	covered := set.Covered[0]
	// ((32 / 4)^2 / 100) * 100
	if Round(covered.CoverageRatio, 1e-6) != 64 {
		t.Errorf("Coverage ratio should be %f, but got %f", 64.0, covered.CoverageRatio)
	}
	if set.Blocks[0].CoverageRatio != 0 {
		t.Errorf("Coverage ratio of free block should be 0, but got %f", set.Blocks[0].CoverageRatio)
	}
}

func TestProtoblocksEmpty(t *testing.T) {
	lines := []orb.LineString{{{0, 0}, {10, 0}}, {{10, 0}, {10, 10}}}
	set, err := BuildProtoblocks(context.Background(), lines, nil, DefaultConfig(), false)
	if err != nil {
		t.Error(err)
		return
	}
	if len(set.Blocks) != 0 || len(set.Covered) != 0 {
		t.Errorf("Open lines should produce no protoblocks, but got %d", len(set.Blocks)+len(set.Covered))
	}
}
