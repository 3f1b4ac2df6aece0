package osm2sidewalks

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Pipeline chains all synthesis stages
type Pipeline struct {
	cfg     *Config
	verbose bool
}

func (pipeline *Pipeline) String() string {
	cfg := pipeline.cfg
	return fmt.Sprintf(`
Sidewalks pipeline parameters:
	verbose: %t
	default_widths: %v
	fallback_width: %f
	min_segment_width: %f
	dead_end_iterations: %d
	protoblock_cutoff_percent: %f
	curve_radius: %f
	sidewalk_margin: %f
	use_buildings: %t
	kerb_percent: %f
	crossing_length_tolerance_percent: %f
	split_by_max_length: %t
	max_split_length: %f
	infer_missing_crossings: %t
	`,
		pipeline.verbose,
		cfg.DefaultWidths,
		cfg.FallbackWidth,
		cfg.MinSegmentWidth,
		cfg.DeadEndIterations,
		cfg.ProtoblockCutoffPercent,
		cfg.CurveRadius,
		cfg.SidewalkMargin,
		cfg.UseBuildings,
		cfg.KerbPercent,
		cfg.CrossingLengthTolerancePercent,
		cfg.SplitByMaxLength,
		cfg.MaxSplitLength,
		cfg.InferMissingCrossings,
	)
}

// NewPipeline returns pipeline with default configuration modified by options
func NewPipeline(options ...func(*Pipeline)) *Pipeline {
	pipeline := &Pipeline{
		cfg:     DefaultConfig(),
		verbose: false,
	}
	for _, option := range options {
		option(pipeline)
	}
	return pipeline
}

func WithConfig(cfg *Config) func(*Pipeline) {
	return func(pipeline *Pipeline) {
		pipeline.cfg = cfg
	}
}

func WithVerbose(verbose bool) func(*Pipeline) {
	return func(pipeline *Pipeline) {
		pipeline.verbose = verbose
	}
}

// Input is the street network and optional building footprints in local planar frame
type Input struct {
	Segments  []StreetSegment
	Buildings []Building
}

// Result holds every stage output
type Result struct {
	Network     *CleanedNetwork
	Protoblocks *ProtoblockSet
	// Sidewalks before topology splitting
	Outlines  *SidewalkSet
	Sidewalks []SidewalkLine
	// Synthesized and inferred crossings together; IDs are positions in this slice
	Crossings []Crossing
	Kerbs     []Kerb
	Inference *InferenceResult
	// No usable street segment was left after cleaning
	EmptyNetwork bool
	Cancelled    bool
}

// Run executes every stage in order. Empty network is not an error: empty result
// with EmptyNetwork flag is returned. Cancellation stops the run between (or inside)
// stages and returns what has been built so far.
func (pipeline *Pipeline) Run(ctx context.Context, input Input) (*Result, error) {
	cfg := pipeline.cfg
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't validate configuration")
	}
	if pipeline.verbose {
		Logf("Running pipeline...%s", pipeline)
	}
	st := time.Now()
	result := &Result{
		Sidewalks: []SidewalkLine{},
		Crossings: []Crossing{},
		Kerbs:     []Kerb{},
	}

	net, err := CleanNetwork(ctx, input.Segments, cfg, pipeline.verbose)
	result.Network = net
	if err != nil {
		if errors.Is(err, ErrEmptyNetwork) {
			if pipeline.verbose {
				Logf("[WARNING]: %s, nothing to synthesize", err)
			}
			result.EmptyNetwork = true
			return result, nil
		}
		return nil, errors.Wrap(err, "Can't clean street network")
	}
	if net.Cancelled {
		result.Cancelled = true
		return result, nil
	}

	blocks, err := BuildProtoblocks(ctx, net.Lines(), net.ExistingSidewalkLines(), cfg, pipeline.verbose)
	if err != nil {
		return nil, errors.Wrap(err, "Can't build protoblocks")
	}
	result.Protoblocks = blocks
	if blocks.Cancelled {
		result.Cancelled = true
		return result, nil
	}

	outlines, err := SynthesizeSidewalks(ctx, net, blocks, input.Buildings, cfg, pipeline.verbose)
	if err != nil {
		return nil, errors.Wrap(err, "Can't synthesize sidewalks")
	}
	result.Outlines = outlines
	if outlines.Cancelled {
		result.Cancelled = true
		return result, nil
	}

	crossings, err := SynthesizeCrossings(ctx, net, outlines, cfg, pipeline.verbose)
	if err != nil {
		return nil, errors.Wrap(err, "Can't synthesize crossings")
	}
	result.Crossings = crossings.Crossings
	result.Kerbs = crossings.Kerbs
	if crossings.Cancelled {
		result.Cancelled = true
		return result, nil
	}

	sidewalks, cancelled := SplitTopology(ctx, outlines, blocks, crossings, cfg, pipeline.verbose)
	result.Sidewalks = sidewalks
	if cancelled {
		result.Cancelled = true
		return result, nil
	}

	if cfg.InferMissingCrossings {
		inference, err := InferMissingCrossings(ctx, blocks, net.ExistingSidewalkLines(), segmentLines(net.ExistingCrossings), cfg, pipeline.verbose)
		if err != nil {
			return nil, errors.Wrap(err, "Can't infer missing crossings")
		}
		result.Inference = inference
		result.Crossings, result.Kerbs = mergeCrossings(cfg.KerbPercent, crossings.Crossings, inference.Crossings)
		result.Cancelled = inference.Cancelled
	}
	if pipeline.verbose {
		Logf("Pipeline done in %v\n\tSidewalks: %d, crossings: %d, kerbs: %d\n", time.Since(st), len(result.Sidewalks), len(result.Crossings), len(result.Kerbs))
	}
	return result, nil
}

// mergeCrossings concatenates crossing groups renumbering them and their kerbs
func mergeCrossings(kerbPercent float64, groups ...[]Crossing) ([]Crossing, []Kerb) {
	merged := &CrossingSet{Crossings: []Crossing{}, Kerbs: []Kerb{}}
	for _, group := range groups {
		for _, crossing := range group {
			merged.accept(crossing, kerbPercent)
		}
	}
	return merged.Crossings, merged.Kerbs
}

func segmentLines(segments []StreetSegment) []orb.LineString {
	lines := make([]orb.LineString, len(segments))
	for i := range segments {
		lines[i] = segments[i].Geom
	}
	return lines
}
