package osm2sidewalks

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"
)

// Report is summary of pipeline run
type Report struct {
	Segments          int
	Protoblocks       int
	CoveredBlocks     int
	Sidewalks         int
	SidewalkLength    float64
	Crossings         int
	InferredCrossings int
	Kerbs             int
	// Crossing length statistics; zero when there are no crossings
	CrossingLengthMean   float64
	CrossingLengthStdDev float64
	CrossingLengthMedian float64
}

func (report Report) String() string {
	return fmt.Sprintf(`
Run summary:
	segments: %d
	protoblocks: %d (covered: %d)
	sidewalks: %d (total length: %.2f)
	crossings: %d (inferred: %d)
	kerbs: %d
	crossing length: mean %.2f, stddev %.2f, median %.2f
	`,
		report.Segments,
		report.Protoblocks, report.CoveredBlocks,
		report.Sidewalks, report.SidewalkLength,
		report.Crossings, report.InferredCrossings,
		report.Kerbs,
		report.CrossingLengthMean, report.CrossingLengthStdDev, report.CrossingLengthMedian,
	)
}

// Summarize counts result features and computes crossing length statistics
func Summarize(result *Result) Report {
	report := Report{
		Sidewalks: len(result.Sidewalks),
		Crossings: len(result.Crossings),
		Kerbs:     len(result.Kerbs),
	}
	if result.Network != nil {
		report.Segments = len(result.Network.Segments)
	}
	if result.Protoblocks != nil {
		report.Protoblocks = len(result.Protoblocks.Blocks)
		report.CoveredBlocks = len(result.Protoblocks.Covered)
	}
	for _, sidewalk := range result.Sidewalks {
		report.SidewalkLength += planar.Length(sidewalk.Geom)
	}
	if len(result.Crossings) == 0 {
		return report
	}
	lengths := make([]float64, len(result.Crossings))
	for i, crossing := range result.Crossings {
		lengths[i] = crossing.Length
		if crossing.Origin == CROSSING_INFERRED {
			report.InferredCrossings++
		}
	}
	sort.Float64s(lengths)
	report.CrossingLengthMean, report.CrossingLengthStdDev = stat.MeanStdDev(lengths, nil)
	if len(lengths) < 2 {
		report.CrossingLengthStdDev = 0
	}
	report.CrossingLengthMedian = stat.Quantile(0.5, stat.Empirical, lengths, nil)
	return report
}
