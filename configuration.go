package osm2sidewalks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const maxConfigFileSize = 1 * 1024 * 1024

// Config holds every tunable of the synthesis pipeline.
// Lengths are in units of the planar frame (meters for LocalFrame), percentages are in [0, 100].
type Config struct {
	DefaultWidths     map[string]float64 `json:"default_widths,omitempty"`
	FallbackWidth     float64            `json:"fallback_width"`
	MinSegmentWidth   float64            `json:"min_segment_width"`
	DeadEndIterations int                `json:"dead_end_iterations"`

	ProtoblockCutoffPercent float64 `json:"protoblock_cutoff_percent"`

	CurveRadius           float64 `json:"curve_radius"`
	SidewalkMargin        float64 `json:"sidewalk_margin"`
	MinSidewalkWidth      float64 `json:"min_sidewalk_width"`
	MinDistToBuilding     float64 `json:"min_dist_to_building"`
	MinAreaPerimeterRatio float64 `json:"min_area_perimeter_ratio"`
	UseBuildings          bool    `json:"use_buildings"`

	KerbPercent                    float64 `json:"kerb_percent"`
	CrossingLengthTolerancePercent float64 `json:"crossing_length_tolerance_percent"`
	CrossingInwardDistance         float64 `json:"crossing_inward_distance"`
	MinRoadSegmentLength           float64 `json:"min_road_segment_length"`

	MaxSplitLength      float64 `json:"max_split_length"`
	SplitByMaxLength    bool    `json:"split_by_max_length"`
	CornerSnapTolerance float64 `json:"corner_snap_tolerance"`
	// Crossing ends are snapped with much tighter tolerance than sidewalk corners:
	// kerbs already lie on sidewalks, so only numerical gaps are closed
	CrossingSnapTolerance float64 `json:"crossing_snap_tolerance"`

	InferMissingCrossings          bool    `json:"infer_missing_crossings"`
	MinSharedEdgeLength            float64 `json:"min_shared_edge_length"`
	MinProtoblocksAtNode           int     `json:"min_protoblocks_at_node"`
	ExistingCrossingDistance       float64 `json:"existing_crossing_distance"`
	ProtoblockContainmentTolerance float64 `json:"protoblock_containment_tolerance"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	widths := make(map[string]float64, len(defaultWidthByHighway))
	for class, width := range defaultWidthByHighway {
		widths[class] = width
	}
	return &Config{
		DefaultWidths:     widths,
		FallbackWidth:     6.0,
		MinSegmentWidth:   0.5,
		DeadEndIterations: 5,

		ProtoblockCutoffPercent: 30.0,

		CurveRadius:           3.0,
		SidewalkMargin:        3.0,
		MinSidewalkWidth:      1.0,
		MinDistToBuilding:     1.0,
		MinAreaPerimeterRatio: 1.0,
		UseBuildings:          false,

		KerbPercent:                    15.0,
		CrossingLengthTolerancePercent: 25.0,
		CrossingInwardDistance:         12.0,
		MinRoadSegmentLength:           10.0,

		MaxSplitLength:        50.0,
		SplitByMaxLength:      false,
		CornerSnapTolerance:   10.0,
		CrossingSnapTolerance: 1.0,

		InferMissingCrossings:          false,
		MinSharedEdgeLength:            8.0,
		MinProtoblocksAtNode:           3,
		ExistingCrossingDistance:       5.0,
		ProtoblockContainmentTolerance: 0.5,
	}
}

// LoadConfig reads JSON configuration from file. Keys absent in the file keep default values.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("Config file must have .json extension, got '%s'", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "Can't stat config file")
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("Config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read config file")
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "Can't parse config JSON")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid configuration")
	}
	return cfg, nil
}

// Validate checks ranges of configuration values
func (cfg *Config) Validate() error {
	nonNegative := map[string]float64{
		"fallback_width":                    cfg.FallbackWidth,
		"min_segment_width":                 cfg.MinSegmentWidth,
		"curve_radius":                      cfg.CurveRadius,
		"sidewalk_margin":                   cfg.SidewalkMargin,
		"min_sidewalk_width":                cfg.MinSidewalkWidth,
		"min_dist_to_building":              cfg.MinDistToBuilding,
		"min_area_perimeter_ratio":          cfg.MinAreaPerimeterRatio,
		"crossing_length_tolerance_percent": cfg.CrossingLengthTolerancePercent,
		"crossing_inward_distance":          cfg.CrossingInwardDistance,
		"min_road_segment_length":           cfg.MinRoadSegmentLength,
		"corner_snap_tolerance":             cfg.CornerSnapTolerance,
		"crossing_snap_tolerance":           cfg.CrossingSnapTolerance,
		"min_shared_edge_length":            cfg.MinSharedEdgeLength,
		"existing_crossing_distance":        cfg.ExistingCrossingDistance,
		"protoblock_containment_tolerance":  cfg.ProtoblockContainmentTolerance,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("'%s' must be non-negative, got %f", name, value)
		}
	}
	for class, width := range cfg.DefaultWidths {
		if width < 0 {
			return fmt.Errorf("Default width for '%s' must be non-negative, got %f", class, width)
		}
	}
	if cfg.DeadEndIterations < 1 {
		return fmt.Errorf("'dead_end_iterations' must be positive, got %d", cfg.DeadEndIterations)
	}
	if cfg.ProtoblockCutoffPercent < 0 || cfg.ProtoblockCutoffPercent > 100 {
		return fmt.Errorf("'protoblock_cutoff_percent' must be in [0, 100], got %f", cfg.ProtoblockCutoffPercent)
	}
	if cfg.KerbPercent <= 0 || cfg.KerbPercent >= 50 {
		return fmt.Errorf("'kerb_percent' must be in (0, 50), got %f", cfg.KerbPercent)
	}
	if cfg.SplitByMaxLength && cfg.MaxSplitLength <= 0 {
		return fmt.Errorf("'max_split_length' must be positive when splitting is enabled, got %f", cfg.MaxSplitLength)
	}
	if cfg.MinProtoblocksAtNode < 1 {
		return fmt.Errorf("'min_protoblocks_at_node' must be positive, got %d", cfg.MinProtoblocksAtNode)
	}
	return nil
}

// widthFor resolves carriageway width: declared value first, then class lookup, then fallback
func (cfg *Config) widthFor(roadClass string, declared *float64) float64 {
	if declared != nil && *declared > 0 {
		return *declared
	}
	if width, ok := cfg.DefaultWidths[roadClass]; ok {
		return width
	}
	return cfg.FallbackWidth
}

// bufferRadius is the distance from road centerline to the derived sidewalk line
func (cfg *Config) bufferRadius(width float64) float64 {
	return width/2.0 + cfg.SidewalkMargin/2.0
}

// expectedCrossingLength is the sidewalk-to-sidewalk distance across a road of given width
func (cfg *Config) expectedCrossingLength(width float64) float64 {
	return width + cfg.SidewalkMargin
}
