package osm2sidewalks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	data := `{"kerb_percent": 20, "default_widths": {"residential": 9}, "infer_missing_crossings": true}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Error(err)
		return
	}
	if cfg.KerbPercent != 20 {
		t.Errorf("Kerb percent should be %f, but got %f", 20.0, cfg.KerbPercent)
	}
	if !cfg.InferMissingCrossings {
		t.Errorf("Inference should be enabled")
	}
	defaults := DefaultConfig()
	if cfg.CurveRadius != defaults.CurveRadius {
		t.Errorf("Absent key should keep default %f, but got %f", defaults.CurveRadius, cfg.CurveRadius)
	}
	if cfg.widthFor("residential", nil) != 9 {
		t.Errorf("Width for residential should be %f, but got %f", 9.0, cfg.widthFor("residential", nil))
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"conf.yaml":    `{}`,
		"broken.json":  `{"kerb_percent": `,
		"invalid.json": `{"kerb_percent": 60}`,
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("File '%s' should not be loaded", name)
		}
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("Missing file should not be loaded")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid, but got %v", err)
	}
	if cfg := DefaultConfig(); cfg.CrossingSnapTolerance >= cfg.CornerSnapTolerance {
		t.Errorf("Crossing snap tolerance should be below corner tolerance, but got %f and %f", cfg.CrossingSnapTolerance, cfg.CornerSnapTolerance)
	}
	broken := []func(*Config){
		func(cfg *Config) { cfg.CurveRadius = -1 },
		func(cfg *Config) { cfg.DeadEndIterations = 0 },
		func(cfg *Config) { cfg.ProtoblockCutoffPercent = 101 },
		func(cfg *Config) { cfg.KerbPercent = 0 },
		func(cfg *Config) { cfg.SplitByMaxLength = true; cfg.MaxSplitLength = 0 },
		func(cfg *Config) { cfg.MinProtoblocksAtNode = 0 },
		func(cfg *Config) { cfg.DefaultWidths["primary"] = -2 },
	}
	for i, modify := range broken {
		cfg := DefaultConfig()
		modify(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("Case #%d: config should be invalid", i)
		}
	}
}

func TestWidthFor(t *testing.T) {
	cfg := DefaultConfig()
	declared := 11.5
	if w := cfg.widthFor("residential", &declared); w != declared {
		t.Errorf("Declared width should win: %f, but got %f", declared, w)
	}
	if w := cfg.widthFor("unknown_class", nil); w != cfg.FallbackWidth {
		t.Errorf("Unknown class should get fallback width %f, but got %f", cfg.FallbackWidth, w)
	}
}
