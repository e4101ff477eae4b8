package physics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestScaleAppliesFactorToBaseline(t *testing.T) {
	cfg := Default()
	cfg.DragAbove = 0.5 // already rescaled once; the factor still applies to the baseline

	next, value := cfg.Scale(DragAbove, 2)
	if value != Default().DragAbove*2 {
		t.Fatalf("drag above: got %v want %v", value, Default().DragAbove*2)
	}
	if next.DragAbove != value {
		t.Fatalf("config not updated: got %v want %v", next.DragAbove, value)
	}
	if cfg.DragAbove != 0.5 {
		t.Fatalf("original config mutated: %v", cfg.DragAbove)
	}
}

func TestScaleEveryFeature(t *testing.T) {
	base := Default()
	for f := Feature(0); f < FeatureCount; f++ {
		next, value := base.Scale(f, 3)
		if want := base.Value(f) * 3; value != want {
			t.Fatalf("%s: got %v want %v", f, value, want)
		}
		if next.Value(f) != value {
			t.Fatalf("%s: stored %v, returned %v", f, next.Value(f), value)
		}
	}
}

func TestScaleUnknownFeature(t *testing.T) {
	base := Default()
	next, value := base.Scale(FeatureCount, 2)
	if value != 0 || next != base {
		t.Fatalf("unknown feature changed config: %v %+v", value, next)
	}
}

func TestParseFeature(t *testing.T) {
	for f := Feature(0); f < FeatureCount; f++ {
		got, err := ParseFeature(f.String())
		if err != nil || got != f {
			t.Fatalf("parse %q: got %v, %v", f.String(), got, err)
		}
	}
	if _, err := ParseFeature("levitation"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown name: got %v want ErrInvalid", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative drag", func(c *Config) { c.DragBelowLand = -0.1 }},
		{"drag above one", func(c *Config) { c.DragAbove = 1.5 }},
		{"zero elastic", func(c *Config) { c.GlobalElastic = 0 }},
		{"zero speed", func(c *Config) { c.SpanVariationSpeed = 0 }},
		{"variation of one", func(c *Config) { c.MaxSpanVariation = 1 }},
		{"step beyond tolerance", func(c *Config) { c.Limits.Step = c.Limits.Tolerance * 2 }},
		{"inverted push", func(c *Config) { c.Limits.MinPush = 1; c.Limits.MaxPush = 0.5 }},
		{"negative pull", func(c *Config) { c.Limits.MinPull = -1 }},
		{"speed beyond phase range", func(c *Config) { c.SpanVariationSpeed = 90000 }},
		{"nan drag", func(c *Config) { c.DragAbove = float32(math.NaN()) }},
		{"infinite gravity", func(c *Config) { c.GravityAbove = float32(math.Inf(1)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("got %v want ErrInvalid", err)
			}
		})
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.yaml")
	doc := "drag_above: 0.0002\nclassify_terrain: true\nlimits:\n  max_pull: 0.2\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.DragAbove != 0.0002 {
		t.Fatalf("drag above: got %v want 0.0002", cfg.DragAbove)
	}
	if !cfg.ClassifyTerrain {
		t.Fatal("classify_terrain not read")
	}
	if cfg.Limits.MaxPull != 0.2 {
		t.Fatalf("max pull: got %v want 0.2", cfg.Limits.MaxPull)
	}
	if cfg.Limits.Tolerance != def.Limits.Tolerance || cfg.GravityAbove != def.GravityAbove {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.yaml")
	if err := os.WriteFile(path, []byte("global_elastic: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v want ErrInvalid", err)
	}
}
