// Package physics holds the tunable constants of the fabric integrator.
// A Config is a plain value: changing a feature returns a new Config.
package physics

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("physics: invalid config")

// Config holds drag and gravity for each regime, elasticity and oscillation
// settings, and the tuning of the stress-limit controller.
type Config struct {
	GravityAbove      float32 `yaml:"gravity_above"`
	DragAbove         float32 `yaml:"drag_above"`
	GravityBelowLand  float32 `yaml:"gravity_below_land"`
	DragBelowLand     float32 `yaml:"drag_below_land"`
	GravityBelowWater float32 `yaml:"gravity_below_water"`
	DragBelowWater    float32 `yaml:"drag_below_water"`

	GlobalElastic      float32 `yaml:"global_elastic"`
	MaxSpanVariation   float32 `yaml:"max_span_variation"`
	SpanVariationSpeed float32 `yaml:"span_variation_speed"` // phase steps per tick

	// ClassifyTerrain looks up land or water under joints near the surface.
	// Off, everything is land.
	ClassifyTerrain bool `yaml:"classify_terrain"`

	Limits LimitConfig `yaml:"limits"`
}

// LimitConfig tunes the stress-limit controller. Step must not exceed
// Tolerance or a bound can jump over the stress it is closing on.
type LimitConfig struct {
	Tolerance float32 `yaml:"tolerance"`
	Step      float32 `yaml:"step"`
	MinPush   float32 `yaml:"min_push"`
	MaxPush   float32 `yaml:"max_push"`
	MinPull   float32 `yaml:"min_pull"`
	MaxPull   float32 `yaml:"max_pull"`
}

// Default returns the baseline every feature factor is applied to.
func Default() Config {
	return Config{
		GravityAbove:       0.000008,
		DragAbove:          0.00008,
		GravityBelowLand:   -0.005,
		DragBelowLand:      0.96,
		GravityBelowWater:  -0.00001,
		DragBelowWater:     0.001,
		GlobalElastic:      1.0,
		MaxSpanVariation:   0.1,
		SpanVariationSpeed: 30,
		Limits: LimitConfig{
			Tolerance: 0.001,
			Step:      0.001,
			MinPush:   0,
			MaxPush:   0.05,
			MinPull:   0,
			MaxPull:   0.05,
		},
	}
}

// Load reads a YAML config. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for f := Feature(0); f < FeatureCount; f++ {
		if v := float64(c.Value(f)); math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalid, f)
		}
	}
	for name, drag := range map[string]float32{
		"drag_above":       c.DragAbove,
		"drag_below_land":  c.DragBelowLand,
		"drag_below_water": c.DragBelowWater,
	} {
		if drag < 0 || drag > 1 {
			return fmt.Errorf("%w: %s %g outside [0, 1]", ErrInvalid, name, drag)
		}
	}
	if c.GlobalElastic <= 0 {
		return fmt.Errorf("%w: global_elastic %g", ErrInvalid, c.GlobalElastic)
	}
	if c.MaxSpanVariation < 0 || c.MaxSpanVariation >= 1 {
		return fmt.Errorf("%w: max_span_variation %g outside [0, 1)", ErrInvalid, c.MaxSpanVariation)
	}
	if c.SpanVariationSpeed < 1 || c.SpanVariationSpeed >= 65536 {
		return fmt.Errorf("%w: span_variation_speed %g", ErrInvalid, c.SpanVariationSpeed)
	}
	l := c.Limits
	if l.Tolerance <= 0 {
		return fmt.Errorf("%w: limits.tolerance %g", ErrInvalid, l.Tolerance)
	}
	if l.Step <= 0 || l.Step > l.Tolerance {
		return fmt.Errorf("%w: limits.step %g must be in (0, tolerance]", ErrInvalid, l.Step)
	}
	if l.MinPush < 0 || l.MinPush > l.MaxPush {
		return fmt.Errorf("%w: push limits [%g, %g]", ErrInvalid, l.MinPush, l.MaxPush)
	}
	if l.MinPull < 0 || l.MinPull > l.MaxPull {
		return fmt.Errorf("%w: pull limits [%g, %g]", ErrInvalid, l.MinPull, l.MaxPull)
	}
	return nil
}

// Feature names one scalable constant.
type Feature uint8

const (
	GravityAbove Feature = iota
	DragAbove
	GravityBelowLand
	DragBelowLand
	GravityBelowWater
	DragBelowWater
	GlobalElastic
	MaxSpanVariation
	SpanVariationSpeed
	FeatureCount
)

var featureNames = [FeatureCount]string{
	"gravity_above",
	"drag_above",
	"gravity_below_land",
	"drag_below_land",
	"gravity_below_water",
	"drag_below_water",
	"global_elastic",
	"max_span_variation",
	"span_variation_speed",
}

func (f Feature) String() string {
	if f < FeatureCount {
		return featureNames[f]
	}
	return fmt.Sprintf("feature(%d)", uint8(f))
}

// ParseFeature maps a name as printed by String back to its Feature.
func ParseFeature(name string) (Feature, error) {
	for f, n := range featureNames {
		if n == name {
			return Feature(f), nil
		}
	}
	return FeatureCount, fmt.Errorf("%w: unknown feature %q", ErrInvalid, name)
}

// Scale returns a copy of c with the feature set to factor times its
// default, along with the new value. An unknown feature leaves c as is.
func (c Config) Scale(f Feature, factor float32) (Config, float32) {
	base := Default()
	var field *float32
	var baseline float32
	switch f {
	case GravityAbove:
		field, baseline = &c.GravityAbove, base.GravityAbove
	case DragAbove:
		field, baseline = &c.DragAbove, base.DragAbove
	case GravityBelowLand:
		field, baseline = &c.GravityBelowLand, base.GravityBelowLand
	case DragBelowLand:
		field, baseline = &c.DragBelowLand, base.DragBelowLand
	case GravityBelowWater:
		field, baseline = &c.GravityBelowWater, base.GravityBelowWater
	case DragBelowWater:
		field, baseline = &c.DragBelowWater, base.DragBelowWater
	case GlobalElastic:
		field, baseline = &c.GlobalElastic, base.GlobalElastic
	case MaxSpanVariation:
		field, baseline = &c.MaxSpanVariation, base.MaxSpanVariation
	case SpanVariationSpeed:
		field, baseline = &c.SpanVariationSpeed, base.SpanVariationSpeed
	default:
		return c, 0
	}
	*field = baseline * factor
	return c, *field
}

// Value returns the current value of a feature.
func (c Config) Value(f Feature) float32 {
	switch f {
	case GravityAbove:
		return c.GravityAbove
	case DragAbove:
		return c.DragAbove
	case GravityBelowLand:
		return c.GravityBelowLand
	case DragBelowLand:
		return c.DragBelowLand
	case GravityBelowWater:
		return c.GravityBelowWater
	case DragBelowWater:
		return c.DragBelowWater
	case GlobalElastic:
		return c.GlobalElastic
	case MaxSpanVariation:
		return c.MaxSpanVariation
	case SpanVariationSpeed:
		return c.SpanVariationSpeed
	default:
		return 0
	}
}
