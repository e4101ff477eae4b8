package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds surface generation parameters.
type GenConfig struct {
	Seed     int64   `yaml:"seed"`      // 0 = random
	Spacing  float64 `yaml:"spacing"`   // distance between neighboring spot centers
	SeaLevel float64 `yaml:"sea_level"` // elevation below which a spot is water (0.0–1.0)
}

func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:     0,
		Spacing:  1,
		SeaLevel: 0.35,
	}
}

// GenerateSurface samples octave noise at every spot center. Spots under sea
// level are water, and the edge of the hexalot is pulled down so the lot
// tends to be an island.
func GenerateSurface(cfg GenConfig) *Surface {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	noise := opensimplex.NewNormalized(seed)
	s := NewSurface(cfg.Spacing)
	for i := range s.Spots {
		spot := &s.Spots[i]
		x, z := spot.Coord.Planar(1)
		elev := octaveNoise(noise, x, z, 4, 0.15, 0.5)
		edge := float64(spot.Coord.Ring()) / HexalotRadius
		elev *= 1 - edge*edge*0.5
		spot.Elevation = elev
		spot.Terrain = Land
		if elev < cfg.SeaLevel {
			spot.Terrain = Water
		}
	}
	fillPuddles(s)
	return s
}

// fillPuddles turns water spots with no water neighbor into land.
func fillPuddles(s *Surface) {
	var toFill []int
	for i := range s.Spots {
		if s.Spots[i].Terrain != Water {
			continue
		}
		lone := true
		for _, nc := range s.Spots[i].Coord.Neighbors() {
			if n := s.Get(nc); n != nil && n.Terrain == Water {
				lone = false
				break
			}
		}
		if lone {
			toFill = append(toFill, i)
		}
	}
	for _, i := range toFill {
		s.Spots[i].Terrain = Land
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
