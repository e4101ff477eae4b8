package world

import "testing"

func TestHexDistance(t *testing.T) {
	tests := []struct {
		a, b HexCoord
		want int
	}{
		{HexCoord{0, 0}, HexCoord{0, 0}, 0},
		{HexCoord{0, 0}, HexCoord{1, 0}, 1},
		{HexCoord{0, 0}, HexCoord{2, -1}, 2},
		{HexCoord{-3, 3}, HexCoord{3, -3}, 6},
	}
	for _, tt := range tests {
		if got := HexDistance(tt.a, tt.b); got != tt.want {
			t.Fatalf("distance %v %v: got %d want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNeighborsAreOneStepAway(t *testing.T) {
	center := HexCoord{Q: 2, R: -1}
	for _, n := range center.Neighbors() {
		if d := HexDistance(center, n); d != 1 {
			t.Fatalf("neighbor %v at distance %d", n, d)
		}
	}
}

func TestSurfaceLayout(t *testing.T) {
	s := NewSurface(1)
	if 3*HexalotRadius*(HexalotRadius+1)+1 != SpotCount {
		t.Fatalf("radius %d does not give %d spots", HexalotRadius, SpotCount)
	}
	seen := make(map[HexCoord]bool)
	for i, spot := range s.Spots {
		if seen[spot.Coord] {
			t.Fatalf("spot %d: duplicate coord %v", i, spot.Coord)
		}
		seen[spot.Coord] = true
		if spot.Coord.Ring() > HexalotRadius {
			t.Fatalf("spot %d: %v beyond radius", i, spot.Coord)
		}
		if spot.Terrain != Land {
			t.Fatalf("spot %d: got %v want land", i, spot.Terrain)
		}
	}
	if s.Spots[0].Coord != (HexCoord{}) {
		t.Fatalf("first spot: got %v want origin", s.Spots[0].Coord)
	}
}

func TestNearestSpot(t *testing.T) {
	s := NewSurface(2)
	for i, spot := range s.Spots {
		got, ok := s.NearestSpot(spot.X+0.1, spot.Z-0.1)
		if !ok || got != i {
			t.Fatalf("near spot %d: got %d, %v", i, got, ok)
		}
	}
	if _, ok := s.NearestSpot(1000, 1000); ok {
		t.Fatal("far point matched a spot")
	}
}

func TestTerrainAt(t *testing.T) {
	s := NewSurface(1)
	s.Get(HexCoord{Q: 1, R: 0}).Terrain = Water
	x, z := HexCoord{Q: 1, R: 0}.Planar(1)
	if got := s.TerrainAt(float32(x), float32(z)); got != Water {
		t.Fatalf("at water spot: got %v", got)
	}
	if got := s.TerrainAt(0, 0); got != Land {
		t.Fatalf("at origin: got %v", got)
	}
	if got := s.TerrainAt(500, 500); got != Water {
		t.Fatalf("off the lot: got %v want water", got)
	}
}

func TestGenerateSurfaceDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 42
	a := GenerateSurface(cfg)
	b := GenerateSurface(cfg)
	for i := range a.Spots {
		if a.Spots[i].Terrain != b.Spots[i].Terrain {
			t.Fatalf("spot %d differs between runs with the same seed", i)
		}
	}
	counts := a.TerrainCounts()
	if counts[Land]+counts[Water] != SpotCount {
		t.Fatalf("counts: %v", counts)
	}
}

func TestGenerateSurfaceLeavesNoPuddles(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		cfg := DefaultGenConfig()
		cfg.Seed = seed
		s := GenerateSurface(cfg)
		for _, spot := range s.Spots {
			if spot.Terrain != Water {
				continue
			}
			wet := false
			for _, nc := range spot.Coord.Neighbors() {
				if n := s.Get(nc); n != nil && n.Terrain == Water {
					wet = true
				}
			}
			if !wet {
				t.Fatalf("seed %d: lone water spot at %v", seed, spot.Coord)
			}
		}
	}
}

func TestSeaLevelExtremes(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Seed = 7
	cfg.SeaLevel = -1
	if counts := GenerateSurface(cfg).TerrainCounts(); counts[Land] != SpotCount {
		t.Fatalf("sea level below everything: %v", counts)
	}
	cfg.SeaLevel = 2
	if counts := GenerateSurface(cfg).TerrainCounts(); counts[Water] != SpotCount {
		t.Fatalf("sea level above everything: %v", counts)
	}
}
