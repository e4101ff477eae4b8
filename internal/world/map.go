package world

import "fmt"

const (
	// HexalotRadius gives SpotCount = 3*R*(R+1) + 1 spots.
	HexalotRadius = 6
	SpotCount     = 127
	SpotsAligned  = 128

	// SurfaceBytes is the size of the shared environment region in the arena:
	// one xyz float32 center per aligned spot, then one terrain byte each.
	SurfaceBytes = SpotsAligned*3*4 + SpotsAligned

	// maxQuadrance bounds the nearest-spot search. A point farther than this
	// from every center has no spot under it.
	maxQuadrance float32 = 10000
)

// Terrain classifies the ground under a spot.
type Terrain uint8

const (
	Water Terrain = iota
	Land
)

func (t Terrain) String() string {
	switch t {
	case Water:
		return "water"
	case Land:
		return "land"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

// Spot is one terrain sample of the hexalot.
type Spot struct {
	Coord     HexCoord `json:"coord"`
	X         float32  `json:"x"`
	Y         float32  `json:"y"`
	Z         float32  `json:"z"`
	Terrain   Terrain  `json:"terrain"`
	Elevation float64  `json:"elevation"`
}

// Surface is the hexalot, spots ordered ring by ring outward from the center.
type Surface struct {
	Spots   [SpotCount]Spot `json:"spots"`
	Spacing float64         `json:"spacing"`

	index map[HexCoord]int
}

// NewSurface lays out the spots with every one set to land.
func NewSurface(spacing float64) *Surface {
	s := &Surface{Spacing: spacing, index: make(map[HexCoord]int, SpotCount)}
	n := 0
	for ring := 0; ring <= HexalotRadius; ring++ {
		for _, coord := range ringCoords(ring) {
			x, z := coord.Planar(spacing)
			s.Spots[n] = Spot{Coord: coord, X: float32(x), Z: float32(z), Terrain: Land}
			s.index[coord] = n
			n++
		}
	}
	return s
}

// ringCoords lists the coordinates exactly ring steps from the origin.
func ringCoords(ring int) []HexCoord {
	if ring == 0 {
		return []HexCoord{{}}
	}
	coords := make([]HexCoord, 0, 6*ring)
	at := HexCoord{Q: HexNeighborDirections[4].Q * ring, R: HexNeighborDirections[4].R * ring}
	for side := 0; side < 6; side++ {
		for step := 0; step < ring; step++ {
			coords = append(coords, at)
			dir := HexNeighborDirections[side]
			at = HexCoord{Q: at.Q + dir.Q, R: at.R + dir.R}
		}
	}
	return coords
}

// Get returns the spot at coord, or nil when it is off the hexalot.
func (s *Surface) Get(coord HexCoord) *Spot {
	i, ok := s.index[coord]
	if !ok {
		return nil
	}
	return &s.Spots[i]
}

// NearestSpot returns the spot whose center is closest to (x, z) on the
// horizontal plane.
func (s *Surface) NearestSpot(x, z float32) (int, bool) {
	best := maxQuadrance
	nearest := -1
	for i := range s.Spots {
		dx := s.Spots[i].X - x
		dz := s.Spots[i].Z - z
		if q := dx*dx + dz*dz; q < best {
			best = q
			nearest = i
		}
	}
	return nearest, nearest >= 0
}

// TerrainAt classifies the ground under (x, z). Off the hexalot is water.
func (s *Surface) TerrainAt(x, z float32) Terrain {
	i, ok := s.NearestSpot(x, z)
	if !ok {
		return Water
	}
	return s.Spots[i].Terrain
}

// TerrainCounts tallies the spots per terrain.
func (s *Surface) TerrainCounts() map[Terrain]int {
	counts := make(map[Terrain]int, 2)
	for i := range s.Spots {
		counts[s.Spots[i].Terrain]++
	}
	return counts
}

func (s *Surface) String() string {
	counts := s.TerrainCounts()
	return fmt.Sprintf("Surface(spots=%d, land=%d, water=%d)", SpotCount, counts[Land], counts[Water])
}
