// Package world is the environment shared by every fabric instance: a hexalot
// of terrain spots on an axial hex grid, each either land or water.
package world

import "math"

// HexCoord is a spot position in axial coordinates. The third cube
// coordinate is s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func (h HexCoord) S() int {
	return -h.Q - h.R
}

// HexNeighborDirections are the six neighbor offsets.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Ring returns the number of steps from the origin.
func (h HexCoord) Ring() int {
	return HexDistance(h, HexCoord{})
}

// HexDistance is the number of steps between two coordinates.
func HexDistance(a, b HexCoord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// Planar maps a coordinate to the horizontal plane, x along q and z along r,
// with neighboring centers spacing apart.
func (h HexCoord) Planar(spacing float64) (x, z float64) {
	x = (float64(h.Q) + float64(h.R)*0.5) * spacing
	z = float64(h.R) * math.Sqrt(3.0) / 2.0 * spacing
	return x, z
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
