// Package phi provides the golden-ratio constants seed geometry is built from.
package phi

import "math"

// Phi is the golden ratio.
const Phi = 1.6180339887498948

var (
	// Matter (Φ⁻¹) is the ratio of a seed's ring cable to its bar.
	Matter = math.Pow(Phi, -1) // 0.61803...

	// BarSpan (2Φ) is the ideal length of a seed bar.
	BarSpan = 2 * Phi

	// SeedRadius puts the corners of a seed ring a bar's length across.
	SeedRadius = Phi
)

// SeedCorners is the pentad: a seed ring has five corners.
const SeedCorners = 5

// HangerAltitude is how high the growth anchor hangs above the ring.
var HangerAltitude = math.Pow(Phi, 2) // 2.61803...
