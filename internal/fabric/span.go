package fabric

// advance moves a clock position once around the phase circle.
func advance(clockPoint uint32) uint32 {
	return clockPoint + PhaseCycle
}

// spanVariation places the two clock points of hl on the phase circle and
// returns how far timeSweep sits between them, scaled into
// [-maxVariation, +maxVariation]: +max at the high point, -max at the low.
func spanVariation(hl HighLow, timeSweep uint16, maxVariation float32) float32 {
	high := uint32(hl.High) << clockPointShift
	low := uint32(hl.Low) << clockPointShift
	if high == low {
		low += 1 << clockPointShift
	}
	t := uint32(timeSweep)
	var fromHigh, fromLow uint32
	switch {
	case t == low:
		fromHigh, fromLow = 1, 0
	case t == high:
		fromHigh, fromLow = 0, 1
	case low < high:
		switch {
		case t > low && t < high: // L-t-H
			fromLow = t - low
			fromHigh = high - t
		case t > low: // L-H-t
			fromLow = advance(low) - t
			fromHigh = t - high
		default: // t-L-H
			fromLow = low - t
			fromHigh = advance(t) - high
		}
	default:
		switch {
		case t > high && t < low: // H-t-L
			fromHigh = t - high
			fromLow = low - t
		case t > high: // H-L-t
			fromHigh = advance(high) - t
			fromLow = t - low
		default: // t-H-L
			fromHigh = high - t
			fromLow = advance(t) - low
		}
	}
	both := float32(fromHigh + fromLow)
	degreeHigh := float32(fromLow) / both
	degreeLow := float32(fromHigh) / both
	return degreeHigh*maxVariation - degreeLow*maxVariation
}

// directionVariation is the variation an interval follows in direction d.
// Rest never varies.
func (k *Kernel) directionVariation(iv *interval, d Direction) float32 {
	if d == DirectionRest {
		return 0
	}
	return spanVariation(iv.muscle[d-1], k.f.state.timeSweep, k.cfg.MaxSpanVariation)
}

// effectiveSpan is the span interval i is being pulled toward right now.
// A growing interval blends from its measured span to its ideal as the phase
// runs 0 to 1. A mature muscle oscillates around its ideal, blending between
// the previous and current direction while they differ.
func (k *Kernel) effectiveSpan(i uint16, measured float32) float32 {
	iv := &k.f.intervals[i]
	s := k.f.state
	progress := float32(s.timeSweep) / PhaseCycle
	if iv.growth == Growing {
		return measured*(1-progress) + iv.idealSpan*progress
	}
	if iv.role != RoleMuscle {
		return iv.idealSpan
	}
	current := k.directionVariation(iv, s.currentDirection)
	if s.previousDirection == s.currentDirection {
		return iv.idealSpan + iv.idealSpan*current
	}
	previous := k.directionVariation(iv, s.previousDirection)
	return iv.idealSpan + iv.idealSpan*(progress*current+(1-progress)*previous)
}
