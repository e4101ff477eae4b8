package fabric

import (
	"fmt"

	"github.com/elastic-interval/pretenst-sub000/internal/physics"
)

// Range is a closed interval of stress magnitudes.
type Range struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

func (r Range) contains(v float32) bool {
	return v >= r.Min && v <= r.Max
}

// Limits are the adaptive bounds the line colors are scaled against. Push
// bounds apply to the magnitude of compressive stress, pull bounds to
// tensile stress.
type Limits struct {
	Push Range `json:"push"`
	Pull Range `json:"pull"`
}

func limitsFromConfig(c physics.LimitConfig) Limits {
	return Limits{
		Push: Range{Min: c.MinPush, Max: c.MaxPush},
		Pull: Range{Min: c.MinPull, Max: c.MaxPull},
	}
}

// Bound names one of the four limits, in the order the controller considers
// them.
type Bound uint8

const (
	MaxPush Bound = iota
	MinPush
	MaxPull
	MinPull
	boundCount
)

func (b Bound) String() string {
	switch b {
	case MaxPush:
		return "max-push"
	case MinPush:
		return "min-push"
	case MaxPull:
		return "max-pull"
	case MinPull:
		return "min-pull"
	default:
		return fmt.Sprintf("bound(%d)", uint8(b))
	}
}

func (b Bound) isMax() bool {
	return b == MaxPush || b == MaxPull
}

// LimitSignal is the single adjustment made after an Iterate batch.
type LimitSignal uint8

const (
	WithinLimits LimitSignal = iota

	// A stress lies beyond the bound, which moves outward.
	RaiseMaxPush
	LowerMinPush
	RaiseMaxPull
	LowerMinPull

	// Nothing touches the bound, which moves inward.
	LowerMaxPush
	RaiseMinPush
	LowerMaxPull
	RaiseMinPull
)

var grossSignals = [boundCount]LimitSignal{RaiseMaxPush, LowerMinPush, RaiseMaxPull, LowerMinPull}
var tightenSignals = [boundCount]LimitSignal{LowerMaxPush, RaiseMinPush, LowerMaxPull, RaiseMinPull}

func (s LimitSignal) String() string {
	switch s {
	case WithinLimits:
		return "within-limits"
	case RaiseMaxPush:
		return "raise-max-push"
	case LowerMinPush:
		return "lower-min-push"
	case RaiseMaxPull:
		return "raise-max-pull"
	case LowerMinPull:
		return "lower-min-pull"
	case LowerMaxPush:
		return "lower-max-push"
	case RaiseMinPush:
		return "raise-min-push"
	case LowerMaxPull:
		return "lower-max-pull"
	case RaiseMinPull:
		return "raise-min-pull"
	default:
		return fmt.Sprintf("signal(%d)", uint8(s))
	}
}

// Gross reports whether the signal answered a stress outside the bounds.
func (s LimitSignal) Gross() bool {
	return s >= RaiseMaxPush && s <= LowerMinPull
}

// LimitReport is what one batch of ticks looked like against the limits it
// ran under.
type LimitReport struct {
	Signal    LimitSignal     `json:"signal"`
	Limits    Limits          `json:"limits"`   // bounds after the adjustment
	Observed  Limits          `json:"observed"` // actual extremes per class
	PushCount int             `json:"push_count"`
	PullCount int             `json:"pull_count"`
	Slack     int             `json:"slack"`
	Touches   [boundCount]int `json:"touches"`
	Violating [boundCount]int `json:"violating"`
}

// TouchCount returns how many intervals sat within tolerance of bound b without
// crossing it.
func (r LimitReport) TouchCount(b Bound) int {
	return r.Touches[b]
}

// classify sorts stresses into push, pull and slack and counts, per bound,
// the intervals crossing it and those touching it.
func classify(stresses []float32, limits Limits, tolerance float32) LimitReport {
	r := LimitReport{Limits: limits}
	first := [2]bool{true, true}
	for _, stress := range stresses {
		var magnitude float32
		var class Range
		var maxBound, minBound Bound
		var observed *Range
		var slot int
		switch {
		case stress < -MinStress:
			magnitude = -stress
			class, maxBound, minBound, observed, slot = limits.Push, MaxPush, MinPush, &r.Observed.Push, 0
			r.PushCount++
		case stress > MinStress:
			magnitude = stress
			class, maxBound, minBound, observed, slot = limits.Pull, MaxPull, MinPull, &r.Observed.Pull, 1
			r.PullCount++
		default:
			r.Slack++
			continue
		}
		if first[slot] {
			*observed = Range{Min: magnitude, Max: magnitude}
			first[slot] = false
		} else {
			observed.Min = min(observed.Min, magnitude)
			observed.Max = max(observed.Max, magnitude)
		}
		switch {
		case magnitude > class.Max:
			r.Violating[maxBound]++
		case class.Max-magnitude <= tolerance:
			r.Touches[maxBound]++
		}
		switch {
		case magnitude < class.Min:
			r.Violating[minBound]++
		case magnitude-class.Min <= tolerance:
			r.Touches[minBound]++
		}
	}
	return r
}

// adjust makes at most one move. A crossed bound moves outward first, in
// Bound order. Otherwise the first untouched bound of a populated class moves
// inward, unless that would bring its pair closer than twice the tolerance or
// cut into the stresses it encloses.
func adjust(l Limits, r LimitReport, step, tolerance float32) (Limits, LimitSignal) {
	populated := func(b Bound) bool {
		if b == MaxPush || b == MinPush {
			return r.PushCount > 0
		}
		return r.PullCount > 0
	}
	for b := Bound(0); b < boundCount; b++ {
		if r.Violating[b] > 0 {
			return move(l, b, !b.isMax(), step), grossSignals[b]
		}
	}
	for b := Bound(0); b < boundCount; b++ {
		if !populated(b) || r.Touches[b] > 0 {
			continue
		}
		next := move(l, b, b.isMax(), step)
		class, observed := next.Push, r.Observed.Push
		if b == MaxPull || b == MinPull {
			class, observed = next.Pull, r.Observed.Pull
		}
		if class.Max-class.Min < 2*tolerance {
			continue
		}
		if class.Max < observed.Max || class.Min > observed.Min {
			continue
		}
		return next, tightenSignals[b]
	}
	return l, WithinLimits
}

// move shifts bound b down by step when lower is set, up otherwise. Minimums
// never go below zero.
func move(l Limits, b Bound, lower bool, step float32) Limits {
	delta := step
	if lower {
		delta = -step
	}
	switch b {
	case MaxPush:
		l.Push.Max += delta
	case MinPush:
		l.Push.Min = max(0, l.Push.Min+delta)
	case MaxPull:
		l.Pull.Max += delta
	case MinPull:
		l.Pull.Min = max(0, l.Pull.Min+delta)
	}
	return l
}

// Limits returns the current stress bounds.
func (k *Kernel) Limits() Limits {
	return k.limits
}

// SetLimits replaces the stress bounds, for instance when restoring a
// snapshot.
func (k *Kernel) SetLimits(l Limits) {
	k.limits = l
}

// LimitReport describes the controller's last batch.
func (k *Kernel) LimitReport() LimitReport {
	return k.report
}

func (k *Kernel) controlLimits() {
	c := k.cfg.Limits
	stresses := k.f.stresses[:k.f.state.intervalCount]
	report := classify(stresses, k.limits, c.Tolerance)
	k.limits, report.Signal = adjust(k.limits, report, c.Step, c.Tolerance)
	report.Limits = k.limits
	k.report = report
}
