package fabric

import "fmt"

// ErrorIndex is returned in place of an index when a creation call fails.
// It doubles as the reserved joint index that can never be allocated.
const ErrorIndex uint16 = 65535

const (
	JointRadius       float32 = 0.1
	AmbientJointMass  float32 = 0.1
	MinStress         float32 = 0.00001
	ClockPoints               = 16
	PhaseCycle                = 65536 // time sweep wraps once per cycle
	MuscleDirections          = 5     // rest plus four oscillation directions
	GestationDrag     float32 = 1000
	GestationSweep    float32 = 1
	clockPointShift           = 12 // 65536 / ClockPoints = 1 << 12
	faceNormalPushOut float32 = 0.7
)

// Role selects an interval's elasticity factor and whether it can push.
type Role uint8

const (
	RoleMuscle Role = iota
	RoleBar
	RoleTriangle
	RoleRing
	RoleCross
	RoleBowMid
	RoleBowEnd
	RoleCount
)

// PushCapable reports whether the role carries compressive stress.
// Everything else is a cable and goes slack in compression.
func (r Role) PushCapable() bool {
	return r == RoleMuscle || r == RoleBar
}

func (r Role) Valid() bool {
	return r < RoleCount
}

func (r Role) String() string {
	switch r {
	case RoleMuscle:
		return "muscle"
	case RoleBar:
		return "bar"
	case RoleTriangle:
		return "triangle"
	case RoleRing:
		return "ring"
	case RoleCross:
		return "cross"
	case RoleBowMid:
		return "bow-mid"
	case RoleBowEnd:
		return "bow-end"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Direction is one of the oscillation profiles a muscle follows once mature.
type Direction uint8

const (
	DirectionRest Direction = iota
	DirectionForward
	DirectionLeft
	DirectionRight
	DirectionReverse
)

func (d Direction) Valid() bool {
	return d < MuscleDirections
}

func (d Direction) String() string {
	switch d {
	case DirectionRest:
		return "rest"
	case DirectionForward:
		return "forward"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	case DirectionReverse:
		return "reverse"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Turn returns the direction reached by turning right or left from d.
// Rest turns into forward either way.
func Turn(d Direction, right bool) Direction {
	switch d {
	case DirectionForward:
		if right {
			return DirectionRight
		}
		return DirectionLeft
	case DirectionReverse:
		if right {
			return DirectionLeft
		}
		return DirectionRight
	case DirectionLeft:
		if right {
			return DirectionForward
		}
		return DirectionReverse
	case DirectionRight:
		if right {
			return DirectionReverse
		}
		return DirectionForward
	default:
		return DirectionForward
	}
}

// Laterality tags a joint as belonging to the middle, right or left of a
// bilaterally grown body.
type Laterality uint8

const (
	BilateralMiddle Laterality = iota
	BilateralRight
	BilateralLeft
)

// Growth is the state of an interval's rest entry.
type Growth uint8

const (
	Growing Growth = iota + 1
	Mature
)

// HighLow holds the two clock points (0..15) of one oscillation direction:
// where on the phase circle the span peaks and where it bottoms out.
type HighLow struct {
	High uint8
	Low  uint8
}

// DefaultHighLow puts the peak at the start of the cycle and the trough half
// way round.
var DefaultHighLow = HighLow{High: 0, Low: 8}

// ParseHighLow unpacks the legacy byte encoding, high clock point in the upper nibble.
func ParseHighLow(packed uint8) HighLow {
	return HighLow{High: packed / ClockPoints, Low: packed % ClockPoints}
}

// Packed returns the legacy byte encoding.
func (h HighLow) Packed() uint8 {
	return h.High*ClockPoints + h.Low
}

func (h HighLow) Validate() error {
	if h.High >= ClockPoints || h.Low >= ClockPoints {
		return fmt.Errorf("%w: high=%d low=%d", ErrBadClockPoint, h.High, h.Low)
	}
	return nil
}

// InstanceID addresses one instance in the arena.
type InstanceID uint16
