package fabric

import "fmt"

// CreateInterval appends an interval from alpha to omega. A positive
// idealSpan is taken as is; zero or negative means the current distance
// between the joints times |idealSpan|. Every direction's clock points start
// at DefaultHighLow.
//
// Creating an interval restarts the phase counter and puts the instance back
// into gestation. On failure it returns ErrorIndex and the instance is
// unchanged.
func (k *Kernel) CreateInterval(alpha, omega uint16, idealSpan float32, role Role, growing bool) (uint16, error) {
	s := k.f.state
	if int(s.intervalCount)+1 >= int(k.layout.MaxIntervals) {
		return ErrorIndex, ErrIntervalCapacity
	}
	if err := k.checkJoint(alpha); err != nil {
		return ErrorIndex, err
	}
	if err := k.checkJoint(omega); err != nil {
		return ErrorIndex, err
	}
	if alpha == omega {
		return ErrorIndex, fmt.Errorf("%w: joint %d", ErrSelfInterval, alpha)
	}
	if !role.Valid() {
		return ErrorIndex, fmt.Errorf("%w: %d", ErrBadRole, role)
	}
	index := s.intervalCount
	span := idealSpan
	if span <= 0 {
		span = Distance(k.f.locations[alpha], k.f.locations[omega]) * -idealSpan
	}
	iv := interval{
		alpha:     alpha,
		omega:     omega,
		role:      role,
		idealSpan: span,
		growth:    Mature,
	}
	if growing {
		iv.growth = Growing
	}
	for d := range iv.muscle {
		iv.muscle[d] = DefaultHighLow
	}
	k.f.intervals[index] = iv
	k.f.units[index] = Vector3{}
	k.f.stresses[index] = 0
	s.intervalCount++
	s.gestating = true
	s.timeSweep = 0
	k.refreshLines()
	return index, nil
}

// RemoveInterval deletes interval i, shifting every later interval down one
// slot. Indices held outside the kernel that are greater than i must be
// decremented by the caller.
func (k *Kernel) RemoveInterval(i uint16) error {
	if err := k.checkInterval(i); err != nil {
		return err
	}
	n := k.f.state.intervalCount
	copy(k.f.intervals[i:n], k.f.intervals[i+1:n])
	copy(k.f.units[i:n], k.f.units[i+1:n])
	copy(k.f.stresses[i:n], k.f.stresses[i+1:n])
	k.f.state.intervalCount--
	k.refreshLines()
	return nil
}

func (k *Kernel) IntervalCount() uint16 {
	return k.f.state.intervalCount
}

func (k *Kernel) checkInterval(i uint16) error {
	if i >= k.f.state.intervalCount {
		return fmt.Errorf("%w: interval %d of %d", ErrIndexOutOfRange, i, k.f.state.intervalCount)
	}
	return nil
}

// IntervalJoints returns the alpha and omega joint of interval i.
func (k *Kernel) IntervalJoints(i uint16) (alpha, omega uint16, err error) {
	if err := k.checkInterval(i); err != nil {
		return 0, 0, err
	}
	iv := &k.f.intervals[i]
	return iv.alpha, iv.omega, nil
}

func (k *Kernel) IntervalRoleOf(i uint16) (Role, error) {
	if err := k.checkInterval(i); err != nil {
		return 0, err
	}
	return k.f.intervals[i].role, nil
}

func (k *Kernel) SetIntervalRole(i uint16, role Role) error {
	if err := k.checkInterval(i); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %d", ErrBadRole, role)
	}
	k.f.intervals[i].role = role
	return nil
}

func (k *Kernel) IdealSpan(i uint16) (float32, error) {
	if err := k.checkInterval(i); err != nil {
		return 0, err
	}
	return k.f.intervals[i].idealSpan, nil
}

func (k *Kernel) SetIntervalIdealSpan(i uint16, span float32) error {
	if err := k.checkInterval(i); err != nil {
		return err
	}
	if span < 0 {
		return fmt.Errorf("%w: %g", ErrBadSpan, span)
	}
	k.f.intervals[i].idealSpan = span
	return nil
}

func (k *Kernel) MultiplyIntervalIdealSpan(i uint16, factor float32) error {
	if err := k.checkInterval(i); err != nil {
		return err
	}
	if factor < 0 {
		return fmt.Errorf("%w: factor %g", ErrBadSpan, factor)
	}
	k.f.intervals[i].idealSpan *= factor
	return nil
}

// MultiplyAdjacentIdealSpan scales the ideal span of every interval touching
// joint, restricted to bars when bar is set and to everything else when not.
// It returns how many intervals changed.
func (k *Kernel) MultiplyAdjacentIdealSpan(joint uint16, bar bool, factor float32) (int, error) {
	if err := k.checkJoint(joint); err != nil {
		return 0, err
	}
	if factor < 0 {
		return 0, fmt.Errorf("%w: factor %g", ErrBadSpan, factor)
	}
	changed := 0
	for i := range k.f.intervals[:k.f.state.intervalCount] {
		iv := &k.f.intervals[i]
		if iv.alpha != joint && iv.omega != joint {
			continue
		}
		if (iv.role == RoleBar) != bar {
			continue
		}
		iv.idealSpan *= factor
		changed++
	}
	return changed, nil
}

// MultiplyFaceIdealSpan applies MultiplyAdjacentIdealSpan to each joint of a
// face. An interval along a face edge is scaled twice.
func (k *Kernel) MultiplyFaceIdealSpan(f uint16, bar bool, factor float32) (int, error) {
	if err := k.checkFace(f); err != nil {
		return 0, err
	}
	total := 0
	for _, joint := range k.f.faces[f].joints {
		changed, err := k.MultiplyAdjacentIdealSpan(joint, bar, factor)
		if err != nil {
			return total, err
		}
		total += changed
	}
	return total, nil
}

// SetIntervalHighLow sets the clock points interval i follows in direction d.
// The rest direction has no clock points.
func (k *Kernel) SetIntervalHighLow(i uint16, d Direction, hl HighLow) error {
	if err := k.checkInterval(i); err != nil {
		return err
	}
	if !d.Valid() || d == DirectionRest {
		return fmt.Errorf("%w: %s has no clock points", ErrBadDirection, d)
	}
	if err := hl.Validate(); err != nil {
		return err
	}
	k.f.intervals[i].muscle[d-1] = hl
	return nil
}

func (k *Kernel) IntervalHighLow(i uint16, d Direction) (HighLow, error) {
	if err := k.checkInterval(i); err != nil {
		return HighLow{}, err
	}
	if !d.Valid() || d == DirectionRest {
		return HighLow{}, fmt.Errorf("%w: %s has no clock points", ErrBadDirection, d)
	}
	return k.f.intervals[i].muscle[d-1], nil
}

// MeasuredSpan is the current distance between the interval's joints.
func (k *Kernel) MeasuredSpan(i uint16) (float32, error) {
	if err := k.checkInterval(i); err != nil {
		return 0, err
	}
	iv := &k.f.intervals[i]
	return Distance(k.f.locations[iv.alpha], k.f.locations[iv.omega]), nil
}

// EffectiveSpan is the span interval i is currently being pulled toward,
// given its growth state and the oscillation phase.
func (k *Kernel) EffectiveSpan(i uint16) (float32, error) {
	measured, err := k.MeasuredSpan(i)
	if err != nil {
		return 0, err
	}
	return k.effectiveSpan(i, measured), nil
}

// IntervalStress is the stress computed for interval i in the last tick.
// Negative is push.
func (k *Kernel) IntervalStress(i uint16) (float32, error) {
	if err := k.checkInterval(i); err != nil {
		return 0, err
	}
	return k.f.stresses[i], nil
}

func (k *Kernel) IsGrowing(i uint16) (bool, error) {
	if err := k.checkInterval(i); err != nil {
		return false, err
	}
	return k.f.intervals[i].growth == Growing, nil
}

// FindIntervalIndex returns the interval joining the two joints in either
// order.
func (k *Kernel) FindIntervalIndex(joint0, joint1 uint16) (uint16, bool) {
	for i, iv := range k.f.intervals[:k.f.state.intervalCount] {
		if iv.alpha == joint0 && iv.omega == joint1 || iv.alpha == joint1 && iv.omega == joint0 {
			return uint16(i), true
		}
	}
	return ErrorIndex, false
}

// FindOppositeIntervalIndex returns another interval whose joints carry the
// same two tags as interval i's, in either order.
func (k *Kernel) FindOppositeIntervalIndex(i uint16) (uint16, bool) {
	if i >= k.f.state.intervalCount {
		return ErrorIndex, false
	}
	tags := k.f.tags
	tagAlpha := tags[k.f.intervals[i].alpha]
	tagOmega := tags[k.f.intervals[i].omega]
	for other, iv := range k.f.intervals[:k.f.state.intervalCount] {
		if uint16(other) == i {
			continue
		}
		a, o := tags[iv.alpha], tags[iv.omega]
		if (tagAlpha == a || tagAlpha == o) && (tagOmega == o || tagOmega == a) {
			return uint16(other), true
		}
	}
	return ErrorIndex, false
}
