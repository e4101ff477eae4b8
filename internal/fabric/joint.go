package fabric

import (
	"fmt"
	"math"
)

// CreateJoint appends a joint at rest at (x, y, z). When the table is full it
// returns ErrorIndex and ErrJointCapacity and the instance is unchanged.
func (k *Kernel) CreateJoint(tag uint16, laterality Laterality, x, y, z float32) (uint16, error) {
	s := k.f.state
	if int(s.jointCount)+1 >= int(k.layout.MaxJoints) {
		return ErrorIndex, ErrJointCapacity
	}
	index := s.jointCount
	k.f.locations[index] = Vector3{x, y, z}
	k.f.velocities[index] = Vector3{}
	k.f.forces[index] = Vector3{}
	k.f.masses[index] = AmbientJointMass
	k.f.laterality[index] = laterality
	k.f.tags[index] = tag
	s.jointCount++
	k.refreshMidpoint()
	k.refreshDirections()
	return index, nil
}

// NextJointTag hands out the next tag for a joint that is not a mirror of an
// existing one. Tags start at 1.
func (k *Kernel) NextJointTag() uint16 {
	s := k.f.state
	s.jointTagCount++
	return s.jointTagCount
}

func (k *Kernel) JointCount() uint16 {
	return k.f.state.jointCount
}

func (k *Kernel) checkJoint(index uint16) error {
	if index >= k.f.state.jointCount {
		return fmt.Errorf("%w: joint %d of %d", ErrIndexOutOfRange, index, k.f.state.jointCount)
	}
	return nil
}

func (k *Kernel) JointTag(index uint16) (uint16, error) {
	if err := k.checkJoint(index); err != nil {
		return 0, err
	}
	return k.f.tags[index], nil
}

func (k *Kernel) JointLaterality(index uint16) (Laterality, error) {
	if err := k.checkJoint(index); err != nil {
		return 0, err
	}
	return k.f.laterality[index], nil
}

func (k *Kernel) JointLocation(index uint16) (Vector3, error) {
	if err := k.checkJoint(index); err != nil {
		return Vector3{}, err
	}
	return k.f.locations[index], nil
}

func (k *Kernel) JointVelocity(index uint16) (Vector3, error) {
	if err := k.checkJoint(index); err != nil {
		return Vector3{}, err
	}
	return k.f.velocities[index], nil
}

// JointForce is the force accumulator. Outside of a tick it is always zero.
func (k *Kernel) JointForce(index uint16) (Vector3, error) {
	if err := k.checkJoint(index); err != nil {
		return Vector3{}, err
	}
	return k.f.forces[index], nil
}

// JointMass is the mass built up during the last tick.
func (k *Kernel) JointMass(index uint16) (float32, error) {
	if err := k.checkJoint(index); err != nil {
		return 0, err
	}
	return k.f.masses[index], nil
}

// Centralize moves the structure so the mean x and z of its joints is zero.
// Heights are left alone.
func (k *Kernel) Centralize() {
	n := int(k.f.state.jointCount)
	if n == 0 {
		return
	}
	var x, z float64
	for _, at := range k.f.locations[:n] {
		x += float64(at.X)
		z += float64(at.Z)
	}
	shiftX := float32(x / float64(n))
	shiftZ := float32(z / float64(n))
	for i := range k.f.locations[:n] {
		k.f.locations[i].X -= shiftX
		k.f.locations[i].Z -= shiftZ
	}
	k.refreshOutput()
}

// SetAltitude shifts every joint vertically so the lowest one sits exactly at
// altitude, and returns the shift applied.
func (k *Kernel) SetAltitude(altitude float32) float32 {
	n := int(k.f.state.jointCount)
	if n == 0 {
		return 0
	}
	lowest := float32(math.MaxFloat32)
	for _, at := range k.f.locations[:n] {
		if at.Y < lowest {
			lowest = at.Y
		}
	}
	shift := altitude - lowest
	for i := range k.f.locations[:n] {
		at := &k.f.locations[i]
		if at.Y == lowest {
			at.Y = altitude
			continue
		}
		at.Y += shift
		if at.Y < altitude {
			// rounding can drop a near-lowest joint under the floor
			at.Y = altitude
		}
	}
	k.refreshOutput()
	return shift
}
