package fabric

import (
	"log/slog"

	"github.com/elastic-interval/pretenst-sub000/internal/world"
)

// Iterate runs ticks sub-steps and returns whether the phase counter wrapped
// during any of them. Each wrap matures every growing interval and, once
// gestation has ended, rolls the oscillation direction over to the next one.
//
// After the batch the stress-limit controller makes at most one adjustment
// and every output buffer is rewritten.
func (k *Kernel) Iterate(ticks uint16) bool {
	s := k.f.state
	gestating := s.gestating
	speed := k.cfg.SpanVariationSpeed
	if gestating {
		speed *= GestationSweep
	}
	step := uint16(speed)
	if step == 0 {
		step = 1
	}
	wrapped := false
	for i := uint16(0); i < ticks; i++ {
		before := s.timeSweep
		s.timeSweep += step
		if s.timeSweep < before {
			wrapped = true
			s.timeSweep = 0
			k.mature()
			if !s.gestating {
				s.previousDirection = s.currentDirection
				s.currentDirection = s.nextDirection
			}
		}
		k.tick(gestating)
	}
	s.age += uint32(ticks)
	k.controlLimits()
	k.refreshOutput()
	return wrapped
}

func (k *Kernel) mature() {
	for i := range k.f.intervals[:k.f.state.intervalCount] {
		if k.f.intervals[i].growth == Growing {
			k.f.intervals[i].growth = Mature
		}
	}
}

// tick is one step of the integrator: interval forces and masses, then
// velocities, then positions. Forces are zeroed as they are consumed and
// masses fall back to the ambient floor once positions move.
func (k *Kernel) tick(gestating bool) {
	f := &k.f
	for i := uint16(0); i < f.state.intervalCount; i++ {
		k.intervalPhysics(i)
	}
	dragAbove := k.cfg.DragAbove
	if gestating {
		dragAbove *= GestationDrag
	}
	joints := f.state.jointCount
	for j := uint16(0); j < joints; j++ {
		k.jointPhysics(j, dragAbove)
		f.velocities[j] = f.velocities[j].AddScaled(f.forces[j], 1/f.masses[j])
		f.forces[j] = Vector3{}
	}
	for j := uint16(0); j < joints; j++ {
		f.locations[j] = f.locations[j].Add(f.velocities[j])
		f.masses[j] = AmbientJointMass
	}
}

func (k *Kernel) intervalPhysics(i uint16) {
	f := &k.f
	iv := &f.intervals[i]
	delta := f.locations[iv.omega].Sub(f.locations[iv.alpha])
	measured := delta.Length()
	unit := delta.Scale(1 / measured)
	f.units[i] = unit
	effective := k.effectiveSpan(i, measured)
	stress := (measured - effective) * f.state.elastic[iv.role] * k.cfg.GlobalElastic
	if stress < 0 && !iv.role.PushCapable() {
		stress = 0
	}
	f.stresses[i] = stress
	f.forces[iv.alpha] = f.forces[iv.alpha].AddScaled(unit, stress/2)
	f.forces[iv.omega] = f.forces[iv.omega].AddScaled(unit, -stress/2)
	half := effective * effective * effective / 2
	f.masses[iv.alpha] += half
	f.masses[iv.omega] += half
}

// jointPhysics applies gravity and drag for the regime the joint is in:
// above the surface, straddling it, or under it.
func (k *Kernel) jointPhysics(j uint16, dragAbove float32) {
	cfg := &k.cfg
	velocity := &k.f.velocities[j]
	altitude := k.f.locations[j].Y
	if altitude > JointRadius {
		velocity.Y -= cfg.GravityAbove
		*velocity = velocity.Scale(1 - dragAbove)
		return
	}
	land := k.terrainUnder(j) == world.Land
	gravityBelow, dragBelow := cfg.GravityBelowWater, cfg.DragBelowWater
	if land {
		gravityBelow, dragBelow = cfg.GravityBelowLand, cfg.DragBelowLand
	}
	if altitude > -JointRadius {
		degreeAbove := (altitude + JointRadius) / (JointRadius * 2)
		degreeBelow := 1 - degreeAbove
		if velocity.Y < 0 && land {
			*velocity = velocity.Scale(degreeAbove)
		}
		velocity.Y -= cfg.GravityAbove*degreeAbove + gravityBelow*degreeBelow
		drag := dragAbove*degreeAbove + dragBelow*degreeBelow
		*velocity = velocity.Scale(1 - drag)
		return
	}
	if velocity.Y < 0 && land {
		*velocity = Vector3{}
	} else {
		velocity.Y -= gravityBelow
	}
	*velocity = velocity.Scale(1 - dragBelow)
}

// terrainUnder classifies the ground beneath joint j. Unless terrain
// classification is switched on, everything is land.
func (k *Kernel) terrainUnder(j uint16) world.Terrain {
	if !k.cfg.ClassifyTerrain || k.surface == nil {
		return world.Land
	}
	at := k.f.locations[j]
	return k.surface.TerrainAt(at.X, at.Z)
}

// EndGestation removes the hanger, joint 0, along with every interval and
// face attached to it. All remaining joint indices drop by one, and interval
// and face indices are compacted. Callers must rebuild any indices they hold.
// It can happen once per structure.
func (k *Kernel) EndGestation() error {
	s := k.f.state
	if s.born {
		return ErrAlreadyBorn
	}
	if s.jointCount == 0 {
		return ErrNoHanger
	}
	const hanger = 0
	f := &k.f

	kept := uint16(0)
	for i := uint16(0); i < s.intervalCount; i++ {
		iv := f.intervals[i]
		if iv.alpha == hanger || iv.omega == hanger {
			continue
		}
		iv.alpha--
		iv.omega--
		f.intervals[kept] = iv
		f.units[kept] = f.units[i]
		f.stresses[kept] = f.stresses[i]
		kept++
	}
	removedIntervals := s.intervalCount - kept
	s.intervalCount = kept

	kept = 0
	for i := uint16(0); i < s.faceCount; i++ {
		fc := f.faces[i]
		if fc.joints[0] == hanger || fc.joints[1] == hanger || fc.joints[2] == hanger {
			continue
		}
		for n := range fc.joints {
			fc.joints[n]--
		}
		f.faces[kept] = fc
		kept++
	}
	removedFaces := s.faceCount - kept
	s.faceCount = kept

	n := s.jointCount
	copy(f.locations[:n], f.locations[1:n])
	copy(f.velocities[:n], f.velocities[1:n])
	copy(f.forces[:n], f.forces[1:n])
	copy(f.masses[:n], f.masses[1:n])
	copy(f.laterality[:n], f.laterality[1:n])
	copy(f.tags[:n], f.tags[1:n])
	s.jointCount--

	s.gestating = false
	s.born = true
	k.refreshOutput()
	slog.Debug("gestation ended",
		"instance", k.current,
		"joints", s.jointCount,
		"intervals_removed", removedIntervals,
		"faces_removed", removedFaces,
	)
	return nil
}
