package fabric

import "fmt"

// CreateFace appends a triangle over three joints and computes its geometry.
// On failure it returns ErrorIndex and the instance is unchanged.
func (k *Kernel) CreateFace(joint0, joint1, joint2 uint16) (uint16, error) {
	s := k.f.state
	if int(s.faceCount)+1 >= int(k.layout.MaxFaces) {
		return ErrorIndex, ErrFaceCapacity
	}
	for _, joint := range [3]uint16{joint0, joint1, joint2} {
		if err := k.checkJoint(joint); err != nil {
			return ErrorIndex, err
		}
	}
	index := s.faceCount
	k.f.faces[index] = face{joints: [3]uint16{joint0, joint1, joint2}}
	s.faceCount++
	k.faceGeometry(index)
	return index, nil
}

// RemoveFace deletes face f, shifting every later face down one slot. Face
// indices held outside the kernel that are greater than f must be
// decremented by the caller.
func (k *Kernel) RemoveFace(f uint16) error {
	if err := k.checkFace(f); err != nil {
		return err
	}
	n := k.f.state.faceCount
	copy(k.f.faces[f:n], k.f.faces[f+1:n])
	k.f.state.faceCount--
	for i := f; i < k.f.state.faceCount; i++ {
		k.faceGeometry(i)
	}
	return nil
}

func (k *Kernel) FaceCount() uint16 {
	return k.f.state.faceCount
}

func (k *Kernel) checkFace(f uint16) error {
	if f >= k.f.state.faceCount {
		return fmt.Errorf("%w: face %d of %d", ErrIndexOutOfRange, f, k.f.state.faceCount)
	}
	return nil
}

// FaceJointIndex returns corner n (0, 1 or 2) of face f.
func (k *Kernel) FaceJointIndex(f uint16, n int) (uint16, error) {
	if err := k.checkFace(f); err != nil {
		return 0, err
	}
	if n < 0 || n > 2 {
		return 0, fmt.Errorf("%w: face corner %d", ErrIndexOutOfRange, n)
	}
	return k.f.faces[f].joints[n], nil
}

// FindOppositeFaceIndex returns another face whose joints carry the same three
// tags as face f's, in any order.
func (k *Kernel) FindOppositeFaceIndex(f uint16) (uint16, bool) {
	if f >= k.f.state.faceCount {
		return ErrorIndex, false
	}
	want := k.faceTags(f)
	for other := uint16(0); other < k.f.state.faceCount; other++ {
		if other == f {
			continue
		}
		have := k.faceTags(other)
		matched := true
		for _, tag := range want {
			if tag != have[0] && tag != have[1] && tag != have[2] {
				matched = false
				break
			}
		}
		if matched {
			return other, true
		}
	}
	return ErrorIndex, false
}

func (k *Kernel) faceTags(f uint16) [3]uint16 {
	j := k.f.faces[f].joints
	return [3]uint16{k.f.tags[j[0]], k.f.tags[j[1]], k.f.tags[j[2]]}
}

// FaceAverageIdealSpan is the mean ideal span of the three intervals along the
// face's edges. Every edge must have an interval.
func (k *Kernel) FaceAverageIdealSpan(f uint16) (float32, error) {
	if err := k.checkFace(f); err != nil {
		return 0, err
	}
	j := k.f.faces[f].joints
	var sum float32
	for n := range j {
		a, b := j[n], j[(n+1)%3]
		i, ok := k.FindIntervalIndex(a, b)
		if !ok {
			return 0, fmt.Errorf("%w: %d-%d on face %d", ErrIntervalNotFound, a, b, f)
		}
		sum += k.f.intervals[i].idealSpan
	}
	return sum / 3, nil
}

// faceGeometry writes the corner locations, midpoint and vertex normals of
// face f. Each normal starts flat and is pushed out toward its corner.
func (k *Kernel) faceGeometry(f uint16) {
	j := k.f.faces[f].joints
	loc0 := k.f.locations[j[0]]
	loc1 := k.f.locations[j[1]]
	loc2 := k.f.locations[j[2]]
	base := int(f) * 3
	k.f.faceLocations[base] = loc0
	k.f.faceLocations[base+1] = loc1
	k.f.faceLocations[base+2] = loc2
	midpoint := loc0.Add(loc1).Add(loc2).Scale(1.0 / 3)
	k.f.faceMidpoints[f] = midpoint
	flat := loc1.Sub(loc0).Cross(loc2.Sub(loc0)).Normalize()
	for n, at := range [3]Vector3{loc0, loc1, loc2} {
		out := at.Sub(midpoint).Normalize()
		k.f.faceNormals[base+n] = flat.AddScaled(out, faceNormalPushOut).Normalize()
	}
}

func (k *Kernel) refreshFaces() {
	for f := uint16(0); f < k.f.state.faceCount; f++ {
		k.faceGeometry(f)
	}
}
