package fabric

import (
	"fmt"

	"github.com/elastic-interval/pretenst-sub000/internal/world"
)

// Byte sizes of the records the arena holds. The arena itself stores typed
// slices, these only feed the address arithmetic reported to hosts.
const (
	u8Bytes             = 1
	u16Bytes            = 2
	f32Bytes            = 4
	vectorBytes         = f32Bytes * 3
	intervalRecordBytes = u16Bytes*2 + f32Bytes + u8Bytes*2 + u8Bytes*(MuscleDirections-1)*2
	faceRecordBytes     = u16Bytes * 3
	stateBytes          = 4 + 2*5 + 1*5 + f32Bytes*int(RoleCount)
)

// Dimensions are the fixed capacities the arena is sized for.
type Dimensions struct {
	MaxJoints    uint16 `yaml:"max_joints"`
	MaxIntervals uint16 `yaml:"max_intervals"`
	MaxFaces     uint16 `yaml:"max_faces"`
	MaxInstances uint16 `yaml:"max_instances"`
}

func (d Dimensions) Validate() error {
	if d.MaxJoints < 2 || d.MaxIntervals < 2 || d.MaxFaces < 2 || d.MaxInstances < 1 {
		return fmt.Errorf("%w: %+v", ErrDimensions, d)
	}
	if d.MaxJoints == ErrorIndex || d.MaxIntervals == ErrorIndex || d.MaxFaces == ErrorIndex {
		return fmt.Errorf("%w: %d is reserved", ErrDimensions, ErrorIndex)
	}
	return nil
}

// section is a run of slots within one instance's stride of a slab.
type section struct {
	at, n int
}

func (s section) end() int {
	return s.at + s.n
}

// Layout is pure address arithmetic: where each per-instance table sits
// within its slab, and how many bytes one instance occupies.
type Layout struct {
	Dimensions

	// Vector slab.
	Locations     section
	Velocities    section
	Forces        section
	Units         section
	LineLocations section
	LineColors    section
	FaceMidpoints section
	FaceNormals   section
	FaceLocations section
	Midpoint      section
	Seed          section
	Forward       section
	Right         section
	VectorStride  int

	// Float slab.
	Masses      section
	Stresses    section
	FloatStride int

	InstanceBytes int
}

// NewLayout computes the table offsets for the given capacities.
func NewLayout(d Dimensions) Layout {
	joints := int(d.MaxJoints)
	intervals := int(d.MaxIntervals)
	faces := int(d.MaxFaces)

	l := Layout{Dimensions: d}
	next := func(after section, n int) section {
		return section{at: after.end(), n: n}
	}
	l.Locations = section{at: 0, n: joints}
	l.Velocities = next(l.Locations, joints)
	l.Forces = next(l.Velocities, joints)
	l.Units = next(l.Forces, intervals)
	l.LineLocations = next(l.Units, intervals*2)
	l.LineColors = next(l.LineLocations, intervals*2)
	l.FaceMidpoints = next(l.LineColors, faces)
	l.FaceNormals = next(l.FaceMidpoints, faces*3)
	l.FaceLocations = next(l.FaceNormals, faces*3)
	l.Midpoint = next(l.FaceLocations, 1)
	l.Seed = next(l.Midpoint, 1)
	l.Forward = next(l.Seed, 1)
	l.Right = next(l.Forward, 1)
	l.VectorStride = l.Right.end()

	l.Masses = section{at: 0, n: joints}
	l.Stresses = next(l.Masses, intervals)
	l.FloatStride = l.Stresses.end()

	l.InstanceBytes = l.VectorStride*vectorBytes +
		l.FloatStride*f32Bytes +
		joints*(u8Bytes+u16Bytes) +
		intervals*intervalRecordBytes +
		faces*faceRecordBytes +
		stateBytes
	return l
}

// InstanceOffset maps an instance to its base byte offset. The shared
// environment region comes first, instances follow contiguously.
func (l Layout) InstanceOffset(id InstanceID) int {
	return world.SurfaceBytes + int(id)*l.InstanceBytes
}

// ArenaBytes is the total addressable size: environment plus every instance.
func (l Layout) ArenaBytes() int {
	return l.InstanceOffset(InstanceID(l.MaxInstances))
}
