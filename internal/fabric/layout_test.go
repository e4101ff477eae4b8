package fabric

import (
	"errors"
	"testing"

	"github.com/elastic-interval/pretenst-sub000/internal/world"
)

func TestLayoutSectionsAreContiguous(t *testing.T) {
	l := NewLayout(Dimensions{MaxJoints: 16, MaxIntervals: 32, MaxFaces: 8, MaxInstances: 2})
	vectors := []section{
		l.Locations, l.Velocities, l.Forces, l.Units, l.LineLocations, l.LineColors,
		l.FaceMidpoints, l.FaceNormals, l.FaceLocations, l.Midpoint,
		l.Seed, l.Forward, l.Right,
	}
	at := 0
	for i, s := range vectors {
		if s.at != at {
			t.Fatalf("vector section %d: starts at %d want %d", i, s.at, at)
		}
		at = s.end()
	}
	if l.VectorStride != at {
		t.Fatalf("vector stride: got %d want %d", l.VectorStride, at)
	}
	if l.LineLocations.n != 64 || l.FaceNormals.n != 24 || l.Midpoint.n != 1 {
		t.Fatalf("section sizes: lines %d normals %d midpoint %d", l.LineLocations.n, l.FaceNormals.n, l.Midpoint.n)
	}
	if l.Stresses.at != l.Masses.end() || l.FloatStride != 16+32 {
		t.Fatalf("float slab: %+v %+v stride %d", l.Masses, l.Stresses, l.FloatStride)
	}
}

func TestInstanceOffsets(t *testing.T) {
	l := NewLayout(Dimensions{MaxJoints: 16, MaxIntervals: 32, MaxFaces: 8, MaxInstances: 3})
	if l.InstanceOffset(0) != world.SurfaceBytes {
		t.Fatalf("first instance: got %d want %d", l.InstanceOffset(0), world.SurfaceBytes)
	}
	if got := l.InstanceOffset(2) - l.InstanceOffset(1); got != l.InstanceBytes {
		t.Fatalf("stride: got %d want %d", got, l.InstanceBytes)
	}
	if got, want := l.ArenaBytes(), world.SurfaceBytes+3*l.InstanceBytes; got != want {
		t.Fatalf("arena: got %d want %d", got, want)
	}
}

func TestInstanceBytesGrowWithCapacity(t *testing.T) {
	small := NewLayout(Dimensions{MaxJoints: 16, MaxIntervals: 32, MaxFaces: 8, MaxInstances: 1})
	big := NewLayout(Dimensions{MaxJoints: 17, MaxIntervals: 32, MaxFaces: 8, MaxInstances: 1})
	if big.InstanceBytes <= small.InstanceBytes {
		t.Fatalf("adding a joint did not grow the instance: %d vs %d", big.InstanceBytes, small.InstanceBytes)
	}
}

func TestDimensionsValidate(t *testing.T) {
	bad := []Dimensions{
		{MaxJoints: 1, MaxIntervals: 8, MaxFaces: 8, MaxInstances: 1},
		{MaxJoints: 8, MaxIntervals: 8, MaxFaces: 8, MaxInstances: 0},
		{MaxJoints: ErrorIndex, MaxIntervals: 8, MaxFaces: 8, MaxInstances: 1},
	}
	for _, d := range bad {
		if err := d.Validate(); !errors.Is(err, ErrDimensions) {
			t.Fatalf("%+v: got %v want ErrDimensions", d, err)
		}
	}
	if err := (Dimensions{MaxJoints: 8, MaxIntervals: 8, MaxFaces: 8, MaxInstances: 1}).Validate(); err != nil {
		t.Fatalf("valid dimensions: %v", err)
	}
}
