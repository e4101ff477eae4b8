package fabric

import "math"

// Vector3 is a float32 3D vector, laid out so that a []Vector3 can be handed
// to a renderer as packed xyz triples.
type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// AddScaled returns v + o*s.
func (v Vector3) AddScaled(o Vector3, s float32) Vector3 {
	return Vector3{v.X + o.X*s, v.Y + o.Y*s, v.Z + o.Z*s}
}

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Quadrance is the squared length, nudged away from zero so that
// normalizing a degenerate vector never divides by zero.
func (v Vector3) Quadrance() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z + 0.00000001
}

func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.Quadrance())))
}

func (v Vector3) Normalize() Vector3 {
	return v.Scale(1 / v.Length())
}

// Distance returns the exact Euclidean distance between two points.
func Distance(a, b Vector3) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}
