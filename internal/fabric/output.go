package fabric

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/elastic-interval/pretenst-sub000/internal/phi"
)

var (
	relaxedColor = colorful.Color{R: 0.2, G: 0.8, B: 0.2}
	pushColor    = colorful.Color{R: 1.0, G: 0.2, B: 0.0}
	pullColor    = colorful.Color{R: 0.0, G: 0.5, B: 1.0}
	slackColor   = colorful.Color{R: 0.1, G: 0.1, B: 0.1}
	blankPush    = colorful.Color{R: 1, G: 1, B: 1}
	blankPull    = colorful.Color{R: 0, G: 0, B: 0}
)

// stressColor places a stress within its class's bounds: push runs from green
// to red, pull from green to blue. Stresses outside the bounds get the blank
// color of their class.
func stressColor(stress float32, limits Limits) colorful.Color {
	var magnitude float32
	var bounds Range
	var hot, blank colorful.Color
	switch {
	case stress < -MinStress:
		magnitude, bounds, hot, blank = -stress, limits.Push, pushColor, blankPush
	case stress > MinStress:
		magnitude, bounds, hot, blank = stress, limits.Pull, pullColor, blankPull
	default:
		return slackColor
	}
	if !bounds.contains(magnitude) {
		return blank
	}
	width := bounds.Max - bounds.Min
	if width <= 0 {
		return hot
	}
	return relaxedColor.BlendRgb(hot, float64((magnitude-bounds.Min)/width))
}

func colorVector(c colorful.Color) Vector3 {
	return Vector3{float32(c.R), float32(c.G), float32(c.B)}
}

// refreshLines writes both ends of every interval and their color.
func (k *Kernel) refreshLines() {
	f := &k.f
	for i, iv := range f.intervals[:f.state.intervalCount] {
		color := colorVector(stressColor(f.stresses[i], k.limits))
		f.lineLocations[i*2] = f.locations[iv.alpha]
		f.lineLocations[i*2+1] = f.locations[iv.omega]
		f.lineColors[i*2] = color
		f.lineColors[i*2+1] = color
	}
}

func (k *Kernel) refreshMidpoint() {
	n := int(k.f.state.jointCount)
	if n == 0 {
		k.f.midpoint[0] = Vector3{}
		return
	}
	var sum Vector3
	for _, at := range k.f.locations[:n] {
		sum = sum.Add(at)
	}
	k.f.midpoint[0] = sum.Scale(1 / float32(n))
}

// refreshDirections derives the heading from the pair of seed-ring joints
// after the corners: their midpoint is the seed, the horizontal line from
// left to right is right, and forward is up crossed with right. Until birth
// the hanger still occupies joint 0, so the pair sits one higher.
func (k *Kernel) refreshDirections() {
	f := &k.f
	rightJoint := uint16(phi.SeedCorners)
	if !f.state.born {
		rightJoint++
	}
	leftJoint := rightJoint + 1
	if leftJoint >= f.state.jointCount {
		f.seed[0], f.forward[0], f.right[0] = Vector3{}, Vector3{}, Vector3{}
		return
	}
	rightAt, leftAt := f.locations[rightJoint], f.locations[leftJoint]
	f.seed[0] = rightAt.Add(leftAt).Scale(0.5)
	right := rightAt.Sub(leftAt)
	right.Y = 0
	f.right[0] = right.Normalize()
	up := Vector3{0, 1, 0}
	f.forward[0] = up.Cross(f.right[0]).Normalize()
}

func (k *Kernel) refreshOutput() {
	k.refreshLines()
	k.refreshFaces()
	k.refreshMidpoint()
	k.refreshDirections()
}

// The buffers below are views into the arena, sized to the live element
// count. They stay valid until the next call that changes the instance.

// LineLocations holds two points per interval, alpha then omega.
func (k *Kernel) LineLocations() []Vector3 {
	return k.f.lineLocations[:int(k.f.state.intervalCount)*2]
}

// LineColors holds one RGB triple per line point.
func (k *Kernel) LineColors() []Vector3 {
	return k.f.lineColors[:int(k.f.state.intervalCount)*2]
}

func (k *Kernel) FaceMidpoints() []Vector3 {
	return k.f.faceMidpoints[:k.f.state.faceCount]
}

// FaceNormals holds three vertex normals per face.
func (k *Kernel) FaceNormals() []Vector3 {
	return k.f.faceNormals[:int(k.f.state.faceCount)*3]
}

// FaceLocations holds the three corners of each face.
func (k *Kernel) FaceLocations() []Vector3 {
	return k.f.faceLocations[:int(k.f.state.faceCount)*3]
}

// Midpoint is the mean location of all joints.
func (k *Kernel) Midpoint() Vector3 {
	return k.f.midpoint[0]
}

// Seed is the midpoint of the joint pair that steers the fabric.
func (k *Kernel) Seed() Vector3 {
	return k.f.seed[0]
}

// Forward is the horizontal unit heading, perpendicular to Right.
func (k *Kernel) Forward() Vector3 {
	return k.f.forward[0]
}

// Right is the horizontal unit vector from the left steering joint to the
// right one.
func (k *Kernel) Right() Vector3 {
	return k.f.right[0]
}
