// Package fabric is the tensegrity simulation kernel: a pre-sized arena of
// joints, intervals and faces per instance, the per-tick integrator, the
// growth/oscillation phase machine and the adaptive stress-limit controller.
//
// A Kernel is not safe for concurrent use. Exactly one instance is current at
// a time; every call other than Select and CloneInstance acts on it.
package fabric

import (
	"fmt"
	"log/slog"

	"github.com/elastic-interval/pretenst-sub000/internal/physics"
	"github.com/elastic-interval/pretenst-sub000/internal/world"
)

type interval struct {
	alpha     uint16
	omega     uint16
	role      Role
	idealSpan float32
	growth    Growth
	muscle    [MuscleDirections - 1]HighLow // forward, left, right, reverse
}

type face struct {
	joints [3]uint16
}

type state struct {
	age               uint32
	timeSweep         uint16
	jointCount        uint16
	jointTagCount     uint16
	intervalCount     uint16
	faceCount         uint16
	gestating         bool
	born              bool
	previousDirection Direction
	currentDirection  Direction
	nextDirection     Direction
	elastic           [RoleCount]float32
}

// view holds capacity-capped windows onto the current instance's stride of
// every slab. Reaching past a table's capacity panics instead of spilling
// into the neighbouring table or instance.
type view struct {
	locations     []Vector3
	velocities    []Vector3
	forces        []Vector3
	units         []Vector3
	lineLocations []Vector3
	lineColors    []Vector3
	faceMidpoints []Vector3
	faceNormals   []Vector3
	faceLocations []Vector3
	midpoint      []Vector3
	seed          []Vector3
	forward       []Vector3
	right         []Vector3
	masses        []float32
	stresses      []float32
	laterality    []Laterality
	tags          []uint16
	intervals     []interval
	faces         []face
	state         *state
}

// Kernel owns the arena and the physics configuration shared by all
// instances.
type Kernel struct {
	layout  Layout
	cfg     physics.Config
	surface *world.Surface
	limits  Limits
	report  LimitReport

	vectors    []Vector3
	floats     []float32
	laterality []Laterality
	tags       []uint16
	intervals  []interval
	faces      []face
	states     []state

	current InstanceID
	f       view
}

// New sizes the arena for dims and selects instance 0, reset and gestating.
// The surface is the shared environment region and may be nil, in which case
// every joint stands on land.
func New(dims Dimensions, cfg physics.Config, surface *world.Surface) (*Kernel, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fabric config: %w", err)
	}
	l := NewLayout(dims)
	instances := int(dims.MaxInstances)
	k := &Kernel{
		layout:     l,
		cfg:        cfg,
		surface:    surface,
		limits:     limitsFromConfig(cfg.Limits),
		vectors:    make([]Vector3, l.VectorStride*instances),
		floats:     make([]float32, l.FloatStride*instances),
		laterality: make([]Laterality, int(dims.MaxJoints)*instances),
		tags:       make([]uint16, int(dims.MaxJoints)*instances),
		intervals:  make([]interval, int(dims.MaxIntervals)*instances),
		faces:      make([]face, int(dims.MaxFaces)*instances),
		states:     make([]state, instances),
	}
	for id := 0; id < instances; id++ {
		k.bind(InstanceID(id))
		k.Reset()
	}
	k.bind(0)
	slog.Debug("fabric arena allocated",
		"instance_bytes", l.InstanceBytes,
		"arena_bytes", l.ArenaBytes(),
		"instances", instances,
	)
	return k, nil
}

// Layout returns the address arithmetic the arena was sized with.
func (k *Kernel) Layout() Layout {
	return k.layout
}

// Config returns the current physics configuration.
func (k *Kernel) Config() physics.Config {
	return k.cfg
}

// SetFeature rescales one physics feature against its baseline and returns
// the new effective value. A factor that would leave the configuration
// invalid, such as drag above 1 or a phase step past the counter's range, is
// refused: the configuration is unchanged and the current value is returned
// with an error wrapping physics.ErrInvalid.
func (k *Kernel) SetFeature(feature physics.Feature, factor float32) (float32, error) {
	if feature >= physics.FeatureCount {
		return 0, fmt.Errorf("%w: feature %d", physics.ErrInvalid, feature)
	}
	cfg, value := k.cfg.Scale(feature, factor)
	if err := cfg.Validate(); err != nil {
		return k.cfg.Value(feature), fmt.Errorf("scale %s by %g: %w", feature, factor, err)
	}
	k.cfg = cfg
	return value, nil
}

// Surface returns the shared environment region.
func (k *Kernel) Surface() *world.Surface {
	return k.surface
}

// Instance returns the currently selected instance.
func (k *Kernel) Instance() InstanceID {
	return k.current
}

// Select makes id the current instance.
func (k *Kernel) Select(id InstanceID) error {
	if int(id) >= int(k.layout.MaxInstances) {
		return fmt.Errorf("%w: %d", ErrInstanceOutOfRange, id)
	}
	k.bind(id)
	return nil
}

// CloneInstance copies every table of one instance over another. The current
// selection is unchanged, though if it is the target its contents are
// replaced.
func (k *Kernel) CloneInstance(from, to InstanceID) error {
	count := int(k.layout.MaxInstances)
	if int(from) >= count || int(to) >= count {
		return fmt.Errorf("%w: clone %d to %d", ErrInstanceOutOfRange, from, to)
	}
	if from == to {
		return nil
	}
	l := k.layout
	cloneStride(k.vectors, l.VectorStride, from, to)
	cloneStride(k.floats, l.FloatStride, from, to)
	cloneStride(k.laterality, int(l.MaxJoints), from, to)
	cloneStride(k.tags, int(l.MaxJoints), from, to)
	cloneStride(k.intervals, int(l.MaxIntervals), from, to)
	cloneStride(k.faces, int(l.MaxFaces), from, to)
	k.states[to] = k.states[from]
	slog.Debug("fabric instance cloned", "from", from, "to", to)
	return nil
}

func cloneStride[T any](slab []T, stride int, from, to InstanceID) {
	src := slab[int(from)*stride : int(from+1)*stride]
	dst := slab[int(to)*stride : int(to+1)*stride]
	copy(dst, src)
}

// Reset empties the current instance: counters to zero, gestating, rest
// direction everywhere and every role's elastic factor back to one.
func (k *Kernel) Reset() {
	s := k.f.state
	*s = state{
		gestating:         true,
		previousDirection: DirectionRest,
		currentDirection:  DirectionRest,
		nextDirection:     DirectionRest,
	}
	for role := range s.elastic {
		s.elastic[role] = 1
	}
	k.f.midpoint[0] = Vector3{}
	k.f.seed[0], k.f.forward[0], k.f.right[0] = Vector3{}, Vector3{}, Vector3{}
}

func (k *Kernel) bind(id InstanceID) {
	l := k.layout
	window := func(slab []Vector3, base int, s section) []Vector3 {
		return slab[base+s.at : base+s.end() : base+s.end()]
	}
	vb := int(id) * l.VectorStride
	fb := int(id) * l.FloatStride
	jb := int(id) * int(l.MaxJoints)
	ib := int(id) * int(l.MaxIntervals)
	xb := int(id) * int(l.MaxFaces)
	k.current = id
	k.f = view{
		locations:     window(k.vectors, vb, l.Locations),
		velocities:    window(k.vectors, vb, l.Velocities),
		forces:        window(k.vectors, vb, l.Forces),
		units:         window(k.vectors, vb, l.Units),
		lineLocations: window(k.vectors, vb, l.LineLocations),
		lineColors:    window(k.vectors, vb, l.LineColors),
		faceMidpoints: window(k.vectors, vb, l.FaceMidpoints),
		faceNormals:   window(k.vectors, vb, l.FaceNormals),
		faceLocations: window(k.vectors, vb, l.FaceLocations),
		midpoint:      window(k.vectors, vb, l.Midpoint),
		seed:          window(k.vectors, vb, l.Seed),
		forward:       window(k.vectors, vb, l.Forward),
		right:         window(k.vectors, vb, l.Right),
		masses:        k.floats[fb+l.Masses.at : fb+l.Masses.end() : fb+l.Masses.end()],
		stresses:      k.floats[fb+l.Stresses.at : fb+l.Stresses.end() : fb+l.Stresses.end()],
		laterality:    k.laterality[jb : jb+int(l.MaxJoints) : jb+int(l.MaxJoints)],
		tags:          k.tags[jb : jb+int(l.MaxJoints) : jb+int(l.MaxJoints)],
		intervals:     k.intervals[ib : ib+int(l.MaxIntervals) : ib+int(l.MaxIntervals)],
		faces:         k.faces[xb : xb+int(l.MaxFaces) : xb+int(l.MaxFaces)],
		state:         &k.states[id],
	}
}

// Age is the number of ticks the current instance has run.
func (k *Kernel) Age() uint32 {
	return k.f.state.age
}

func (k *Kernel) IsGestating() bool {
	return k.f.state.gestating
}

// IsBorn reports whether EndGestation has run on the current instance.
func (k *Kernel) IsBorn() bool {
	return k.f.state.born
}

func (k *Kernel) CurrentDirection() Direction {
	return k.f.state.currentDirection
}

func (k *Kernel) NextDirection() Direction {
	return k.f.state.nextDirection
}

// SetNextDirection queues a direction. It takes effect at the next phase
// wrap after gestation has ended.
func (k *Kernel) SetNextDirection(d Direction) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrBadDirection, d)
	}
	k.f.state.nextDirection = d
	return nil
}

// TimeSweep is the current position on the 16-bit phase circle.
func (k *Kernel) TimeSweep() uint16 {
	return k.f.state.timeSweep
}

// SetElasticFactor sets the current instance's elasticity for one role and
// returns the value now in effect.
func (k *Kernel) SetElasticFactor(role Role, factor float32) (float32, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrBadRole, role)
	}
	k.f.state.elastic[role] = factor
	return factor, nil
}

func (k *Kernel) ElasticFactor(role Role) float32 {
	if !role.Valid() {
		return 0
	}
	return k.f.state.elastic[role]
}
