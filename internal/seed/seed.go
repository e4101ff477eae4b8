// Package seed builds the starting structure a fabric grows from: a twisted
// pentagonal prism of five bars held by ring cables and vertical muscles,
// hung from a hanger joint that EndGestation later removes.
package seed

import (
	"fmt"
	"math"

	"github.com/elastic-interval/pretenst-sub000/internal/fabric"
	"github.com/elastic-interval/pretenst-sub000/internal/phi"
)

const corners = phi.SeedCorners

// Options shape the seed.
type Options struct {
	Altitude float32 `yaml:"altitude"` // height of the bottom ring
	Tension  float32 `yaml:"tension"`  // cables are built at this fraction of their length
}

func DefaultOptions() Options {
	return Options{Altitude: 1, Tension: 0.95}
}

// Seed records where Build put everything. Indices are only valid until
// gestation ends.
type Seed struct {
	Hanger  uint16
	Bottom  [corners]uint16
	Top     [corners]uint16
	Bars    [corners]uint16
	Muscles [corners]uint16
	Cables  []uint16
	Faces   []uint16
}

// Counts after EndGestation: the hanger and its two cables are gone.
func (s *Seed) BornJoints() int    { return 2 * corners }
func (s *Seed) BornIntervals() int { return len(s.Bars) + len(s.Muscles) + len(s.Cables) - 2 }

// Build creates the seed in the kernel's current instance, which should be
// freshly reset.
func Build(k *fabric.Kernel, opts Options) (*Seed, error) {
	if opts.Tension <= 0 || opts.Tension > 1 {
		return nil, fmt.Errorf("seed: tension %g outside (0, 1]", opts.Tension)
	}
	s := &Seed{}
	radius := float32(phi.SeedRadius)
	barSpan := float32(phi.BarSpan)
	// The top ring is turned half a sector so each bar reaches across 108°.
	chord := 2 * radius * float32(math.Sin(3*math.Pi/corners/2))
	height := float32(math.Sqrt(float64(barSpan*barSpan - chord*chord)))
	hangerY := opts.Altitude + height + float32(phi.HangerAltitude)

	var err error
	if s.Hanger, err = k.CreateJoint(k.NextJointTag(), fabric.BilateralMiddle, 0, hangerY, 0); err != nil {
		return nil, fmt.Errorf("seed hanger: %w", err)
	}
	for n := 0; n < corners; n++ {
		tag := k.NextJointTag()
		side := laterality(n)
		angle := 2 * math.Pi * float64(n) / corners
		x, z := polar(radius, angle)
		if s.Bottom[n], err = k.CreateJoint(tag, side, x, opts.Altitude, z); err != nil {
			return nil, fmt.Errorf("seed bottom %d: %w", n, err)
		}
		x, z = polar(radius, angle+math.Pi/corners)
		if s.Top[n], err = k.CreateJoint(tag, side, x, opts.Altitude+height, z); err != nil {
			return nil, fmt.Errorf("seed top %d: %w", n, err)
		}
	}

	cable := func(alpha, omega uint16, role fabric.Role) error {
		i, err := k.CreateInterval(alpha, omega, -opts.Tension, role, true)
		if err != nil {
			return fmt.Errorf("seed cable %d-%d: %w", alpha, omega, err)
		}
		s.Cables = append(s.Cables, i)
		return nil
	}
	for n := 0; n < corners; n++ {
		next := (n + 1) % corners
		if s.Bars[n], err = k.CreateInterval(s.Bottom[n], s.Top[next], barSpan, fabric.RoleBar, true); err != nil {
			return nil, fmt.Errorf("seed bar %d: %w", n, err)
		}
		if err := cable(s.Bottom[n], s.Bottom[next], fabric.RoleRing); err != nil {
			return nil, err
		}
		if err := cable(s.Top[n], s.Top[next], fabric.RoleRing); err != nil {
			return nil, err
		}
		if s.Muscles[n], err = k.CreateInterval(s.Bottom[n], s.Top[n], -opts.Tension, fabric.RoleMuscle, true); err != nil {
			return nil, fmt.Errorf("seed muscle %d: %w", n, err)
		}
		if err := programMuscle(k, s.Muscles[n], n); err != nil {
			return nil, err
		}
	}
	if err := cable(s.Hanger, s.Top[0], fabric.RoleCross); err != nil {
		return nil, err
	}
	if err := cable(s.Hanger, s.Top[corners/2], fabric.RoleCross); err != nil {
		return nil, err
	}

	for n := 1; n < corners-1; n++ {
		for _, ring := range [][corners]uint16{s.Bottom, s.Top} {
			f, err := k.CreateFace(ring[0], ring[n+1], ring[n])
			if err != nil {
				return nil, fmt.Errorf("seed face: %w", err)
			}
			s.Faces = append(s.Faces, f)
		}
	}
	return s, nil
}

// programMuscle staggers each muscle's clock points around the ring so the
// contraction travels: forward and reverse run opposite ways, left and right
// favor one side.
func programMuscle(k *fabric.Kernel, muscle uint16, n int) error {
	step := uint8(fabric.ClockPoints / corners)
	at := uint8(n) * step
	program := map[fabric.Direction]fabric.HighLow{
		fabric.DirectionForward: {High: at, Low: (at + 8) % fabric.ClockPoints},
		fabric.DirectionReverse: {High: (fabric.ClockPoints - at) % fabric.ClockPoints, Low: (fabric.ClockPoints + 8 - at) % fabric.ClockPoints},
		fabric.DirectionLeft:    fabric.DefaultHighLow,
		fabric.DirectionRight:   fabric.DefaultHighLow,
	}
	switch laterality(n) {
	case fabric.BilateralLeft:
		program[fabric.DirectionLeft] = fabric.HighLow{High: 4, Low: 12}
	case fabric.BilateralRight:
		program[fabric.DirectionRight] = fabric.HighLow{High: 4, Low: 12}
	}
	for d, hl := range program {
		if err := k.SetIntervalHighLow(muscle, d, hl); err != nil {
			return fmt.Errorf("seed muscle %d %s: %w", muscle, d, err)
		}
	}
	return nil
}

// laterality puts corner 0 on the middle line, the next two on the right
// and the last two on the left.
func laterality(n int) fabric.Laterality {
	switch {
	case n == 0:
		return fabric.BilateralMiddle
	case n <= corners/2:
		return fabric.BilateralRight
	default:
		return fabric.BilateralLeft
	}
}

func polar(radius float32, angle float64) (x, z float32) {
	return radius * float32(math.Cos(angle)), radius * float32(math.Sin(angle))
}
