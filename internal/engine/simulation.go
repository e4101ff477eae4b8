// Simulation grows one fabric instance, births it and watches its stress
// limits, keeping a snapshot to fall back on if the physics blows up.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/elastic-interval/pretenst-sub000/internal/fabric"
)

const maxEvents = 1000

// Phase is where the structure is in its life.
type Phase uint8

const (
	PhaseGrowing Phase = iota // gestating from the seed
	PhaseMature               // born, muscles following the direction program
)

func (p Phase) String() string {
	if p == PhaseMature {
		return "mature"
	}
	return "growing"
}

// Event is a notable moment in a run.
type Event struct {
	Frame       uint64 `json:"frame" db:"frame"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "wrap", "birth", "limits", "restore", "direction"
}

// FrameStats is the state of the structure after one frame.
type FrameStats struct {
	Frame     uint64  `json:"frame" db:"frame"`
	Age       uint32  `json:"age" db:"age"`
	Joints    uint16  `json:"joints" db:"joints"`
	Intervals uint16  `json:"intervals" db:"intervals"`
	Faces     uint16  `json:"faces" db:"faces"`
	Gestating bool    `json:"gestating" db:"gestating"`
	Wrapped   bool    `json:"wrapped" db:"wrapped"`
	Direction string  `json:"direction" db:"direction"`
	Signal    string  `json:"signal" db:"signal"`
	MinPush   float32 `json:"min_push" db:"min_push"`
	MaxPush   float32 `json:"max_push" db:"max_push"`
	MinPull   float32 `json:"min_pull" db:"min_pull"`
	MaxPull   float32 `json:"max_pull" db:"max_pull"`
	MidX      float32 `json:"mid_x" db:"mid_x"`
	MidY      float32 `json:"mid_y" db:"mid_y"`
	MidZ      float32 `json:"mid_z" db:"mid_z"`
}

// SimStats are totals over the whole run.
type SimStats struct {
	Frames   uint64 `json:"frames"`
	Wraps    int    `json:"wraps"`
	Gross    int    `json:"gross"`
	Restores int    `json:"restores"`
	BornAt   uint64 `json:"born_at"`
}

// ErrNoSnapshot is returned by Restore before any snapshot was taken.
var ErrNoSnapshot = errors.New("engine: no snapshot to restore")

// Simulation owns a kernel and runs one instance of it, keeping a second
// instance as a snapshot.
type Simulation struct {
	Kernel        *fabric.Kernel
	Instance      fabric.InstanceID
	Scratch       fabric.InstanceID
	TicksPerFrame uint16
	Phase         Phase

	// Program is the direction sequence a mature structure cycles through,
	// advancing one entry per phase wrap.
	Program []fabric.Direction

	Events []Event
	Last   FrameStats
	Stats  SimStats

	pending      []FrameStats
	newEvents    []Event
	programAt    int
	snapshot     bool
	snapLimits   fabric.Limits
	snapPhase    Phase
	snapProgress int
}

// NewSimulation runs instance on k with scratch held back for snapshots.
// The two must differ.
func NewSimulation(k *fabric.Kernel, instance, scratch fabric.InstanceID, ticksPerFrame uint16) (*Simulation, error) {
	if instance == scratch {
		return nil, fmt.Errorf("engine: instance and scratch are both %d", instance)
	}
	if err := k.Select(scratch); err != nil {
		return nil, err
	}
	if err := k.Select(instance); err != nil {
		return nil, err
	}
	if ticksPerFrame == 0 {
		ticksPerFrame = 1
	}
	return &Simulation{
		Kernel:        k,
		Instance:      instance,
		Scratch:       scratch,
		TicksPerFrame: ticksPerFrame,
		Program:       []fabric.Direction{fabric.DirectionForward},
	}, nil
}

// Frame advances the structure one frame: a batch of ticks, then whatever
// the phase wrap and the limit controller call for.
func (s *Simulation) Frame(frame uint64) FrameStats {
	k := s.Kernel
	if k.Instance() != s.Instance {
		if err := k.Select(s.Instance); err != nil {
			slog.Warn("frame skipped", "frame", frame, "instance", s.Instance, "error", err)
			return s.Last
		}
	}
	wrapped := k.Iterate(s.TicksPerFrame)
	s.Stats.Frames++

	if wrapped {
		s.Stats.Wraps++
		s.record(frame, "wrap", fmt.Sprintf("phase wrapped at age %d", k.Age()))
		switch {
		case s.Phase == PhaseGrowing && !k.IsBorn():
			if err := s.birth(frame); err != nil {
				slog.Warn("birth failed", "frame", frame, "error", err)
			}
		case s.Phase == PhaseMature:
			s.steer(frame)
		}
	}

	report := k.LimitReport()
	if report.Signal.Gross() {
		s.Stats.Gross++
		s.record(frame, "limits", fmt.Sprintf("%s: push %d pull %d over", report.Signal,
			report.Violating[fabric.MaxPush]+report.Violating[fabric.MinPush],
			report.Violating[fabric.MaxPull]+report.Violating[fabric.MinPull]))
	}

	if !s.finite() {
		if err := s.Restore(frame); err != nil {
			slog.Error("structure diverged with nothing to restore", "frame", frame, "error", err)
		}
	}

	s.Last = s.collect(frame, wrapped)
	s.pending = append(s.pending, s.Last)
	return s.Last
}

// birth ends gestation, centres the structure and sets it down on the
// surface.
func (s *Simulation) birth(frame uint64) error {
	k := s.Kernel
	if err := k.EndGestation(); err != nil {
		return err
	}
	k.Centralize()
	k.SetAltitude(fabric.JointRadius)
	s.Phase = PhaseMature
	s.Stats.BornAt = frame
	s.steer(frame)
	s.record(frame, "birth", fmt.Sprintf("born with %d joints, %d intervals", k.JointCount(), k.IntervalCount()))
	slog.Info("fabric born", "frame", frame, "joints", k.JointCount(), "intervals", k.IntervalCount(), "faces", k.FaceCount())
	return nil
}

// steer queues the next entry of the direction program.
func (s *Simulation) steer(frame uint64) {
	if len(s.Program) == 0 {
		return
	}
	d := s.Program[s.programAt%len(s.Program)]
	s.programAt++
	if d == s.Kernel.NextDirection() {
		return
	}
	if err := s.Kernel.SetNextDirection(d); err != nil {
		slog.Warn("bad direction in program", "direction", d, "error", err)
		return
	}
	s.record(frame, "direction", "next direction "+d.String())
}

// Snapshot copies the running instance into scratch, with the limits it is
// running under. A structure that has already gone non-finite is not saved.
func (s *Simulation) Snapshot(frame uint64) error {
	if !s.finite() {
		return fmt.Errorf("engine: frame %d is not finite", frame)
	}
	if err := s.Kernel.CloneInstance(s.Instance, s.Scratch); err != nil {
		return err
	}
	s.snapshot = true
	s.snapLimits = s.Kernel.Limits()
	s.snapPhase = s.Phase
	s.snapProgress = s.programAt
	slog.Debug("fabric snapshot", "frame", frame, "age", s.Kernel.Age())
	return nil
}

// Restore puts the last snapshot back into the running instance.
func (s *Simulation) Restore(frame uint64) error {
	if !s.snapshot {
		return ErrNoSnapshot
	}
	if err := s.Kernel.CloneInstance(s.Scratch, s.Instance); err != nil {
		return err
	}
	if err := s.Kernel.Select(s.Instance); err != nil {
		return err
	}
	s.Kernel.SetLimits(s.snapLimits)
	s.Phase = s.snapPhase
	s.programAt = s.snapProgress
	s.Stats.Restores++
	s.record(frame, "restore", fmt.Sprintf("restored snapshot at age %d", s.Kernel.Age()))
	slog.Warn("fabric restored from snapshot", "frame", frame, "age", s.Kernel.Age())
	return nil
}

// finite reports whether every joint location is a real number.
func (s *Simulation) finite() bool {
	k := s.Kernel
	for j := uint16(0); j < k.JointCount(); j++ {
		at, err := k.JointLocation(j)
		if err != nil {
			return false
		}
		for _, v := range [3]float32{at.X, at.Y, at.Z} {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return false
			}
		}
	}
	return true
}

func (s *Simulation) collect(frame uint64, wrapped bool) FrameStats {
	k := s.Kernel
	l := k.Limits()
	mid := k.Midpoint()
	return FrameStats{
		Frame:     frame,
		Age:       k.Age(),
		Joints:    k.JointCount(),
		Intervals: k.IntervalCount(),
		Faces:     k.FaceCount(),
		Gestating: k.IsGestating(),
		Wrapped:   wrapped,
		Direction: k.CurrentDirection().String(),
		Signal:    k.LimitReport().Signal.String(),
		MinPush:   l.Push.Min,
		MaxPush:   l.Push.Max,
		MinPull:   l.Pull.Min,
		MaxPull:   l.Pull.Max,
		MidX:      mid.X,
		MidY:      mid.Y,
		MidZ:      mid.Z,
	}
}

func (s *Simulation) record(frame uint64, category, description string) {
	e := Event{Frame: frame, Description: description, Category: category}
	s.Events = append(s.Events, e)
	s.newEvents = append(s.newEvents, e)
}

// TakeFrames returns the frame stats gathered since the last call.
func (s *Simulation) TakeFrames() []FrameStats {
	out := s.pending
	s.pending = nil
	return out
}

// TakeEvents returns the events recorded since the last call.
func (s *Simulation) TakeEvents() []Event {
	out := s.newEvents
	s.newEvents = nil
	return out
}

// Report logs a summary of recent activity and trims the event log.
func (s *Simulation) Report(frame uint64) {
	eventCounts := make(map[string]int)
	for _, e := range s.Events {
		eventCounts[e.Category]++
	}
	l := s.Kernel.Limits()
	slog.Info("fabric report",
		"frame", frame,
		"time", FrameTime(frame),
		"phase", s.Phase.String(),
		"age", s.Kernel.Age(),
		"joints", s.Kernel.JointCount(),
		"intervals", s.Kernel.IntervalCount(),
		"push", fmt.Sprintf("[%.5f, %.5f]", l.Push.Min, l.Push.Max),
		"pull", fmt.Sprintf("[%.5f, %.5f]", l.Pull.Min, l.Pull.Max),
		"signal", s.Last.Signal,
		"altitude", s.Last.MidY,
		"events", eventCounts,
	)

	start := 0
	if len(s.Events) > 20 {
		start = len(s.Events) - 20
	}
	for _, e := range s.Events[start:] {
		if e.Category == "birth" || e.Category == "restore" {
			slog.Info("notable event", "frame", e.Frame, "category", e.Category, "description", e.Description)
		}
	}

	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}
