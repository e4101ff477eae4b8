package engine

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/elastic-interval/pretenst-sub000/internal/fabric"
	"github.com/elastic-interval/pretenst-sub000/internal/physics"
	"github.com/elastic-interval/pretenst-sub000/internal/seed"
)

func TestStepCallbacks(t *testing.T) {
	e := NewEngine()
	var frames, reports, checkpoints int
	e.OnFrame = func(uint64) { frames++ }
	e.OnReport = func(uint64) { reports++ }
	e.OnCheckpoint = func(uint64) { checkpoints++ }
	e.RunFrames(2 * FramesPerCheckpoint)
	if frames != 1200 || reports != 20 || checkpoints != 2 {
		t.Fatalf("frames %d reports %d checkpoints %d", frames, reports, checkpoints)
	}
	if e.Frame != 1200 {
		t.Fatalf("frame counter %d", e.Frame)
	}
}

func TestRunStopsAtLimit(t *testing.T) {
	e := NewEngine()
	e.Interval = 0
	e.Limit = 5
	e.Run()
	if e.Frame != 5 || e.Running() {
		t.Fatalf("frame %d running %v", e.Frame, e.Running())
	}
}

func TestStopFromCallback(t *testing.T) {
	e := NewEngine()
	e.Interval = 0
	e.OnFrame = func(frame uint64) {
		if frame == 3 {
			e.Stop()
		}
	}
	e.Run()
	if e.Frame != 3 {
		t.Fatalf("stopped at frame %d want 3", e.Frame)
	}
}

func TestFrameTime(t *testing.T) {
	if got := FrameTime(3725); got != "1:02.05" {
		t.Fatalf("got %q", got)
	}
}

func newSeededSimulation(t *testing.T) *Simulation {
	t.Helper()
	dims := fabric.Dimensions{MaxJoints: 32, MaxIntervals: 64, MaxFaces: 16, MaxInstances: 2}
	k, err := fabric.New(dims, physics.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := seed.Build(k, seed.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	sim, err := NewSimulation(k, 0, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func hasEvent(events []Event, category string) bool {
	for _, e := range events {
		if e.Category == category {
			return true
		}
	}
	return false
}

func TestNewSimulationNeedsTwoInstances(t *testing.T) {
	k, err := fabric.New(fabric.Dimensions{MaxJoints: 8, MaxIntervals: 8, MaxFaces: 8, MaxInstances: 1}, physics.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewSimulation(k, 0, 0, 10); err == nil {
		t.Fatal("same instance for running and scratch accepted")
	}
	if _, err := NewSimulation(k, 0, 1, 10); !errors.Is(err, fabric.ErrInstanceOutOfRange) {
		t.Fatalf("missing scratch instance: got %v", err)
	}
}

func TestSimulationBirth(t *testing.T) {
	sim := newSeededSimulation(t)
	for frame := uint64(1); frame <= 100 && sim.Phase == PhaseGrowing; frame++ {
		sim.Frame(frame)
	}
	k := sim.Kernel
	if sim.Phase != PhaseMature || !k.IsBorn() || k.IsGestating() {
		t.Fatalf("phase %s born %v gestating %v", sim.Phase, k.IsBorn(), k.IsGestating())
	}
	if k.JointCount() != 10 {
		t.Fatalf("joints after birth: %d", k.JointCount())
	}
	if !hasEvent(sim.Events, "birth") || !hasEvent(sim.Events, "wrap") {
		t.Fatalf("events: %+v", sim.Events)
	}
	if sim.Stats.BornAt == 0 || sim.Stats.Wraps != 1 {
		t.Fatalf("stats: %+v", sim.Stats)
	}
	if k.NextDirection() != fabric.DirectionForward {
		t.Fatalf("next direction %s", k.NextDirection())
	}
	lowest := float32(math.MaxFloat32)
	for j := uint16(0); j < k.JointCount(); j++ {
		at, _ := k.JointLocation(j)
		lowest = min(lowest, at.Y)
	}
	if math.Abs(float64(lowest-fabric.JointRadius)) > 1e-5 {
		t.Fatalf("lowest joint at %v after birth", lowest)
	}
}

func TestSimulationFollowsProgram(t *testing.T) {
	sim := newSeededSimulation(t)
	sim.Program = []fabric.Direction{fabric.DirectionForward, fabric.DirectionLeft}
	frame := uint64(0)
	for sim.Stats.Wraps < 3 && frame < 500 {
		frame++
		sim.Frame(frame)
	}
	if sim.Stats.Wraps < 3 {
		t.Fatalf("only %d wraps in %d frames", sim.Stats.Wraps, frame)
	}
	// Birth queued forward, the second wrap made it current and queued left,
	// the third made left current.
	if got := sim.Kernel.CurrentDirection(); got != fabric.DirectionLeft {
		t.Fatalf("current direction %s want left", got)
	}
	if !hasEvent(sim.Events, "direction") {
		t.Fatal("no direction events")
	}
}

func TestSnapshotRestore(t *testing.T) {
	sim := newSeededSimulation(t)
	if err := sim.Restore(0); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("restore before snapshot: got %v", err)
	}
	for frame := uint64(1); frame <= 5; frame++ {
		sim.Frame(frame)
	}
	if err := sim.Snapshot(5); err != nil {
		t.Fatal(err)
	}
	age := sim.Kernel.Age()
	limits := sim.Kernel.Limits()
	for frame := uint64(6); frame <= 10; frame++ {
		sim.Frame(frame)
	}
	if err := sim.Restore(10); err != nil {
		t.Fatal(err)
	}
	if sim.Kernel.Age() != age || sim.Kernel.Limits() != limits {
		t.Fatalf("restored age %d limits %+v, want %d %+v", sim.Kernel.Age(), sim.Kernel.Limits(), age, limits)
	}
	if sim.Stats.Restores != 1 || !hasEvent(sim.Events, "restore") {
		t.Fatalf("restore not recorded: %+v", sim.Stats)
	}
}

func TestDivergenceRestoresSnapshot(t *testing.T) {
	sim := newSeededSimulation(t)
	sim.Frame(1)
	if err := sim.Snapshot(1); err != nil {
		t.Fatal(err)
	}
	k := sim.Kernel
	joints := k.JointCount()
	nan := float32(math.NaN())
	if _, err := k.CreateJoint(k.NextJointTag(), fabric.BilateralMiddle, nan, nan, nan); err != nil {
		t.Fatal(err)
	}
	if err := sim.Snapshot(1); err == nil {
		t.Fatal("snapshot of a non-finite structure accepted")
	}
	sim.Frame(2)
	if k.JointCount() != joints {
		t.Fatalf("joints %d after restore, want %d", k.JointCount(), joints)
	}
	if sim.Stats.Restores != 1 {
		t.Fatalf("restores %d", sim.Stats.Restores)
	}
	if math.IsNaN(float64(sim.Last.MidY)) {
		t.Fatal("frame stats still carry the diverged midpoint")
	}
}

func TestTakeFramesAndEvents(t *testing.T) {
	sim := newSeededSimulation(t)
	for frame := uint64(1); frame <= 30; frame++ {
		sim.Frame(frame)
	}
	frames := sim.TakeFrames()
	if len(frames) != 30 || frames[29].Frame != 30 {
		t.Fatalf("took %d frames", len(frames))
	}
	if len(sim.TakeFrames()) != 0 {
		t.Fatal("frames returned twice")
	}
	events := sim.TakeEvents()
	if len(events) != len(sim.Events) {
		t.Fatalf("took %d events of %d", len(events), len(sim.Events))
	}
	if len(sim.TakeEvents()) != 0 {
		t.Fatal("events returned twice")
	}
}

func TestReportTrimsEvents(t *testing.T) {
	sim := newSeededSimulation(t)
	for n := 0; n < maxEvents+100; n++ {
		sim.record(uint64(n), "wrap", fmt.Sprintf("event %d", n))
	}
	sim.Report(1)
	if len(sim.Events) != maxEvents {
		t.Fatalf("events after report: %d", len(sim.Events))
	}
	if sim.Events[0].Frame != 100 {
		t.Fatalf("oldest kept event is frame %d", sim.Events[0].Frame)
	}
}

func TestFrameSkipsUnselectableInstance(t *testing.T) {
	sim := newSeededSimulation(t)
	first := sim.Frame(1)
	k := sim.Kernel
	if err := k.Select(sim.Scratch); err != nil {
		t.Fatal(err)
	}
	age := k.Age()
	sim.Instance = 7

	got := sim.Frame(2)
	if got != first || sim.Stats.Frames != 1 {
		t.Fatalf("skipped frame: got %+v after %d frames, want %+v", got, sim.Stats.Frames, first)
	}
	if k.Instance() != sim.Scratch || k.Age() != age {
		t.Fatalf("kernel moved: instance %d age %d", k.Instance(), k.Age())
	}
	if frames := sim.TakeFrames(); len(frames) != 1 {
		t.Fatalf("pending frames: %d", len(frames))
	}
}
