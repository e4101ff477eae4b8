package trace

import (
	"bufio"
	"errors"
	"testing"
	"time"

	"github.com/elastic-interval/pretenst-sub000/internal/fabric"
	"github.com/elastic-interval/pretenst-sub000/internal/physics"
	"github.com/elastic-interval/pretenst-sub000/internal/seed"
)

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "trace")
	clock := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	for frame := uint64(1); frame <= 3; frame++ {
		if err := w.Write(Record{Run: "r", Frame: frame, Joints: [][3]float32{{1, 2, 3}}}); err != nil {
			t.Fatal(err)
		}
	}
	clock = clock.Add(time.Hour)
	if err := w.Write(Record{Run: "r", Frame: 4}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files, err := Files(dir, "trace")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files: %v", files)
	}
	var frames []uint64
	for _, path := range files {
		err := Read(path, func(r Record) error {
			frames = append(frames, r.Frame)
			if r.Frame == 2 && r.Joints[0] != [3]float32{1, 2, 3} {
				t.Fatalf("joint lost: %+v", r.Joints)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(frames) != 4 || frames[0] != 1 || frames[3] != 4 {
		t.Fatalf("frames read: %v", frames)
	}
}

func TestReadStopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "trace")
	for frame := uint64(1); frame <= 5; frame++ {
		if err := w.Write(Record{Frame: frame}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	files, err := Files(dir, "trace")
	if err != nil || len(files) == 0 {
		t.Fatalf("files %v err %v", files, err)
	}
	stop := errors.New("stop")
	seen := 0
	err = Read(files[0], func(Record) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || seen != 2 {
		t.Fatalf("err %v after %d records", err, seen)
	}
}

func TestCapture(t *testing.T) {
	k, err := fabric.New(fabric.Dimensions{MaxJoints: 32, MaxIntervals: 64, MaxFaces: 16, MaxInstances: 1}, physics.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := seed.Build(k, seed.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	k.Iterate(10)
	r := Capture(k, "run", 7)
	if len(r.Joints) != int(k.JointCount()) || len(r.Intervals) != int(k.IntervalCount()) || len(r.Stresses) != len(r.Intervals) {
		t.Fatalf("joints %d intervals %d stresses %d", len(r.Joints), len(r.Intervals), len(r.Stresses))
	}
	bar := r.Intervals[s.Bars[0]]
	if bar != [2]uint16{s.Bottom[0], s.Top[1]} {
		t.Fatalf("bar endpoints %v", bar)
	}
	if r.Frame != 7 || r.Age != 10 || r.Run != "run" {
		t.Fatalf("header %+v", r)
	}
	f := r.Forward
	if length := f[0]*f[0] + f[1]*f[1] + f[2]*f[2]; f[1] != 0 || length < 0.999 || length > 1.001 {
		t.Fatalf("forward %v is not a horizontal unit vector", f)
	}
}

type failingSink struct{ err error }

func (s failingSink) Write([]byte) (int, error) { return 0, s.err }

func TestCloseReportsFlushError(t *testing.T) {
	w := NewWriter(t.TempDir(), "trace")
	if err := w.Close(); err != nil {
		t.Fatalf("close before any write: %v", err)
	}
	full := errors.New("disk full")
	w.w = bufio.NewWriter(failingSink{full})
	w.curHour = "2026-03-01-10"
	if _, err := w.w.WriteString("{}\n"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); !errors.Is(err, full) {
		t.Fatalf("close: got %v want the flush error", err)
	}
	if w.w != nil || w.curHour != "" {
		t.Fatal("writer still holds the failed file")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
