// Package engine drives a fabric through time: a paced frame loop and the
// simulation that grows, births and watches one structure.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Frame schedule: a frame is one Iterate call on the kernel.
const (
	FramesPerReport     = 60  // about a second of animation
	FramesPerCheckpoint = 600 // snapshot, trace flush and database write
)

// Engine paces frames against the wall clock.
type Engine struct {
	Frame    uint64        // Frames completed (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = one frame per Interval, 0 = paused
	Interval time.Duration // Base frame interval
	Limit    uint64        // Stop after this many frames, 0 = run until stopped

	running atomic.Bool

	OnFrame      func(frame uint64) // Every frame
	OnReport     func(frame uint64) // Every FramesPerReport frames
	OnCheckpoint func(frame uint64) // Every FramesPerCheckpoint frames
}

// NewEngine creates an engine at 60 frames per second.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: time.Second / 60,
	}
}

// Run starts the frame loop. Blocks until Stop is called or Limit frames
// have run.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("fabric engine started", "frame", e.Frame, "speed", e.Speed)

	for e.running.Load() {
		if e.Limit > 0 && e.Frame >= e.Limit {
			break
		}
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	e.running.Store(false)
	slog.Info("fabric engine stopped", "frame", e.Frame)
}

// Stop halts the frame loop after the current frame. Safe to call from
// another goroutine.
func (e *Engine) Stop() {
	e.running.Store(false)
}

func (e *Engine) Running() bool {
	return e.running.Load()
}

// Step advances one frame and fires whichever callbacks fall on it.
func (e *Engine) Step() {
	e.Frame++

	if e.OnFrame != nil {
		e.OnFrame(e.Frame)
	}
	if e.Frame%FramesPerReport == 0 && e.OnReport != nil {
		e.OnReport(e.Frame)
	}
	if e.Frame%FramesPerCheckpoint == 0 && e.OnCheckpoint != nil {
		e.OnCheckpoint(e.Frame)
	}
}

// RunFrames steps n frames as fast as possible, ignoring Speed and Interval.
func (e *Engine) RunFrames(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.Step()
	}
}

// FrameTime renders a frame count as animation time at 60 frames a second.
func FrameTime(frame uint64) string {
	seconds := frame / 60
	return fmt.Sprintf("%d:%02d.%02d", seconds/60, seconds%60, frame%60)
}
