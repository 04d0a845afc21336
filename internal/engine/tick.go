// Package engine provides the frame loop and the simulation that steps the
// world and every brain in it.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// FrameSchedule defines when each layer runs relative to the frame counter.
const (
	FramesPerSecond = 60
	FramesPerMinute = 60 * FramesPerSecond
)

// Engine drives the simulation forward in fixed frames.
type Engine struct {
	Frame    uint64        // Current frame counter (monotonic, never resets)
	Interval time.Duration // Simulated time per frame

	running atomic.Bool
	speed   atomic.Uint64 // math.Float64bits of the real-time multiplier

	// Callbacks for each layer, populated during setup.
	OnFrame  func(frame uint64, dt time.Duration) // Every frame
	OnSecond func(frame uint64)                   // Every FramesPerSecond frames
	OnMinute func(frame uint64)                   // Every FramesPerMinute frames
}

// NewEngine creates an engine running at 60 frames per second.
func NewEngine() *Engine {
	e := &Engine{Interval: time.Second / FramesPerSecond}
	e.SetSpeed(1)
	return e
}

// Speed returns the real-time multiplier: 1.0 = real-time, 0 = paused.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the multiplier. Safe to call while Run is looping.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

// ErrRunning is returned by Run when another Run is already looping.
var ErrRunning = errors.New("engine already running")

// Run steps frames in real time until ctx is done or Stop is called. Stop only
// ends a loop that has started; one issued before Run has no effect.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)
	slog.Info("simulation engine started", "frame", e.Frame, "speed", e.Speed())

	for e.running.Load() {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation engine stopped", "frame", e.Frame, "reason", err)
			return err
		}

		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			sleep(ctx, 100*time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the frame, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			sleep(ctx, target-elapsed)
		}
	}

	slog.Info("simulation engine stopped", "frame", e.Frame)
	return nil
}

// RunFrames steps n frames back to back without sleeping.
func (e *Engine) RunFrames(n int) {
	for i := 0; i < n; i++ {
		e.step()
	}
}

// Stop halts a running Run after the current frame.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// step advances the simulation by one frame.
func (e *Engine) step() {
	e.Frame++

	if e.OnFrame != nil {
		e.OnFrame(e.Frame, e.Interval)
	}

	// Every second: statistics.
	if e.Frame%FramesPerSecond == 0 && e.OnSecond != nil {
		e.OnSecond(e.Frame)
	}

	// Every minute: snapshots.
	if e.Frame%FramesPerMinute == 0 && e.OnMinute != nil {
		e.OnMinute(e.Frame)
	}
}

// SimTime returns the simulated time elapsed after frame frames of interval.
func SimTime(frame uint64, interval time.Duration) time.Duration {
	return time.Duration(frame) * interval
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
