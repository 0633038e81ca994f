// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import "time"

// DefaultFixedStep is the simulation step used when none is configured.
const DefaultFixedStep = 10 * time.Millisecond

// DefaultMaxSteps bounds the fixed updates run by a single Tick.
const DefaultMaxSteps = 10

// Timer runs a fixed-step simulation clock alongside a variable render
// clock and counts frames per second.
//
// Each Tick accumulates the elapsed wall time and reports how many fixed
// steps fit into it. The remainder carries over to the next Tick. After a
// long stall at most MaxSteps are reported and the backlog is dropped, so
// the simulation never spirals trying to catch up.
//
// A Timer is not safe for concurrent use.
type Timer struct {
	step     time.Duration
	maxSteps int

	started bool
	last    time.Time
	lag     time.Duration
	total   time.Duration
	updates uint64

	window      time.Time
	frames      int
	fps         int
	statsClosed bool
}

// NewTimer returns a timer with the given fixed step. A non-positive step
// means DefaultFixedStep.
func NewTimer(step time.Duration) *Timer {
	if step <= 0 {
		step = DefaultFixedStep
	}
	return &Timer{step: step, maxSteps: DefaultMaxSteps}
}

// SetMaxSteps changes the per-Tick step cap. Values below 1 are ignored.
func (t *Timer) SetMaxSteps(n int) {
	if n >= 1 {
		t.maxSteps = n
	}
}

// Reset restarts the clock at now.
func (t *Timer) Reset(now time.Time) {
	t.started = true
	t.last = now
	t.window = now
	t.lag = 0
	t.total = 0
	t.updates = 0
	t.frames = 0
	t.fps = 0
	t.statsClosed = false
}

// Tick advances the clock to now and returns the number of fixed steps to
// simulate and the wall time since the previous Tick. The first Tick only
// starts the clock.
func (t *Timer) Tick(now time.Time) (steps int, delta time.Duration) {
	if !t.started {
		t.Reset(now)
		return 0, 0
	}

	delta = now.Sub(t.last)
	if delta < 0 {
		delta = 0
	}
	t.last = now
	t.total += delta
	t.lag += delta

	steps = int(t.lag / t.step)
	t.lag -= time.Duration(steps) * t.step
	if steps > t.maxSteps {
		steps = t.maxSteps
		t.lag = 0
	}
	t.updates += uint64(steps)

	t.frames++
	t.statsClosed = false
	if elapsed := now.Sub(t.window); elapsed >= time.Second {
		t.fps = int(time.Duration(t.frames) * time.Second / elapsed)
		t.frames = 0
		t.window = now
		t.statsClosed = true
	}
	return steps, delta
}

// Step is the fixed simulation step.
func (t *Timer) Step() time.Duration { return t.step }

// Total is the wall time accumulated since Reset.
func (t *Timer) Total() time.Duration { return t.total }

// Updates is the number of fixed steps reported since Reset.
func (t *Timer) Updates() uint64 { return t.updates }

// Alpha is the fraction of a step left in the accumulator, for
// interpolating render state between two simulation steps.
func (t *Timer) Alpha() float64 {
	return float64(t.lag) / float64(t.step)
}

// FPS is the frame rate measured over the last complete one second window.
func (t *Timer) FPS() int { return t.fps }

// StatsUpdated reports whether the last Tick closed a statistics window.
func (t *Timer) StatsUpdated() bool { return t.statsClosed }
