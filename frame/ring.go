// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame rotates per-frame resources under fence protocol.
//
// The CPU records frame N+1 while the GPU still executes frame N. Each
// frame writes into its own Resource, and a ring of depth R lets the CPU
// run at most R frames ahead. A slot is reused only after the GPU reached
// the fence value issued when the slot was last submitted:
//
//	res, err := ring.Acquire()  // may block on the slot's fence
//	res.Passes.CopyData(frame.PassMain, passBytes)
//	// record commands reading res's buffers, execute them
//	_, err = ring.Submit()      // tags res with a new fence value
//
// There are no locks: the fence wait is what keeps the CPU from
// overwriting memory the GPU is still reading.
package frame

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// ErrInvalidDepth is returned by NewRing for a depth below 1.
var ErrInvalidDepth = errors.New("frame: ring depth must be at least 1")

// Syncer issues and awaits fence values. *device.Context implements it.
type Syncer interface {
	Signal() (uint64, error)
	WaitForFence(value uint64) error
	CompletedFence() uint64
}

// Stats counts ring activity.
type Stats struct {
	// Frames is the number of submitted frames.
	Frames uint64

	// Waits is the number of Acquire calls that blocked on a fence.
	Waits uint64

	// Deferred is the number of deferred destructions run.
	Deferred uint64
}

// Ring is a fixed ring of frame resources.
type Ring struct {
	sync    Syncer
	slots   []*Resource
	current int
	stats   Stats
}

// NewRing creates depth frame resources on dev.
func NewRing(dev gpucore.Device, sync Syncer, depth int, cfg Config) (*Ring, error) {
	if depth < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	r := &Ring{sync: sync, current: depth - 1}
	for i := 0; i < depth; i++ {
		res, err := newResource(dev, i, cfg)
		if err != nil {
			for _, s := range r.slots {
				s.destroy()
			}
			return nil, err
		}
		r.slots = append(r.slots, res)
	}
	return r, nil
}

// Depth is the number of slots.
func (r *Ring) Depth() int { return len(r.slots) }

// Slot returns slot i.
func (r *Ring) Slot(i int) *Resource { return r.slots[i] }

// Current returns the most recently acquired slot.
func (r *Ring) Current() *Resource { return r.slots[r.current] }

// Stats returns the ring counters.
func (r *Ring) Stats() Stats { return r.stats }

// SlotState reports the state of slot i, resolving Submitted slots whose
// fence the GPU has reached to Complete.
func (r *Ring) SlotState(i int) State {
	s := r.slots[i]
	if s.state == Submitted && r.sync.CompletedFence() >= s.fence {
		return Complete
	}
	return s.state
}

// Acquire advances to the next slot and prepares it for writing.
//
// If the slot's last submission has not completed, Acquire blocks until
// it has. It then runs the slot's deferred destructions and resets its
// command allocator. Acquiring while the current slot is still being
// written is a programming error and panics.
func (r *Ring) Acquire() (*Resource, error) {
	if r.slots[r.current].state == Writing {
		panic(fmt.Sprintf("frame: slot %d acquired twice without Submit", r.current))
	}

	next := (r.current + 1) % len(r.slots)
	res := r.slots[next]

	if res.fence != 0 && r.sync.CompletedFence() < res.fence {
		logx.Logger().Debug("frame: waiting for slot",
			"slot", next, "fence", res.fence, "completed", r.sync.CompletedFence())
		if err := r.sync.WaitForFence(res.fence); err != nil {
			return nil, fmt.Errorf("frame: slot %d: %w", next, err)
		}
		r.stats.Waits++
	}

	res.state = Idle
	r.stats.Deferred += uint64(len(res.deferred))
	res.runDeferred()

	if err := res.Allocator.Reset(); err != nil {
		return nil, fmt.Errorf("frame: slot %d: reset allocator: %w", next, err)
	}

	res.state = Writing
	r.current = next
	return res, nil
}

// Submit tags the current slot with a new fence value, issued on the
// queue after everything submitted so far. Call it right after executing
// the commands that read the slot.
func (r *Ring) Submit() (uint64, error) {
	res := r.slots[r.current]
	if res.state != Writing {
		panic(fmt.Sprintf("frame: submit of slot %d in state %s", r.current, res.state))
	}
	v, err := r.sync.Signal()
	if err != nil {
		return 0, fmt.Errorf("frame: slot %d: %w", r.current, err)
	}
	res.fence = v
	res.state = Submitted
	r.stats.Frames++
	return v, nil
}

// Abandon hands the current slot, acquired but never submitted, back to
// the ring: the next Acquire returns it again. Call it when the frame's
// commands were not executed. Destructions deferred while the slot was
// being written move to the previous slot.
func (r *Ring) Abandon() {
	res := r.slots[r.current]
	if res.state != Writing {
		panic(fmt.Sprintf("frame: abandon of slot %d in state %s", r.current, res.state))
	}
	res.state = Idle
	deferred := res.deferred
	res.deferred = nil
	r.current = (r.current + len(r.slots) - 1) % len(r.slots)
	for _, fn := range deferred {
		r.Defer(fn)
	}
	logx.Logger().Debug("frame: slot abandoned", "slot", res.index)
}

// Defer schedules fn to run once the GPU can no longer reference anything
// the current slot's commands use: when the slot is next acquired, or on
// Close. Use it to release resources retired mid-flight.
func (r *Ring) Defer(fn func()) {
	res := r.slots[r.current]
	if res.state == Idle && res.fence == 0 {
		fn()
		r.stats.Deferred++
		return
	}
	res.deferred = append(res.deferred, fn)
}

// Close waits for every slot's last submission, runs pending deferred
// destructions and releases the buffers.
func (r *Ring) Close() error {
	var firstErr error
	for _, s := range r.slots {
		if s.fence != 0 {
			if err := r.sync.WaitForFence(s.fence); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("frame: close slot %d: %w", s.index, err)
			}
		}
		r.stats.Deferred += uint64(len(s.deferred))
		s.destroy()
	}
	return firstErr
}
