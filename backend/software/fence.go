// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"sync"

	"github.com/gogpu/g3d/gpucore"
)

// Fence is a timeline fence advanced by queue Signal instructions.
type Fence struct {
	mu        sync.Mutex
	completed uint64
	waiters   []fenceWaiter
}

type fenceWaiter struct {
	value uint64
	ev    *gpucore.Event
}

// CompletedValue implements gpucore.Fence.
func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// SetEventOnCompletion implements gpucore.Fence.
func (f *Fence) SetEventOnCompletion(value uint64, ev *gpucore.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed >= value {
		ev.Signal()
		return nil
	}
	f.waiters = append(f.waiters, fenceWaiter{value: value, ev: ev})
	return nil
}

// PendingEvents returns the number of events registered and not yet fired.
// A positive count means some caller is blocked on this fence.
func (f *Fence) PendingEvents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// complete advances the fence. The completed value never decreases.
func (f *Fence) complete(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value > f.completed {
		f.completed = value
	}
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if f.completed >= w.value {
			w.ev.Signal()
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}
