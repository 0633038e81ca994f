// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// fenceWaitSlice bounds one Device.Wait call. The watcher loops until the
// value is reached, so the slice only sets how often a stall is logged.
const fenceWaitSlice = 5 * time.Second

// fenceQueueDepth is the number of signaled values the watcher buffers
// before Signal blocks.
const fenceQueueDepth = 64

// Fence is a timeline fence. Signaled values are handed to a watcher
// goroutine which waits for them in order, runs the cleanup attached to
// each and fires the completion events.
type Fence struct {
	dev hal.Device
	hal hal.Fence

	mu        sync.Mutex
	completed uint64
	waiters   []fenceWaiter

	work     chan fenceWork
	done     chan struct{}
	stopOnce sync.Once
}

type fenceWaiter struct {
	value uint64
	ev    *gpucore.Event
}

type fenceWork struct {
	value uint64
	then  func()
}

var _ gpucore.Fence = (*Fence)(nil)

func newFence(dev hal.Device, hf hal.Fence, initial uint64) *Fence {
	f := &Fence{
		dev:       dev,
		hal:       hf,
		completed: initial,
		work:      make(chan fenceWork, fenceQueueDepth),
		done:      make(chan struct{}),
	}
	go f.watch()
	return f
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

// PendingEvents returns the number of registered, unsignaled events.
func (f *Fence) PendingEvents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// expect queues value for the watcher. then runs once the GPU reaches it.
func (f *Fence) expect(value uint64, then func()) {
	f.work <- fenceWork{value: value, then: then}
}

func (f *Fence) watch() {
	defer close(f.done)
	for w := range f.work {
		for {
			ok, err := f.dev.Wait(f.hal, w.value, fenceWaitSlice)
			if err != nil {
				// A lost device never reaches the value; completing it
				// keeps CPU waiters from hanging on shutdown.
				logx.Logger().Error("wgpu: fence wait failed", "value", w.value, "err", err)
				break
			}
			if ok {
				break
			}
			logx.Logger().Warn("wgpu: fence wait still pending", "value", w.value)
		}
		if w.then != nil {
			w.then()
		}
		f.complete(w.value)
	}
}

func (f *Fence) complete(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value > f.completed {
		f.completed = value
	}
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= f.completed {
			w.ev.Signal()
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}

// stop drains the watcher and destroys the HAL fence.
func (f *Fence) stop() {
	f.stopOnce.Do(func() {
		close(f.work)
		<-f.done
		f.dev.DestroyFence(f.hal)
	})
}
