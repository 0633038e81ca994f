// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
)

// Queue submits encoded command lists to the HAL queue.
//
// Work executed since the last Signal is collected into a batch. Signal
// hands the batch to the fence watcher, which releases it once the GPU
// reaches the signaled value: allocators become resettable, command
// buffers and bind groups are freed and the textures stop being in flight.
type Queue struct {
	dev *Device
	hal hal.Queue

	mu    sync.Mutex
	batch batch
	busy  map[*Texture]uint64
	fence *Fence
	lists uint64
}

// batch is the work executed since the last Signal.
type batch struct {
	allocs  []*CommandAllocator
	buffers []hal.CommandBuffer
	groups  []hal.BindGroup
	used    map[*Texture]struct{}
}

var _ gpucore.CommandQueue = (*Queue)(nil)

func newQueue(dev *Device) *Queue {
	return &Queue{dev: dev, hal: dev.queue, busy: make(map[*Texture]uint64)}
}

// ExecuteCommandLists implements gpucore.CommandQueue. The buffer ranges
// the lists bind are written to the GPU first, so each list sees the
// upload data as it was at submission.
func (q *Queue) ExecuteCommandLists(lists ...gpucore.CommandList) error {
	cls := make([]*CommandList, 0, len(lists))
	for _, cl := range lists {
		l, ok := cl.(*CommandList)
		if !ok {
			return fmt.Errorf("wgpu: foreign command list %T", cl)
		}
		if l.open {
			return gpucore.ErrListNotClosed
		}
		cls = append(cls, l)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dev.isDestroyed() {
		return gpucore.ErrDestroyed
	}
	for _, l := range cls {
		for _, c := range l.cmds {
			if c.kind == cmdConstantBuffer || c.kind == cmdShaderResource {
				c.buf.flush(q.hal, c.offset, c.size)
			}
		}

		enc := &listEncoder{dev: q.dev, used: make(map[*Texture]struct{})}
		cb, err := enc.encode(l)
		if err != nil {
			enc.release()
			return err
		}
		if err := q.hal.Submit([]hal.CommandBuffer{cb}, nil, 0); err != nil {
			q.dev.hal.FreeCommandBuffer(cb)
			enc.release()
			return fmt.Errorf("wgpu: submit: %w", err)
		}

		l.alloc.pending.Add(1)
		q.batch.allocs = append(q.batch.allocs, l.alloc)
		q.batch.buffers = append(q.batch.buffers, cb)
		q.batch.groups = append(q.batch.groups, enc.groups...)
		if q.batch.used == nil {
			q.batch.used = make(map[*Texture]struct{})
		}
		for t := range enc.used {
			q.batch.used[t] = struct{}{}
		}
		q.lists++
	}
	return nil
}

// Signal implements gpucore.CommandQueue.
func (q *Queue) Signal(f gpucore.Fence, value uint64) error {
	wf, ok := f.(*Fence)
	if !ok {
		return fmt.Errorf("wgpu: foreign fence %T", f)
	}

	q.mu.Lock()
	if q.dev.isDestroyed() {
		q.mu.Unlock()
		return gpucore.ErrDestroyed
	}
	if err := q.hal.Submit(nil, wf.hal, value); err != nil {
		q.mu.Unlock()
		return fmt.Errorf("wgpu: signal %d: %w", value, err)
	}
	b := q.batch
	q.batch = batch{}
	for t := range b.used {
		q.busy[t] = value
	}
	q.fence = wf
	q.mu.Unlock()

	dev := q.dev.hal
	wf.expect(value, func() {
		for _, a := range b.allocs {
			a.pending.Add(-1)
		}
		for _, cb := range b.buffers {
			dev.FreeCommandBuffer(cb)
		}
		for _, g := range b.groups {
			dev.DestroyBindGroup(g)
		}
	})
	return nil
}

// InFlight reports whether submitted work may still reference t.
func (q *Queue) InFlight(t *Texture) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.batch.used[t]; ok {
		return true
	}
	v, ok := q.busy[t]
	if !ok {
		return false
	}
	if q.fence != nil && q.fence.CompletedValue() >= v {
		delete(q.busy, t)
		return false
	}
	return true
}

// Executed returns the number of command lists submitted.
func (q *Queue) Executed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lists
}

func (d *Device) isDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}
