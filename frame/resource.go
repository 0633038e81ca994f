// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"fmt"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/upload"
)

// Pass constant buffer elements.
const (
	PassMain = iota
	PassShadow
	passCount
)

// State is the lifecycle state of a frame resource.
type State int

const (
	// Idle: no CPU writes pending and the GPU finished with the slot.
	Idle State = iota
	// Writing: the CPU is filling the slot's buffers.
	Writing
	// Submitted: commands reading the slot are queued and fence-tagged.
	Submitted
	// Complete: the GPU reached the slot's fence; next Acquire makes it Idle.
	Complete
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Writing:
		return "Writing"
	case Submitted:
		return "Submitted"
	case Complete:
		return "Complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config sizes the buffers of every frame resource.
type Config struct {
	// PassSize is the size of the pass constants (camera, lights).
	PassSize uint64

	// MaterialSize and MaterialCount size the material buffer.
	MaterialSize  uint64
	MaterialCount int

	// InstanceSize is the size of one instance record.
	InstanceSize uint64

	// InstanceCapacity holds, per render item, the maximum number of
	// instances drawn in one frame.
	InstanceCapacity []int
}

// Resource is the per-frame bundle of upload buffers and the command
// allocator that records the frame. It is recycled, never freed, while
// the ring lives.
type Resource struct {
	index int

	// Allocator backs the frame's command list. It is reset on Acquire,
	// once the GPU has finished the previous use of the slot.
	Allocator gpucore.CommandAllocator

	// Passes holds the main and shadow pass constants (PassMain, PassShadow).
	Passes *upload.Buffer

	// Materials holds one record per material.
	Materials *upload.Buffer

	// Instances holds, per render item, that item's instance records.
	Instances []*upload.Buffer

	fence    uint64
	state    State
	deferred []func()
}

func newResource(dev gpucore.Device, index int, cfg Config) (*Resource, error) {
	r := &Resource{index: index}
	alloc, err := dev.CreateCommandAllocator()
	if err != nil {
		return nil, fmt.Errorf("frame %d: allocator: %w", index, err)
	}
	r.Allocator = alloc

	r.Passes, err = upload.New(dev, fmt.Sprintf("frame%d/passes", index),
		upload.Layout{ElementSize: cfg.PassSize, ConstantBuffer: true}, passCount)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", index, err)
	}

	if cfg.MaterialCount > 0 {
		r.Materials, err = upload.New(dev, fmt.Sprintf("frame%d/materials", index),
			upload.Layout{ElementSize: cfg.MaterialSize}, cfg.MaterialCount)
		if err != nil {
			r.destroy()
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
	}

	for item, n := range cfg.InstanceCapacity {
		b, err := upload.New(dev, fmt.Sprintf("frame%d/instances%d", index, item),
			upload.Layout{ElementSize: cfg.InstanceSize}, n)
		if err != nil {
			r.destroy()
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		r.Instances = append(r.Instances, b)
	}
	return r, nil
}

// Index is the slot index in the ring.
func (r *Resource) Index() int { return r.index }

// Fence is the fence value tagging the slot's last submission, 0 if none.
func (r *Resource) Fence() uint64 { return r.fence }

func (r *Resource) runDeferred() {
	for _, fn := range r.deferred {
		fn()
	}
	r.deferred = nil
}

func (r *Resource) destroy() {
	r.runDeferred()
	if r.Passes != nil {
		r.Passes.Destroy()
	}
	if r.Materials != nil {
		r.Materials.Destroy()
	}
	for _, b := range r.Instances {
		b.Destroy()
	}
	r.Instances = nil
}
