// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// Errors returned by Create.
var (
	// ErrNoDevice is returned when neither the selected adapter nor the
	// software adapter can create a device.
	ErrNoDevice = errors.New("device: no device could be created")

	// ErrClosed is returned when using a closed context.
	ErrClosed = errors.New("device: context closed")
)

// AutoAdapter selects the adapter with the most dedicated video memory.
const AutoAdapter = -1

// Options configures Create.
type Options struct {
	// AdapterIndex is the preferred adapter, as enumerated by the factory.
	// AutoAdapter, or an index out of range, selects automatically.
	AdapterIndex int
}

// DefaultOptions returns options with automatic adapter selection.
func DefaultOptions() Options {
	return Options{AdapterIndex: AutoAdapter}
}

// Stats counts synchronization events since creation.
type Stats struct {
	// Signals is the number of fence values issued.
	Signals uint64

	// Waits is the number of times the CPU blocked on the fence.
	Waits uint64

	// Flushes is the number of Flush calls.
	Flushes uint64
}

// Context owns the device, its command objects and its fence.
type Context struct {
	dev     gpucore.Device
	queue   gpucore.CommandQueue
	alloc   gpucore.CommandAllocator
	list    gpucore.CommandList
	fence   gpucore.Fence
	current uint64

	rtvSize uint64
	dsvSize uint64
	cbvSize uint64

	stats  Stats
	closed bool
}

// Create selects an adapter, creates the device, the fence and the command
// objects. The command list is returned closed. Every failure is fatal to
// rendering and is returned wrapped, with partially created objects
// released.
func Create(factory gpucore.Factory, opts Options) (*Context, error) {
	dev, err := createDevice(factory, opts.AdapterIndex)
	if err != nil {
		return nil, err
	}

	c := &Context{dev: dev}
	if err := c.init(); err != nil {
		dev.Destroy()
		return nil, err
	}

	logx.Logger().Info("device: created",
		"adapter", dev.Info().Name,
		"kind", dev.Info().Kind,
		"rtvSize", c.rtvSize,
		"dsvSize", c.dsvSize,
		"cbvSize", c.cbvSize)
	return c, nil
}

func (c *Context) init() error {
	var err error
	if c.fence, err = c.dev.CreateFence(0); err != nil {
		return fmt.Errorf("device: create fence: %w", err)
	}

	c.rtvSize = c.dev.DescriptorIncrementSize(gpucore.DescriptorHeapRTV)
	c.dsvSize = c.dev.DescriptorIncrementSize(gpucore.DescriptorHeapDSV)
	c.cbvSize = c.dev.DescriptorIncrementSize(gpucore.DescriptorHeapCBVSRVUAV)

	return c.createCommandObjects()
}

func (c *Context) createCommandObjects() error {
	var err error
	if c.queue, err = c.dev.CreateCommandQueue(); err != nil {
		return fmt.Errorf("device: create command queue: %w", err)
	}
	if c.alloc, err = c.dev.CreateCommandAllocator(); err != nil {
		return fmt.Errorf("device: create command allocator: %w", err)
	}
	if c.list, err = c.dev.CreateCommandList(c.alloc); err != nil {
		return fmt.Errorf("device: create command list: %w", err)
	}
	// Start closed: the first user resets it before recording.
	if err = c.list.Close(); err != nil {
		return fmt.Errorf("device: close command list: %w", err)
	}
	return nil
}

// createDevice tries the preferred adapter, then falls back to the
// factory's software adapter.
func createDevice(factory gpucore.Factory, preferred int) (gpucore.Device, error) {
	adapters := factory.Adapters()
	logAdapters(adapters)

	var hwErr error
	if idx := SelectAdapter(adapters, preferred); idx >= 0 {
		a := adapters[idx]
		dev, err := a.CreateDevice()
		if err == nil {
			return dev, nil
		}
		hwErr = err
		logx.Logger().Warn("device: adapter failed, falling back to software",
			"adapter", a.Info().Name, "err", err)
	} else {
		hwErr = gpucore.ErrNoAdapter
	}

	sw, err := factory.SoftwareAdapter()
	if err != nil {
		return nil, fmt.Errorf("%w: %w (software adapter: %w)", ErrNoDevice, hwErr, err)
	}
	dev, err := sw.CreateDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w (software adapter: %w)", ErrNoDevice, hwErr, err)
	}
	return dev, nil
}

// SelectAdapter returns the index of the adapter to use: preferred when
// it is in range, otherwise the adapter with the most dedicated video
// memory, or -1 when there are no adapters. Ties keep enumeration order.
func SelectAdapter(adapters []gpucore.Adapter, preferred int) int {
	if preferred >= 0 && preferred < len(adapters) {
		return preferred
	}
	best := -1
	var bestMem uint64
	for i, a := range adapters {
		mem := a.Info().DedicatedVideoMemory
		if best < 0 || mem > bestMem {
			best, bestMem = i, mem
		}
	}
	return best
}

func logAdapters(adapters []gpucore.Adapter) {
	log := logx.Logger()
	for _, a := range adapters {
		info := a.Info()
		log.Debug("device: adapter",
			"index", info.Index,
			"name", info.Name,
			"kind", info.Kind,
			"dedicatedVideoMemory", info.DedicatedVideoMemory)
	}
}

// Device returns the logical device.
func (c *Context) Device() gpucore.Device { return c.dev }

// Queue returns the command queue.
func (c *Context) Queue() gpucore.CommandQueue { return c.queue }

// CommandAllocator returns the context's own allocator.
func (c *Context) CommandAllocator() gpucore.CommandAllocator { return c.alloc }

// CommandList returns the context's command list.
func (c *Context) CommandList() gpucore.CommandList { return c.list }

// Fence returns the fence.
func (c *Context) Fence() gpucore.Fence { return c.fence }

// Adapter describes the adapter the device was created on.
func (c *Context) Adapter() gpucore.AdapterInfo { return c.dev.Info() }

// DescriptorSize returns the descriptor increment for heaps of type t,
// queried once at creation.
func (c *Context) DescriptorSize(t gpucore.DescriptorHeapType) uint64 {
	switch t {
	case gpucore.DescriptorHeapRTV:
		return c.rtvSize
	case gpucore.DescriptorHeapDSV:
		return c.dsvSize
	default:
		return c.cbvSize
	}
}

// Stats returns the synchronization counters.
func (c *Context) Stats() Stats { return c.stats }
