// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package swapchain manages the backbuffers and everything sized to them.
//
// The Manager owns the swap chain, the render-target view heap (one slot
// per buffer), the depth/stencil buffer with its one-slot view heap, and
// the viewport and scissor rectangle. OnResize rebuilds all of them after
// flushing the GPU, because a buffer still referenced by queued commands
// must not be released.
package swapchain

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/device"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/heap"
	"github.com/gogpu/g3d/internal/logx"
)

// DefaultBufferCount is the buffer count used when Config leaves it zero.
const DefaultBufferCount = 2

// ErrInvalidConfig is returned for unusable swap chain configurations.
var ErrInvalidConfig = errors.New("swapchain: invalid config")

// Config describes the swap chain to create.
type Config struct {
	// Width and Height are the initial buffer size. Zero takes the surface size.
	Width  int
	Height int

	// BufferCount is the number of buffers (2 for double buffering).
	BufferCount int

	// Format is the backbuffer format. Zero means gpucore.BackBufferFormat.
	Format gpucore.Format

	// DepthFormat is the depth/stencil format. Zero means gpucore.DepthStencilFormat.
	DepthFormat gpucore.Format

	// SyncInterval is passed to Present: 0 presents immediately, 1 waits
	// for vertical sync.
	SyncInterval int
}

func (c *Config) setDefaults() {
	if c.BufferCount == 0 {
		c.BufferCount = DefaultBufferCount
	}
	if c.Format == 0 {
		c.Format = gpucore.BackBufferFormat
	}
	if c.DepthFormat == 0 {
		c.DepthFormat = gpucore.DepthStencilFormat
	}
}

// Manager owns the swap chain and its size-dependent resources.
type Manager struct {
	ctx     *device.Context
	surface gpucore.Surface
	cfg     Config

	chain   gpucore.SwapChain
	rtvHeap *heap.Heap
	dsvHeap *heap.Heap
	buffers []gpucore.Texture
	depth   gpucore.Texture
	current int

	width    int
	height   int
	viewport gpucore.Viewport
	scissor  gpucore.Rect
	resizes  int
}

// New creates the swap chain for surface, its descriptor heaps and the
// size-dependent resources.
func New(ctx *device.Context, surface gpucore.Surface, cfg Config) (*Manager, error) {
	cfg.setDefaults()
	if cfg.BufferCount < 1 {
		return nil, fmt.Errorf("%w: buffer count %d", ErrInvalidConfig, cfg.BufferCount)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = surface.Size()
	}

	dev := ctx.Device()
	chain, err := dev.CreateSwapChain(ctx.Queue(), surface, gpucore.SwapChainDesc{
		Width:       cfg.Width,
		Height:      cfg.Height,
		BufferCount: cfg.BufferCount,
		Format:      cfg.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("swapchain: create: %w", err)
	}

	m := &Manager{ctx: ctx, surface: surface, cfg: cfg, chain: chain}
	if m.rtvHeap, err = heap.New(dev, gpucore.DescriptorHeapRTV, cfg.BufferCount); err != nil {
		chain.Destroy()
		return nil, fmt.Errorf("swapchain: %w", err)
	}
	if m.dsvHeap, err = heap.New(dev, gpucore.DescriptorHeapDSV, 1); err != nil {
		m.rtvHeap.Destroy()
		chain.Destroy()
		return nil, fmt.Errorf("swapchain: %w", err)
	}

	if err := m.OnResize(cfg.Width, cfg.Height); err != nil {
		m.dsvHeap.Destroy()
		m.rtvHeap.Destroy()
		chain.Destroy()
		return nil, err
	}
	return m, nil
}

// OnResize rebuilds the buffers for a new client size.
//
// The GPU is flushed before any buffer is released. The buffers are then
// resized, their render-target views and the depth/stencil buffer are
// recreated, and the current buffer index returns to 0. A zero dimension
// (a minimized window) leaves everything unchanged.
func (m *Manager) OnResize(width, height int) error {
	if width <= 0 || height <= 0 {
		logx.Logger().Debug("swapchain: ignoring resize to empty size", "width", width, "height", height)
		return nil
	}

	if err := m.ctx.Flush(); err != nil {
		return fmt.Errorf("swapchain: flush before resize: %w", err)
	}
	if err := m.ctx.ResetCommandList(); err != nil {
		return fmt.Errorf("swapchain: %w", err)
	}

	m.buffers = nil
	if m.depth != nil {
		m.depth.Destroy()
		m.depth = nil
	}

	if err := m.chain.ResizeBuffers(m.cfg.BufferCount, width, height); err != nil {
		return fmt.Errorf("swapchain: resize buffers to %dx%d: %w", width, height, err)
	}
	m.current = 0

	dev := m.ctx.Device()
	m.buffers = make([]gpucore.Texture, m.cfg.BufferCount)
	for i := range m.buffers {
		buf, err := m.chain.Buffer(i)
		if err != nil {
			return fmt.Errorf("swapchain: buffer %d: %w", i, err)
		}
		m.buffers[i] = buf
		dev.CreateRenderTargetView(buf, m.rtvHeap.Handle(i))
	}

	depth, err := dev.CreateDepthStencil(width, height, m.cfg.DepthFormat)
	if err != nil {
		return fmt.Errorf("swapchain: depth buffer %dx%d: %w", width, height, err)
	}
	m.depth = depth
	dev.CreateDepthStencilView(depth, m.dsvHeap.Handle(0))

	m.ctx.CommandList().ResourceBarrier(
		gpucore.Transition(depth, gpucore.StateCommon, gpucore.StateDepthWrite))
	if err := m.ctx.Execute(); err != nil {
		return fmt.Errorf("swapchain: %w", err)
	}
	// Wait for the depth transition before the new buffers are used.
	if err := m.ctx.Flush(); err != nil {
		return fmt.Errorf("swapchain: flush after resize: %w", err)
	}

	m.width, m.height = width, height
	m.viewport = gpucore.Viewport{
		Width:    float32(width),
		Height:   float32(height),
		MaxDepth: 1,
	}
	m.scissor = gpucore.Rect{Right: width, Bottom: height}
	m.resizes++

	logx.Logger().Info("swapchain: resized", "width", width, "height", height, "buffers", m.cfg.BufferCount)
	return nil
}

// Present queues the current buffer for display and advances to the next.
func (m *Manager) Present() error {
	if err := m.chain.Present(m.current, m.cfg.SyncInterval); err != nil {
		return fmt.Errorf("swapchain: present buffer %d: %w", m.current, err)
	}
	m.current = (m.current + 1) % m.cfg.BufferCount
	return nil
}

// CurrentIndex is the index of the buffer the next frame renders into.
func (m *Manager) CurrentIndex() int { return m.current }

// BufferCount is the number of buffers.
func (m *Manager) BufferCount() int { return m.cfg.BufferCount }

// CurrentBackBuffer is the buffer the next frame renders into.
func (m *Manager) CurrentBackBuffer() gpucore.Texture { return m.buffers[m.current] }

// CurrentBackBufferView is the render-target view of CurrentBackBuffer.
func (m *Manager) CurrentBackBufferView() gpucore.DescriptorHandle {
	return m.rtvHeap.Handle(m.current)
}

// DepthStencil is the depth/stencil buffer.
func (m *Manager) DepthStencil() gpucore.Texture { return m.depth }

// DepthStencilView is the view of the depth/stencil buffer.
func (m *Manager) DepthStencilView() gpucore.DescriptorHandle { return m.dsvHeap.Handle(0) }

// Viewport covers the whole backbuffer.
func (m *Manager) Viewport() gpucore.Viewport { return m.viewport }

// ScissorRect covers the whole backbuffer.
func (m *Manager) ScissorRect() gpucore.Rect { return m.scissor }

// Size is the current buffer size.
func (m *Manager) Size() (width, height int) { return m.width, m.height }

// AspectRatio is width over height.
func (m *Manager) AspectRatio() float32 {
	if m.height == 0 {
		return 1
	}
	return float32(m.width) / float32(m.height)
}

// Resizes counts completed OnResize rebuilds, including the initial one.
func (m *Manager) Resizes() int { return m.resizes }

// Chain returns the underlying swap chain.
func (m *Manager) Chain() gpucore.SwapChain { return m.chain }

// Close flushes the GPU and releases every resource the manager owns.
func (m *Manager) Close() error {
	err := m.ctx.Flush()
	m.buffers = nil
	if m.depth != nil {
		m.depth.Destroy()
		m.depth = nil
	}
	m.chain.Destroy()
	m.dsvHeap.Destroy()
	m.rtvHeap.Destroy()
	return err
}
