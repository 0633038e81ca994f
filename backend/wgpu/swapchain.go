// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// SwapChain is a ring of offscreen render targets.
type SwapChain struct {
	dev     *Device
	queue   *Queue
	surface gpucore.Surface
	format  gpucore.Format

	mu        sync.Mutex
	buffers   []*Texture
	width     int
	height    int
	presents  int
	destroyed bool
}

var _ gpucore.SwapChain = (*SwapChain)(nil)

// allocate creates count buffers. Zero dimensions take the surface size.
func (sc *SwapChain) allocate(count, width, height int) error {
	if width == 0 || height == 0 {
		width, height = sc.surface.Size()
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: swap chain size %dx%d", width, height)
	}
	buffers := make([]*Texture, 0, count)
	for i := range count {
		t, err := sc.dev.newTexture(fmt.Sprintf("backbuffer[%d]", i), width, height, sc.format,
			gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc, gpucore.StatePresent)
		if err != nil {
			for _, b := range buffers {
				b.Destroy()
			}
			return err
		}
		buffers = append(buffers, t)
	}
	sc.buffers = buffers
	sc.width, sc.height = width, height
	return nil
}

// BufferCount implements gpucore.SwapChain.
func (sc *SwapChain) BufferCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.buffers)
}

// Buffer implements gpucore.SwapChain.
func (sc *SwapChain) Buffer(i int) (gpucore.Texture, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if i < 0 || i >= len(sc.buffers) {
		return nil, fmt.Errorf("wgpu: swap chain buffer %d out of range [0,%d)", i, len(sc.buffers))
	}
	return sc.buffers[i], nil
}

// Size returns the current buffer dimensions.
func (sc *SwapChain) Size() (width, height int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.width, sc.height
}

// ResizeBuffers implements gpucore.SwapChain. A zero count keeps the
// current count; zero dimensions take the surface size.
func (sc *SwapChain) ResizeBuffers(count, width, height int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.destroyed {
		return gpucore.ErrDestroyed
	}
	for _, b := range sc.buffers {
		if sc.queue.InFlight(b) {
			return fmt.Errorf("wgpu: resize %s: %w", b.label, gpucore.ErrResourceInUse)
		}
	}
	if count == 0 {
		count = len(sc.buffers)
	}
	old := sc.buffers
	if err := sc.allocate(count, width, height); err != nil {
		return err
	}
	for _, b := range old {
		b.Destroy()
	}
	return nil
}

// Present implements gpucore.SwapChain. Presentation is headless: the
// buffer must be in the Present state and is counted.
func (sc *SwapChain) Present(index, syncInterval int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if index < 0 || index >= len(sc.buffers) {
		return fmt.Errorf("wgpu: present buffer %d out of range [0,%d)", index, len(sc.buffers))
	}
	buf := sc.buffers[index]
	if s := buf.State(); s != gpucore.StatePresent {
		return fmt.Errorf("wgpu: present %s in state %s", buf.label, s)
	}
	sc.presents++
	logx.Logger().Debug("wgpu: present", "buffer", index, "sync", syncInterval)
	return nil
}

// Presents returns the number of presentations.
func (sc *SwapChain) Presents() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.presents
}

// Destroy implements gpucore.SwapChain.
func (sc *SwapChain) Destroy() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.destroyed = true
	for _, b := range sc.buffers {
		b.Destroy()
	}
}
