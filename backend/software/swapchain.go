// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/g3d/gpucore"
)

// SwapChain owns the simulated backbuffers. Presentation is a queue
// submission, so it is ordered after every list executed before it.
type SwapChain struct {
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

// allocate creates count buffers. A zero dimension takes the surface size.
func (sc *SwapChain) allocate(count, width, height int) error {
	if width == 0 || height == 0 {
		width, height = sc.surface.Size()
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("software: swap chain size %dx%d", width, height)
	}
	buffers := make([]*Texture, count)
	for i := range buffers {
		buffers[i] = newTexture(fmt.Sprintf("backbuffer[%d]", i), width, height, sc.format, gpucore.StatePresent)
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
		return nil, fmt.Errorf("software: swap chain buffer %d out of range [0,%d)", i, len(sc.buffers))
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
			return fmt.Errorf("software: resize %s: %w", b.label, gpucore.ErrResourceInUse)
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

// Present implements gpucore.SwapChain.
func (sc *SwapChain) Present(index, _ int) error {
	sc.mu.Lock()
	if index < 0 || index >= len(sc.buffers) {
		sc.mu.Unlock()
		return fmt.Errorf("software: present buffer %d out of range [0,%d)", index, len(sc.buffers))
	}
	buf := sc.buffers[index]
	sc.mu.Unlock()

	return sc.queue.enqueue(submission{
		present: &presentation{chain: sc, buffer: buf},
		refs:    []*Texture{buf},
	})
}

// Presents returns the number of presentations executed by the GPU.
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

// display runs on the queue goroutine.
func (sc *SwapChain) display(buf *Texture) {
	if buf.Destroyed() {
		sc.queue.dev.validationf("present of destroyed buffer %q", buf.label)
		return
	}
	if s := buf.State(); s != gpucore.StatePresent {
		sc.queue.dev.validationf("present of buffer %q in state %s", buf.label, s)
	}

	sc.mu.Lock()
	sc.presents++
	sc.mu.Unlock()

	if out, ok := sc.surface.(*Surface); ok {
		out.show(buf.snapshot())
	}
}
