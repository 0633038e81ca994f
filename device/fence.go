// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// CurrentFence returns the last fence value requested with Signal.
func (c *Context) CurrentFence() uint64 { return c.current }

// CompletedFence returns the last fence value the GPU reached.
func (c *Context) CompletedFence() uint64 { return c.fence.CompletedValue() }

// Signal issues the next fence value on the queue, after all work
// submitted so far, and returns it.
func (c *Context) Signal() (uint64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	c.current++
	if err := c.queue.Signal(c.fence, c.current); err != nil {
		return 0, fmt.Errorf("device: signal %d: %w", c.current, err)
	}
	c.stats.Signals++
	return c.current, nil
}

// WaitForFence blocks until the GPU has reached value. It returns at once
// when the value is already reached, without registering an event.
func (c *Context) WaitForFence(value uint64) error {
	if c.fence.CompletedValue() >= value {
		return nil
	}

	logx.Logger().Debug("device: waiting for fence",
		"value", value, "completed", c.fence.CompletedValue())

	ev := gpucore.NewEvent()
	if err := c.fence.SetEventOnCompletion(value, ev); err != nil {
		return fmt.Errorf("device: wait for fence %d: %w", value, err)
	}
	ev.Wait()
	c.stats.Waits++
	return nil
}

// Flush blocks until every command submitted so far has completed. It
// signals a new fence value and waits only if the GPU has not reached it
// yet, so an idle GPU costs one Signal and no event.
func (c *Context) Flush() error {
	if c.closed {
		return ErrClosed
	}
	v, err := c.Signal()
	if err != nil {
		return err
	}
	c.stats.Flushes++
	return c.WaitForFence(v)
}

// ResetCommandList resets the context's allocator and reopens its list.
// The caller must have flushed: the allocator may not be in use.
func (c *Context) ResetCommandList() error {
	if err := c.alloc.Reset(); err != nil {
		return fmt.Errorf("device: reset allocator: %w", err)
	}
	if err := c.list.Reset(c.alloc); err != nil {
		return fmt.Errorf("device: reset command list: %w", err)
	}
	return nil
}

// Execute closes the context's list and submits it.
func (c *Context) Execute() error {
	if err := c.list.Close(); err != nil {
		return fmt.Errorf("device: close command list: %w", err)
	}
	if err := c.queue.ExecuteCommandLists(c.list); err != nil {
		return fmt.Errorf("device: execute: %w", err)
	}
	return nil
}

// Close flushes outstanding work and destroys the device. The factory is
// owned by the caller. Close is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	err := c.Flush()
	c.closed = true
	c.dev.Destroy()
	logx.Logger().Info("device: closed", "fence", c.current)
	return err
}
