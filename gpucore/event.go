// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "sync"

// Event is a one-shot completion event. A waiter blocks until some other
// party, usually a fence reaching a value, signals it.
//
// Event is safe for concurrent use.
type Event struct {
	once sync.Once
	done chan struct{}
}

// NewEvent creates an unsignaled event.
func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Signal marks the event as signaled, releasing every waiter.
// Subsequent calls are no-ops.
func (e *Event) Signal() {
	e.once.Do(func() { close(e.done) })
}

// Wait blocks until the event is signaled. There is no timeout: a GPU that
// never reaches the awaited value is a hung device, which nothing recovers.
func (e *Event) Wait() {
	<-e.done
}

// Done returns a channel closed when the event is signaled.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Signaled reports whether the event has been signaled.
func (e *Event) Signaled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}
