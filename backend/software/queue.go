// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logx"
)

// submission is one queued unit of GPU work. Exactly one of its parts is set.
type submission struct {
	list    *recording
	fence   *Fence
	value   uint64
	present *presentation
	refs    []*Texture
}

// recording is the immutable snapshot of a list taken at execution time.
type recording struct {
	label string
	alloc *CommandAllocator
	cmds  []command
}

type presentation struct {
	chain  *SwapChain
	buffer *Texture
}

// Queue executes submissions on its own goroutine in FIFO order.
type Queue struct {
	dev *Device

	mu       sync.Mutex
	cond     *sync.Cond
	pending  []submission
	paused   bool
	closed   bool
	inFlight map[*Texture]int
	executed uint64

	done chan struct{}
}

func newQueue(dev *Device) *Queue {
	q := &Queue{
		dev:      dev,
		inFlight: make(map[*Texture]int),
		done:     make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// ExecuteCommandLists implements gpucore.CommandQueue.
func (q *Queue) ExecuteCommandLists(lists ...gpucore.CommandList) error {
	subs := make([]submission, 0, len(lists))
	for _, cl := range lists {
		l, ok := cl.(*CommandList)
		if !ok {
			return fmt.Errorf("software: foreign command list %T", cl)
		}
		if l.open {
			return gpucore.ErrListNotClosed
		}
		rec := &recording{label: l.label, alloc: l.alloc, cmds: append([]command(nil), l.cmds...)}
		subs = append(subs, submission{list: rec, refs: textures(rec.cmds)})
	}
	return q.enqueue(subs...)
}

// Signal implements gpucore.CommandQueue.
func (q *Queue) Signal(f gpucore.Fence, value uint64) error {
	sf, ok := f.(*Fence)
	if !ok {
		return fmt.Errorf("software: foreign fence %T", f)
	}
	return q.enqueue(submission{fence: sf, value: value})
}

func (q *Queue) enqueue(subs ...submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return gpucore.ErrDestroyed
	}
	for _, s := range subs {
		for _, t := range s.refs {
			q.inFlight[t]++
		}
		if s.list != nil {
			s.list.alloc.pending.Add(1)
		}
	}
	q.pending = append(q.pending, subs...)
	q.cond.Broadcast()
	return nil
}

// Pause stops the GPU timeline. Submissions keep queueing but nothing
// executes and no fence advances until Resume.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume restarts a paused timeline.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Pending returns the number of submissions not yet executed.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Executed returns the number of submissions executed so far.
func (q *Queue) Executed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executed
}

// InFlight reports whether queued work still references t.
func (q *Queue) InFlight(t *Texture) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight[t] > 0
}

// close drains the queue and stops its goroutine.
func (q *Queue) close() {
	q.mu.Lock()
	q.closed = true
	q.paused = false
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for !q.closed && (q.paused || len(q.pending) == 0) {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		s := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(s)

		q.mu.Lock()
		for _, t := range s.refs {
			if q.inFlight[t]--; q.inFlight[t] <= 0 {
				delete(q.inFlight, t)
			}
		}
		q.executed++
		q.mu.Unlock()
		if s.list != nil {
			s.list.alloc.pending.Add(-1)
		}
	}
}

func (q *Queue) execute(s submission) {
	switch {
	case s.list != nil:
		q.executeList(s.list)
	case s.fence != nil:
		s.fence.complete(s.value)
	case s.present != nil:
		s.present.chain.display(s.present.buffer)
	}
}

// bindState is the pipeline state while one list executes.
type bindState struct {
	rt, ds    *Texture
	pipeline  gpucore.Pipeline
	constants map[int]command
	resources map[int]command
}

func (q *Queue) executeList(rec *recording) {
	st := bindState{constants: map[int]command{}, resources: map[int]command{}}
	for _, c := range rec.cmds {
		switch c.kind {
		case cmdBarrier:
			for _, b := range c.barriers {
				q.transition(rec, b)
			}
		case cmdSetRenderTargets:
			if c.rt == nil {
				q.dev.validationf("list %q: render target view points to no texture", rec.label)
			}
			st.rt, st.ds = c.rt, c.ds
		case cmdClearRenderTarget:
			q.clearRenderTarget(rec, c)
		case cmdClearDepthStencil:
			q.clearDepthStencil(rec, c)
		case cmdViewport, cmdScissor:
		case cmdPipeline:
			st.pipeline = c.pipeline
		case cmdConstantBuffer:
			st.constants[c.slot] = c
		case cmdShaderResource:
			st.resources[c.slot] = c
		case cmdDraw:
			q.draw(rec, &st, c)
		}
	}
	logx.Logger().Debug("software: executed command list", "list", rec.label, "commands", len(rec.cmds))
}

func (q *Queue) transition(rec *recording, b gpucore.Barrier) {
	t, ok := b.Texture.(*Texture)
	if !ok {
		q.dev.validationf("list %q: barrier on foreign texture %T", rec.label, b.Texture)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		q.dev.validationf("list %q: barrier on destroyed texture %q", rec.label, t.label)
		return
	}
	if t.state != b.Before {
		q.dev.validationf("list %q: texture %q is %s, barrier expects %s", rec.label, t.label, t.state, b.Before)
	}
	t.state = b.After
}

func (q *Queue) clearRenderTarget(rec *recording, c command) {
	t := c.rt
	if t == nil {
		q.dev.validationf("list %q: clear of an empty render target view", rec.label)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !q.writable(rec, t, gpucore.StateRenderTarget) || t.pix == nil {
		return
	}
	px := [4]uint8{unorm(c.color[0]), unorm(c.color[1]), unorm(c.color[2]), unorm(c.color[3])}
	for i := 0; i < len(t.pix.Pix); i += 4 {
		copy(t.pix.Pix[i:i+4], px[:])
	}
}

func (q *Queue) clearDepthStencil(rec *recording, c command) {
	t := c.ds
	if t == nil {
		q.dev.validationf("list %q: clear of an empty depth stencil view", rec.label)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !q.writable(rec, t, gpucore.StateDepthWrite) {
		return
	}
	t.depth, t.stencil = c.depth, c.stencil
}

// writable validates t for writing in the given state. t.mu must be held.
func (q *Queue) writable(rec *recording, t *Texture, want gpucore.ResourceState) bool {
	if t.destroyed {
		q.dev.validationf("list %q: write to destroyed texture %q", rec.label, t.label)
		return false
	}
	if t.state != want {
		q.dev.validationf("list %q: write to texture %q in state %s, want %s", rec.label, t.label, t.state, want)
		return false
	}
	return true
}

func (q *Queue) draw(rec *recording, st *bindState, c command) {
	if st.rt == nil {
		q.dev.validationf("list %q: draw without a render target", rec.label)
		return
	}
	st.rt.mu.Lock()
	ok := q.writable(rec, st.rt, gpucore.StateRenderTarget)
	st.rt.mu.Unlock()
	if !ok {
		return
	}

	r := DrawRecord{
		List:          rec.label,
		Target:        st.rt.label,
		VertexCount:   c.draw[0],
		InstanceCount: c.draw[1],
		StartVertex:   c.draw[2],
		StartInstance: c.draw[3],
		Constants:     q.readBindings(rec, st.constants),
		Resources:     q.readBindings(rec, st.resources),
	}
	if st.pipeline != nil {
		r.Pipeline = st.pipeline.Label()
	}
	q.dev.recordDraw(r)
}

func (q *Queue) readBindings(rec *recording, bindings map[int]command) map[int][]byte {
	out := make(map[int][]byte, len(bindings))
	for slot, b := range bindings {
		if b.buf.Destroyed() {
			q.dev.validationf("list %q: slot %d reads destroyed buffer %q", rec.label, slot, b.buf.label)
			continue
		}
		data, ok := b.buf.read(b.offset, b.size)
		if !ok {
			q.dev.validationf("list %q: slot %d reads past the end of buffer %q", rec.label, slot, b.buf.label)
			continue
		}
		out[slot] = data
	}
	return out
}

func unorm(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
