// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framebuf

import (
	"sync"
	"sync/atomic"
)

// PoolSize is the number of surfaces in a Pool.
const PoolSize = 3

// State is the role a surface currently plays.
type State uint8

const (
	// StateRendering marks the surface drawing calls write into.
	StateRendering State = iota

	// StateTransferring marks the surface the transfer worker reads from.
	StateTransferring

	// StateIdle marks a surface available for the next rotation.
	StateIdle
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateRendering:
		return "Rendering"
	case StateTransferring:
		return "Transferring"
	case StateIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Pool owns three interchangeable surfaces and their role state machine.
//
// At every instant exactly one surface is Rendering, at most one is
// Transferring and the rest are Idle. The renderer only writes the Rendering
// surface and the transfer worker only reads the Transferring one, so pixel
// data is never locked: only the small state table is.
//
// Thread safety: all methods are safe for concurrent use.
type Pool struct {
	surfaces [PoolSize]*Surface

	mu       sync.Mutex
	states   [PoolSize]State
	render   int
	transfer int // -1 when no transfer is held

	active atomic.Pointer[Surface]
}

// NewPool allocates three cleared surfaces. Surface 0 starts Rendering.
func NewPool(width, height int) (*Pool, error) {
	p := &Pool{transfer: -1}
	for i := range p.surfaces {
		s, err := NewSurface(width, height)
		if err != nil {
			return nil, err
		}
		s.id = i
		p.surfaces[i] = s
		p.states[i] = StateIdle
	}
	p.states[0] = StateRendering
	p.active.Store(p.surfaces[0])
	return p, nil
}

// Active returns the Rendering surface. It has no side effects and does not
// take the state lock.
func (p *Pool) Active() *Surface {
	return p.active.Load()
}

// Surface resolves a surface by id. Returns nil for unknown ids.
func (p *Pool) Surface(id int) *Surface {
	if id < 0 || id >= PoolSize {
		return nil
	}
	return p.surfaces[id]
}

// BeginTransfer hands the Rendering surface to the transfer worker and
// promotes an Idle surface to Rendering.
//
// It never blocks: if a transfer is already held or no Idle surface exists,
// it returns ok=false and nothing changes.
func (p *Pool) BeginTransfer() (src int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.transfer >= 0 {
		return -1, false
	}
	next := p.firstIdle()
	if next < 0 {
		return -1, false
	}

	src = p.render
	p.states[src] = StateTransferring
	p.transfer = src

	p.states[next] = StateRendering
	p.render = next
	p.active.Store(p.surfaces[next])

	return src, true
}

// Rotate moves rendering to the next Idle surface without starting a
// transfer. The previous Rendering surface becomes Idle.
func (p *Pool) Rotate() (from, to int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.firstIdle()
	if next < 0 {
		return p.render, p.render, false
	}

	from = p.render
	p.states[next] = StateRendering
	p.states[from] = StateIdle
	p.render = next
	p.active.Store(p.surfaces[next])

	return from, next, true
}

// Release returns the Transferring surface id to Idle.
// Releasing a surface that is not Transferring is a no-op.
func (p *Pool) Release(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id < 0 || id >= PoolSize || p.states[id] != StateTransferring {
		return
	}
	p.states[id] = StateIdle
	if p.transfer == id {
		p.transfer = -1
	}
}

// Transferring reports whether a surface is currently held by the worker.
func (p *Pool) Transferring() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transfer >= 0
}

// States returns a copy of the state table.
func (p *Pool) States() [PoolSize]State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states
}

// Counts returns how many surfaces are in each state.
func (p *Pool) Counts() (rendering, transferring, idle int) {
	for _, s := range p.States() {
		switch s {
		case StateRendering:
			rendering++
		case StateTransferring:
			transferring++
		case StateIdle:
			idle++
		}
	}
	return rendering, transferring, idle
}

// firstIdle returns the lowest Idle index, or -1. Caller holds p.mu.
func (p *Pool) firstIdle() int {
	for i, s := range p.states {
		if s == StateIdle {
			return i
		}
	}
	return -1
}
