// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package transfer

import (
	"context"
	"sync"
)

// Signal reports whether a transfer is in flight and lets callers block until
// it completes.
//
// Each flush arms the signal and receives a sequence number; only Fire with
// that number completes it, so a late Fire from an earlier flush can never
// complete a newer one.
//
// Thread safety: all methods are safe for concurrent use.
type Signal struct {
	mu    sync.Mutex
	seq   uint64
	fired bool
	done  chan struct{} // closed when fired
}

// NewSignal returns a signal in the completed state.
func NewSignal() *Signal {
	done := make(chan struct{})
	close(done)
	return &Signal{fired: true, done: done}
}

// Arm marks a new transfer as in flight and returns its sequence number.
//
// If the previous transfer was not fired yet its waiters are released: Arm is
// only called after the pool accepted a new transfer, which means the previous
// surface was already returned.
func (s *Signal) Arm() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fired {
		close(s.done)
	}
	s.seq++
	s.fired = false
	s.done = make(chan struct{})
	return s.seq
}

// Fire completes the transfer identified by seq. It reports whether the
// signal changed state.
func (s *Signal) Fire(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.fired {
		return false
	}
	s.fired = true
	close(s.done)
	return true
}

// Done reports whether no transfer is in flight. It never blocks.
func (s *Signal) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Wait blocks until the current transfer completes. It returns immediately
// when none is in flight.
func (s *Signal) Wait() {
	<-s.channel()
}

// WaitContext is like Wait but gives up when ctx is done.
func (s *Signal) WaitContext(ctx context.Context) error {
	select {
	case <-s.channel():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Signal) channel() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
