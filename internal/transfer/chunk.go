// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package transfer drains flush requests to a sink on a single background
// goroutine.
//
// A flush is a sequence of Chunk messages, one per band. The pipeline enqueues
// the first one; the worker copies that band out of the source surface into a
// staging buffer, transmits it, and enqueues the next band itself until the
// flush's band range is exhausted. Only one flush is ever in flight, so the
// self-enqueued chunks cannot interleave with another flush.
package transfer

import (
	"errors"
	"fmt"

	"github.com/gogpu/tft/internal/damage"
)

// Errors reported when a transfer cannot be set up.
var (
	// ErrStagingSize is returned when the staging buffer size is not positive.
	ErrStagingSize = errors.New("transfer: invalid staging buffer size")

	// ErrNilCollaborator is returned when a required dependency is missing.
	ErrNilCollaborator = errors.New("transfer: missing collaborator")
)

// Chunk is the message describing one band of a flush.
type Chunk struct {
	// Index is the band index.
	Index int

	// Last marks the final band of the flush.
	Last bool

	// Source is the pool id of the surface being transferred.
	Source int

	// Dirty selects dirty-region mode; otherwise whole bands are sent.
	Dirty bool

	// Region is the dirty region snapshot. Meaningful only when Dirty.
	Region damage.Rect

	// Gen is the dirty tracker generation the region was taken from.
	Gen uint64

	// Seq identifies the flush for the completion signal.
	Seq uint64
}

func (c Chunk) String() string {
	mode := "full"
	if c.Dirty {
		mode = "dirty " + c.Region.String()
	}
	return fmt.Sprintf("chunk %d of flush %d (surface %d, %s, last=%v)", c.Index, c.Seq, c.Source, mode, c.Last)
}

// Staging is a pair of fixed-size buffers used alternately for consecutive
// bands, bounding extra memory to two bands' worth of pixels.
type Staging struct {
	bufs [2][]byte
}

// NewStaging allocates two buffers of size bytes each.
func NewStaging(size int) (*Staging, error) {
	if size <= 0 {
		return nil, ErrStagingSize
	}
	return &Staging{bufs: [2][]byte{make([]byte, size), make([]byte, size)}}, nil
}

// For returns the buffer assigned to band index by parity.
func (s *Staging) For(index int) []byte {
	return s.bufs[index&1]
}

// Size returns the capacity of each buffer in bytes.
func (s *Staging) Size() int {
	return len(s.bufs[0])
}
