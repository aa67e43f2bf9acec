// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package damage accumulates the bounding rectangle of pixels changed since
// the last completed transfer.
//
// The tracker keeps a single loose bounding box rather than a list of
// rectangles: every Expand is O(1) and the result may over-cover the changed
// pixels but never under-covers them.
package damage

import (
	"fmt"
	"sync"
)

// Rect is a rectangle in frame coordinates.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.X+r.W, o.X+o.W)
	y1 := max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Clip returns r clipped to a width x height frame.
func (r Rect) Clip(width, height int) Rect {
	x0 := max(r.X, 0)
	y0 := max(r.Y, 0)
	x1 := min(r.X+r.W, width)
	y1 := min(r.Y+r.H, height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d) %dx%d", r.X, r.Y, r.W, r.H)
}

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	// Rect is the accumulated region. Meaningful only when Valid.
	Rect Rect

	// Valid reports whether any region has been recorded.
	Valid bool

	// Full reports a pending full-frame override.
	Full bool

	// Enabled reports whether tracking is on.
	Enabled bool

	// Gen identifies the tracker contents this snapshot was taken from.
	Gen uint64
}

// Tracker accumulates a dirty rectangle for a fixed-size frame.
//
// Thread safety: all methods are safe for concurrent use. The renderer
// expands the region while the transfer worker settles it.
type Tracker struct {
	width  int
	height int

	mu      sync.Mutex
	rect    Rect
	valid   bool
	full    bool
	enabled bool
	gen     uint64
}

// NewTracker creates an enabled tracker with no recorded region.
func NewTracker(width, height int) *Tracker {
	return &Tracker{
		width:   width,
		height:  height,
		enabled: true,
	}
}

// Expand grows the region to include the given rectangle, clipped to the
// frame. Empty rectangles and calls while tracking is disabled are ignored.
func (t *Tracker) Expand(x, y, w, h int) {
	r := Rect{X: x, Y: y, W: w, H: h}.Clip(t.width, t.height)
	if r.Empty() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}
	if t.valid {
		t.rect = t.rect.Union(r)
	} else {
		t.rect = r
		t.valid = true
	}
	t.gen++
}

// Clear invalidates the region. A pending full-frame override is kept.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rect = Rect{}
	t.valid = false
	t.gen++
}

// ForceFull invalidates the region and requests that the next flush send the
// whole frame regardless of what was recorded.
func (t *Tracker) ForceFull() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rect = Rect{}
	t.valid = false
	t.full = true
	t.gen++
}

// SetEnabled turns tracking on or off. Enabling starts from an empty region.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if enabled {
		t.rect = Rect{}
		t.valid = false
	}
	t.gen++
}

// Enabled reports whether tracking is on.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Region returns the current region and whether it is valid.
func (t *Tracker) Region() (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rect, t.valid
}

// Snapshot returns a consistent copy of the tracker state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Rect:    t.rect,
		Valid:   t.valid,
		Full:    t.full,
		Enabled: t.enabled,
		Gen:     t.gen,
	}
}

// Settle clears the region and the full-frame override after the content
// captured by the snapshot with generation gen has been transferred.
//
// If the tracker changed after that snapshot, the newer changes have not been
// sent yet and the region is kept as is. It may then over-cover, never
// under-cover. Settle reports whether it cleared anything.
func (t *Tracker) Settle(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gen != gen {
		return false
	}
	t.rect = Rect{}
	t.valid = false
	t.full = false
	return true
}
