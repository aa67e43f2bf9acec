// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package band divides a frame into fixed-height horizontal bands sized to
// the transfer staging buffer.
//
// Bands are half-open row ranges [Y0, Y1) that tile the frame with no gap or
// overlap. The last band uses its true height, which may be shorter than the
// nominal band height when the frame is not evenly divisible.
//
// Everything in this package is a pure function of its inputs.
package band

import "github.com/gogpu/tft/internal/damage"

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Height returns the number of rows in the band.
func (b Band) Height() int {
	return b.Y1 - b.Y0
}

// Empty reports whether the band covers no rows.
func (b Band) Empty() bool {
	return b.Y1 <= b.Y0
}

// Layout describes how a frame of a given height is cut into bands.
type Layout struct {
	frameHeight int
	bandHeight  int
	count       int
}

// NewLayout returns the band layout for a frame. Both heights must be
// positive; bandHeight larger than the frame yields a single band.
func NewLayout(frameHeight, bandHeight int) Layout {
	if frameHeight <= 0 || bandHeight <= 0 {
		return Layout{}
	}
	return Layout{
		frameHeight: frameHeight,
		bandHeight:  bandHeight,
		count:       (frameHeight + bandHeight - 1) / bandHeight, // Ceiling division
	}
}

// Count returns the total number of bands.
func (l Layout) Count() int {
	return l.count
}

// BandHeight returns the nominal band height.
func (l Layout) BandHeight() int {
	return l.bandHeight
}

// FrameHeight returns the frame height.
func (l Layout) FrameHeight() int {
	return l.frameHeight
}

// Band returns the rows of band i. Out-of-range indices yield an empty band.
func (l Layout) Band(i int) Band {
	if i < 0 || i >= l.count {
		return Band{}
	}
	y0 := i * l.bandHeight
	y1 := min(y0+l.bandHeight, l.frameHeight)
	return Band{Y0: y0, Y1: y1}
}

// Full returns the range covering every band.
func (l Layout) Full() (start, end int) {
	return 0, l.count - 1
}

// RangeFor returns the inclusive band range touched by region. When ok is
// false (no region is tracked) the full range is returned.
//
// The region must have positive height; callers route empty regions to the
// full-frame path before chunking.
func (l Layout) RangeFor(region damage.Rect, ok bool) (start, end int) {
	if !ok {
		return l.Full()
	}

	start = l.clamp(region.Y / l.bandHeight)
	end = l.clamp((region.Y + region.H - 1) / l.bandHeight)
	return start, end
}

// Intersect returns the rows of band i covered by region. An empty result
// means the band must not be sent.
func (l Layout) Intersect(i int, region damage.Rect) Band {
	b := l.Band(i)
	y0 := max(b.Y0, region.Y)
	y1 := min(b.Y1, region.Y+region.H)
	if y1 <= y0 {
		return Band{}
	}
	return Band{Y0: y0, Y1: y1}
}

func (l Layout) clamp(i int) int {
	return max(0, min(i, l.count-1))
}
