// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framebuf

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
)

// ErrInvalidDimensions is returned when width or height is non-positive.
var ErrInvalidDimensions = errors.New("framebuf: invalid dimensions")

// Surface is a full-frame RGB565 pixel buffer.
//
// Surface implements draw.Image so that image/draw and golang.org/x/image/draw
// can render into it directly.
//
// Surface is not safe for concurrent mutation. Ownership is handed between
// the renderer and the transfer worker by [Pool].
type Surface struct {
	id     int
	width  int
	height int
	data   []byte // RGB565, little-endian, row-major
}

// NewSurface creates a cleared (black) surface.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Surface{
		width:  width,
		height: height,
		data:   make([]byte, FrameBytes(width, height)),
	}, nil
}

// ID returns the surface's slot in its pool.
func (s *Surface) ID() int {
	return s.id
}

// Width returns the width of the surface.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the height of the surface.
func (s *Surface) Height() int {
	return s.height
}

// Stride returns the number of bytes per row.
func (s *Surface) Stride() int {
	return RowBytes(s.width)
}

// Data returns the raw pixel bytes.
func (s *Surface) Data() []byte {
	return s.data
}

// Rows returns the bytes of rows [y0, y1). The range is clamped to the surface.
func (s *Surface) Rows(y0, y1 int) []byte {
	y0 = max(y0, 0)
	y1 = min(y1, s.height)
	if y0 >= y1 {
		return nil
	}
	stride := s.Stride()
	return s.data[y0*stride : y1*stride]
}

// Pixel returns the color at (x, y), or Black outside the surface.
func (s *Surface) Pixel(x, y int) RGB565 {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Black
	}
	i := (y*s.width + x) * BytesPerPixel
	return RGB565(binary.LittleEndian.Uint16(s.data[i:]))
}

// SetPixel sets the color at (x, y). Out-of-bounds writes are ignored.
func (s *Surface) SetPixel(x, y int, c RGB565) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	i := (y*s.width + x) * BytesPerPixel
	binary.LittleEndian.PutUint16(s.data[i:], uint16(c))
}

// Fill fills r (clipped to the surface) with c and returns the clipped
// rectangle that was written.
func (s *Surface) Fill(r image.Rectangle, c RGB565) image.Rectangle {
	r = r.Intersect(s.Bounds())
	if r.Empty() {
		return image.Rectangle{}
	}

	stride := s.Stride()
	lo, hi := byte(c), byte(c>>8)

	// Fill the first row, then replicate it.
	first := s.data[r.Min.Y*stride+r.Min.X*BytesPerPixel : r.Min.Y*stride+r.Max.X*BytesPerPixel]
	for i := 0; i < len(first); i += BytesPerPixel {
		first[i] = lo
		first[i+1] = hi
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		off := y*stride + r.Min.X*BytesPerPixel
		copy(s.data[off:off+len(first)], first)
	}
	return r
}

// Clear fills the entire surface with c.
func (s *Surface) Clear(c RGB565) {
	s.Fill(s.Bounds(), c)
}

// CopyFrom overwrites the contents of s with src. Both must be the same size.
func (s *Surface) CopyFrom(src *Surface) {
	copy(s.data, src.data)
}

// At implements the image.Image interface.
func (s *Surface) At(x, y int) color.Color {
	return s.Pixel(x, y)
}

// Set implements the draw.Image interface.
func (s *Surface) Set(x, y int, c color.Color) {
	s.SetPixel(x, y, ToRGB565(c))
}

// Bounds implements the image.Image interface.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// ColorModel implements the image.Image interface.
func (s *Surface) ColorModel() color.Model {
	return RGB565Model
}

// ToImage converts the surface to an image.RGBA.
func (s *Surface) ToImage() *image.RGBA {
	img := image.NewRGBA(s.Bounds())
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			r, g, b := s.Pixel(x, y).RGB8()
			i := img.PixOffset(x, y)
			img.Pix[i+0] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}
