// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framebuf provides RGB565 frame surfaces and the triple-buffer pool
// that hands them out to the renderer and the transfer worker.
//
// Surfaces store pixels as 16-bit RGB565 in little-endian (native) byte order.
// Panels expect big-endian pixels on the wire; [SwapBytes] converts a span in
// place and is its own inverse.
package framebuf

import "image/color"

// BytesPerPixel is the storage size of one RGB565 pixel.
const BytesPerPixel = 2

// RGB565 is a 16-bit color with 5 bits red, 6 bits green and 5 bits blue.
type RGB565 uint16

// Named colors.
const (
	Black   RGB565 = 0x0000
	White   RGB565 = 0xFFFF
	Red     RGB565 = 0xF800
	Green   RGB565 = 0x07E0
	Blue    RGB565 = 0x001F
	Yellow  RGB565 = 0xFFE0
	Magenta RGB565 = 0xF81F
	Cyan    RGB565 = 0x07FF
)

// Color565 packs 8-bit channels into an RGB565 value.
func Color565(r, g, b uint8) RGB565 {
	return RGB565(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b)>>3)
}

// RGBA implements color.Color.
//
// Channels are expanded by bit replication so that White maps to 0xFFFF.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F

	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2

	return r8 | r8<<8, g8 | g8<<8, b8 | b8<<8, 0xFFFF
}

// RGB8 returns the color expanded to 8-bit channels.
func (c RGB565) RGB8() (r, g, b uint8) {
	r16, g16, b16, _ := c.RGBA()
	return uint8(r16 >> 8), uint8(g16 >> 8), uint8(b16 >> 8)
}

// RGB565Model converts any color to RGB565.
// Alpha is ignored after premultiplication, which is what an opaque panel shows.
var RGB565Model = color.ModelFunc(rgb565Model)

func rgb565Model(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	return ToRGB565(c)
}

// ToRGB565 converts an arbitrary color to RGB565.
func ToRGB565(c color.Color) RGB565 {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return Color565(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// SwapBytes exchanges the two bytes of every pixel in p, converting between
// native and wire byte order. A trailing odd byte is left untouched.
func SwapBytes(p []byte) {
	n := len(p) &^ 1
	for i := 0; i < n; i += 2 {
		p[i], p[i+1] = p[i+1], p[i]
	}
}

// RowBytes returns the number of bytes in a row of the given width.
func RowBytes(width int) int {
	return width * BytesPerPixel
}

// FrameBytes returns the number of bytes in a width x height frame.
func FrameBytes(width, height int) int {
	return RowBytes(width) * height
}
