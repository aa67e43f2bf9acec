// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sink defines the transport endpoint that receives pixels from the
// transfer worker.
//
// A Sink is the physical display link: it accepts a target window followed by
// pixels in row-major raster order. Implementations live in sub-packages:
//
//   - sink/st7735: ST7735-class panels on a periph.io SPI port
//   - sink/capture: in-memory recorder for tests and offline rendering
package sink

// Sink is an ordered, synchronous pixel-consuming endpoint.
//
// Both methods are called from the transfer worker goroutine only and must
// not retain p after returning.
type Sink interface {
	// SetWindow selects the inclusive pixel rectangle [x0, x1] x [y0, y1]
	// that subsequent SendPixels calls fill in raster order.
	SetWindow(x0, y0, x1, y1 int) error

	// SendPixels transmits RGB565 pixels in big-endian (wire) byte order.
	// len(p) is always even.
	SendPixels(p []byte) error
}
