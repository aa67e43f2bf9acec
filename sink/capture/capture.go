// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package capture provides an in-memory sink that reassembles the pixels it
// receives into a frame, the way a panel's controller RAM would.
//
// It is used by tests to observe exactly what crossed the link and by the
// demo command to render offline to a BMP file.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"golang.org/x/image/bmp"

	"github.com/gogpu/tft/internal/framebuf"
)

// Errors returned by Recorder.
var (
	// ErrWindow is returned when a window lies outside the panel.
	ErrWindow = errors.New("capture: window out of bounds")

	// ErrOverflow is returned when more pixels are sent than the window holds.
	ErrOverflow = errors.New("capture: pixels overflow window")

	// ErrOddLength is returned when a send is not a whole number of pixels.
	ErrOddLength = errors.New("capture: odd byte count")
)

// Send records one SendPixels call.
type Send struct {
	// Window is the active window (exclusive max) when the call was made.
	Window image.Rectangle

	// Offset is the pixel offset within the window where the call started.
	Offset int

	// Pixels is the number of pixels in the call.
	Pixels int
}

// Recorder is a sink backed by an in-memory RGB565 frame.
//
// Thread safety: all methods are safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	width  int
	height int
	frame  []framebuf.RGB565

	window  image.Rectangle
	cursor  int
	windows []image.Rectangle
	sends   []Send

	calls   int
	failAt  int
	failErr error
}

// New creates a recorder for a width x height panel, initially black.
func New(width, height int) *Recorder {
	return &Recorder{
		width:  width,
		height: height,
		frame:  make([]framebuf.RGB565, width*height),
	}
}

// FailOn makes the n-th SendPixels call (1-based, counted from now on)
// return err. n <= 0 disables failure injection.
func (r *Recorder) FailOn(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = 0
	r.failAt = n
	r.failErr = err
}

// SetWindow implements sink.Sink.
func (r *Recorder) SetWindow(x0, y0, x1, y1 int) error {
	win := image.Rect(x0, y0, x1+1, y1+1)
	if x1 < x0 || y1 < y0 || !win.In(image.Rect(0, 0, r.width, r.height)) {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrWindow, x0, y0, x1, y1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.window = win
	r.cursor = 0
	r.windows = append(r.windows, win)
	return nil
}

// SendPixels implements sink.Sink. p holds big-endian RGB565 pixels.
func (r *Recorder) SendPixels(p []byte) error {
	if len(p)%framebuf.BytesPerPixel != 0 {
		return ErrOddLength
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.failAt > 0 && r.calls == r.failAt {
		return r.failErr
	}

	n := len(p) / framebuf.BytesPerPixel
	w := r.window.Dx()
	if w == 0 || r.cursor+n > w*r.window.Dy() {
		return ErrOverflow
	}

	r.sends = append(r.sends, Send{Window: r.window, Offset: r.cursor, Pixels: n})
	for i := 0; i < n; i++ {
		x := r.window.Min.X + r.cursor%w
		y := r.window.Min.Y + r.cursor/w
		r.frame[y*r.width+x] = framebuf.RGB565(binary.BigEndian.Uint16(p[i*2:]))
		r.cursor++
	}
	return nil
}

// Pixel returns the received color at (x, y).
func (r *Recorder) Pixel(x, y int) framebuf.RGB565 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return framebuf.Black
	}
	return r.frame[y*r.width+x]
}

// Windows returns every window set so far.
func (r *Recorder) Windows() []image.Rectangle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]image.Rectangle(nil), r.windows...)
}

// Sends returns every successful SendPixels call so far.
func (r *Recorder) Sends() []Send {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Send(nil), r.sends...)
}

// PixelsReceived returns the total number of pixels received.
func (r *Recorder) PixelsReceived() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, s := range r.sends {
		total += s.Pixels
	}
	return total
}

// Reset forgets recorded windows and sends. The frame contents are kept, like
// a panel keeps its RAM between updates.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = nil
	r.sends = nil
	r.window = image.Rectangle{}
	r.cursor = 0
}

// Image returns a copy of the received frame.
func (r *Recorder) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			cr, cg, cb := r.frame[y*r.width+x].RGB8()
			i := img.PixOffset(x, y)
			img.Pix[i+0] = cr
			img.Pix[i+1] = cg
			img.Pix[i+2] = cb
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

// WriteBMP encodes the received frame as a BMP image.
func (r *Recorder) WriteBMP(w io.Writer) error {
	return bmp.Encode(w, r.Image())
}
