// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package st7735 is a sink for Sitronix ST7735 TFT controllers on a
// periph.io SPI port.
//
// The controller is driven in 4-wire mode: a D/C pin selects between command
// bytes (low) and parameter or pixel bytes (high). Pixels are 16-bit RGB565
// (COLMOD 0x05) sent most significant byte first, which is exactly the byte
// order the sink.Sink contract delivers.
package st7735

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Controller commands.
const (
	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
)

// colorMode16 selects 16 bits per pixel.
const colorMode16 = 0x05

// defaultMaxTxSize bounds a single SPI transaction when the port reports no
// limit.
const defaultMaxTxSize = 4096

// Errors returned by Dev.
var (
	// ErrWindow is returned when a window lies outside the panel.
	ErrWindow = errors.New("st7735: window out of bounds")

	// ErrOddLength is returned when pixel data is not a whole number of pixels.
	ErrOddLength = errors.New("st7735: odd pixel byte count")

	// ErrNoDC is returned when no D/C pin is given.
	ErrNoDC = errors.New("st7735: D/C pin is required")
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Opts configures the panel.
type Opts struct {
	// W and H are the panel size in pixels.
	W int
	H int

	// OffsetX and OffsetY shift every window, for glass smaller than the
	// controller RAM.
	OffsetX int
	OffsetY int

	// Freq is the SPI clock.
	Freq physic.Frequency

	// MADCTL is the memory access control byte written at init.
	MADCTL byte

	// Invert turns on display inversion, needed by some panel variants.
	Invert bool

	// MaxTxSize caps bytes per SPI transaction. Zero uses the port's limit,
	// or 4096 bytes if it reports none.
	MaxTxSize int

	// Backlight, if set, is driven high at init and low on Halt.
	Backlight gpio.PinOut
}

// DefaultOpts is the configuration for the common 128x160 module.
var DefaultOpts = Opts{
	W:    128,
	H:    160,
	Freq: 15 * physic.MegaHertz,
}

// Dev is an ST7735 panel. It implements sink.Sink.
type Dev struct {
	c     conn.Conn
	dc    gpio.PinOut
	rst   gpio.PinOut
	opts  Opts
	maxTx int

	mu  sync.Mutex
	cmd [1]byte
}

// NewSPI connects to the panel on p, resets it and runs the init sequence.
//
// rst may be nil if the reset line is not wired; the software reset is
// always issued. opts may be nil to use DefaultOpts.
func NewSPI(p spi.Port, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, ErrNoDC
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.W <= 0 || o.H <= 0 {
		return nil, fmt.Errorf("st7735: invalid size %dx%d", o.W, o.H)
	}
	if o.Freq == 0 {
		o.Freq = DefaultOpts.Freq
	}

	c, err := p.Connect(o.Freq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: connect: %w", err)
	}

	maxTx := o.MaxTxSize
	if maxTx <= 0 {
		if l, ok := c.(conn.Limits); ok {
			maxTx = l.MaxTxSize()
		}
	}
	if maxTx <= 0 {
		maxTx = defaultMaxTxSize
	}

	d := &Dev{c: c, dc: dc, rst: rst, opts: o, maxTx: maxTx}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7735.Dev{%s, %dx%d}", d.c, d.opts.W, d.opts.H)
}

// Bounds returns the panel rectangle.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.W, d.opts.H)
}

// Halt turns the display and its backlight off.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.command(cmdDISPOFF); err != nil {
		return err
	}
	if d.opts.Backlight != nil {
		return d.opts.Backlight.Out(gpio.Low)
	}
	return nil
}

// Invert turns display inversion on or off.
func (d *Dev) Invert(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if on {
		return d.command(cmdINVON)
	}
	return d.command(cmdINVOFF)
}

// SetWindow implements sink.Sink. It sets the column and row address range
// (inclusive) and starts a memory write.
func (d *Dev) SetWindow(x0, y0, x1, y1 int) error {
	if x0 < 0 || y0 < 0 || x1 < x0 || y1 < y0 || x1 >= d.opts.W || y1 >= d.opts.H {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrWindow, x0, y0, x1, y1)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	x0, x1 = x0+d.opts.OffsetX, x1+d.opts.OffsetX
	y0, y1 = y0+d.opts.OffsetY, y1+d.opts.OffsetY

	if err := d.command(cmdCASET, span(x0, x1)...); err != nil {
		return err
	}
	if err := d.command(cmdRASET, span(y0, y1)...); err != nil {
		return err
	}
	return d.command(cmdRAMWR)
}

// SendPixels implements sink.Sink. p holds big-endian RGB565 pixels for the
// current window. Large buffers are split to respect the port's limit.
func (d *Dev) SendPixels(p []byte) error {
	if len(p)%2 != 0 {
		return ErrOddLength
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data(p)
}

func (d *Dev) init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rst != nil && d.rst != gpio.INVALID {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("st7735: reset: %w", err)
		}
		sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("st7735: reset: %w", err)
		}
		sleep(120 * time.Millisecond)
	}

	steps := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmd: cmdSWRESET, delay: 150 * time.Millisecond},
		{cmd: cmdSLPOUT, delay: 500 * time.Millisecond},
		{cmd: cmdCOLMOD, data: []byte{colorMode16}},
		{cmd: cmdMADCTL, data: []byte{d.opts.MADCTL}},
		{cmd: cmdCASET, data: span(d.opts.OffsetX, d.opts.OffsetX+d.opts.W-1)},
		{cmd: cmdRASET, data: span(d.opts.OffsetY, d.opts.OffsetY+d.opts.H-1)},
		{cmd: d.inversion()},
		{cmd: cmdNORON, delay: 10 * time.Millisecond},
		{cmd: cmdDISPON, delay: 100 * time.Millisecond},
	}
	for _, s := range steps {
		if err := d.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("st7735: init command %#02x: %w", s.cmd, err)
		}
		if s.delay > 0 {
			sleep(s.delay)
		}
	}

	if d.opts.Backlight != nil {
		if err := d.opts.Backlight.Out(gpio.High); err != nil {
			return fmt.Errorf("st7735: backlight: %w", err)
		}
	}
	return nil
}

func (d *Dev) inversion() byte {
	if d.opts.Invert {
		return cmdINVON
	}
	return cmdINVOFF
}

// span encodes an inclusive address range as two big-endian 16-bit values.
func span(a, b int) []byte {
	return []byte{byte(a >> 8), byte(a), byte(b >> 8), byte(b)}
}

// command sends cmd with D/C low, then its parameters if any. Caller holds d.mu.
func (d *Dev) command(cmd byte, params ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	d.cmd[0] = cmd
	if err := d.c.Tx(d.cmd[:], nil); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	return d.data(params)
}

// data sends p with D/C high in transactions of at most maxTx bytes.
// Caller holds d.mu.
func (d *Dev) data(p []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(p) > 0 {
		n := min(len(p), d.maxTx)
		if err := d.c.Tx(p[:n], nil); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
