package tft

import (
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/gogpu/tft/internal/transfer"
)

// DefaultStagingSize is the size in bytes of each staging buffer when neither
// WithStagingSize nor WithBandHeight is given. For a 128 pixel wide panel it
// yields 32-row bands.
const DefaultStagingSize = 8192

// Option configures a Pipeline during creation.
//
// Example:
//
//	p, err := tft.New(128, 160, dev,
//	    tft.WithBandHeight(16),
//	    tft.WithLogger(slog.Default()))
type Option func(*options)

// options holds optional configuration for Pipeline creation.
type options struct {
	bandHeight    int
	stagingSize   int
	queueDepth    int
	logger        *slog.Logger
	dirtyTracking bool
	carryForward  bool
	face          font.Face
}

// defaultOptions returns the default pipeline options.
func defaultOptions() options {
	return options{
		stagingSize:   DefaultStagingSize,
		queueDepth:    transfer.DefaultQueueDepth,
		dirtyTracking: true,
		carryForward:  true,
		face:          basicfont.Face7x13,
	}
}

// WithBandHeight sets the number of rows per band directly. It takes
// precedence over WithStagingSize. Values larger than the frame height are
// clamped to it.
func WithBandHeight(rows int) Option {
	return func(o *options) {
		o.bandHeight = rows
	}
}

// WithStagingSize sets the size in bytes of each of the two staging buffers.
// The band height is the number of whole rows that fit.
func WithStagingSize(bytes int) Option {
	return func(o *options) {
		o.stagingSize = bytes
	}
}

// WithQueueDepth sets the capacity of the chunk queue.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		o.queueDepth = n
	}
}

// WithLogger sets the logger for this pipeline and its transfer worker.
// Without it the package logger (see SetLogger) is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDirtyTracking sets whether dirty tracking starts enabled.
// Tracking is on by default.
func WithDirtyTracking(enabled bool) Option {
	return func(o *options) {
		o.dirtyTracking = enabled
	}
}

// WithCarryForward sets whether Flush and SwapBuffers copy the submitted
// frame into the newly active surface. On by default.
//
// With carry-forward off, the new surface keeps whatever it held when it was
// last active, and drawing code must repaint everything it relies on.
func WithCarryForward(enabled bool) Option {
	return func(o *options) {
		o.carryForward = enabled
	}
}

// WithFace sets the font face used by DrawText and MeasureText.
// The default is basicfont.Face7x13.
func WithFace(f font.Face) Option {
	return func(o *options) {
		if f != nil {
			o.face = f
		}
	}
}
