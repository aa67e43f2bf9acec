package tft

import "errors"

// Errors returned by the pipeline.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("tft: invalid dimensions")

	// ErrStagingTooSmall is returned when a staging buffer cannot hold a
	// single row of pixels.
	ErrStagingTooSmall = errors.New("tft: staging buffer smaller than one row")

	// ErrNilSink is returned when New is called without a sink.
	ErrNilSink = errors.New("tft: nil sink")

	// ErrClosed is returned by operations on a closed pipeline.
	ErrClosed = errors.New("tft: pipeline closed")
)
