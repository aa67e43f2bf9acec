package tft

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"golang.org/x/image/font"

	"github.com/gogpu/tft/internal/band"
	"github.com/gogpu/tft/internal/cache"
	"github.com/gogpu/tft/internal/damage"
	"github.com/gogpu/tft/internal/framebuf"
	"github.com/gogpu/tft/internal/transfer"
	"github.com/gogpu/tft/sink"
)

// FlushStatus reports what Flush did with a request.
type FlushStatus uint8

const (
	// FlushStarted means a transfer was handed to the worker.
	FlushStarted FlushStatus = iota

	// FlushClean means tracking is on and nothing changed: no band is sent
	// and surfaces are not rotated.
	FlushClean

	// FlushBusy means a transfer is still in flight. The request was dropped
	// and the dirty region kept for the next flush.
	FlushBusy

	// FlushFailed means the worker refused the first chunk. The surface was
	// returned and the completion signal fired.
	FlushFailed

	// FlushClosed means the pipeline is closed.
	FlushClosed
)

// String returns a string representation of the status.
func (s FlushStatus) String() string {
	switch s {
	case FlushStarted:
		return "Started"
	case FlushClean:
		return "Clean"
	case FlushBusy:
		return "Busy"
	case FlushFailed:
		return "Failed"
	case FlushClosed:
		return "Closed"
	default:
		return fmt.Sprintf("FlushStatus(%d)", uint8(s))
	}
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	// Flush outcomes as seen by the caller.
	FlushesStarted uint64
	FlushesClean   uint64
	FlushesBusy    uint64
	FlushesFailed  uint64
	Swaps          uint64

	// Transfer outcomes as seen by the worker.
	FlushesCompleted uint64
	FlushesAborted   uint64
	BandsSent        uint64
	BandsSkipped     uint64
	BytesSent        uint64
}

// Pipeline is a triple-buffered frame pipeline bound to one sink.
//
// Drawing methods write the active surface. Flush submits it for transfer on
// the background worker and returns at once.
type Pipeline struct {
	width  int
	height int
	sink   sink.Sink

	pool    *framebuf.Pool
	tracker *damage.Tracker
	layout  band.Layout
	signal  *transfer.Signal
	worker  *transfer.Worker

	log          *slog.Logger
	face         font.Face
	glyphs       *cache.Cache[rune, *glyph]
	carryForward bool

	closed atomic.Bool

	started atomic.Uint64
	clean   atomic.Uint64
	busy    atomic.Uint64
	failed  atomic.Uint64
	swaps   atomic.Uint64
}

// New allocates the surfaces and staging buffers for a width x height panel
// and starts the transfer worker.
//
// Nothing is started when an error is returned.
func New(width, height int, s sink.Sink, opts ...Option) (*Pipeline, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if s == nil {
		return nil, ErrNilSink
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	bandHeight := o.bandHeight
	if bandHeight <= 0 {
		bandHeight = o.stagingSize / framebuf.RowBytes(width)
	}
	if bandHeight < 1 {
		return nil, fmt.Errorf("%w: %d bytes for %d pixel rows", ErrStagingTooSmall, o.stagingSize, width)
	}
	bandHeight = min(bandHeight, height)

	log := o.logger
	if log == nil {
		log = Logger()
	}

	pool, err := framebuf.NewPool(width, height)
	if err != nil {
		return nil, fmt.Errorf("tft: allocate surfaces: %w", err)
	}

	p := &Pipeline{
		width:        width,
		height:       height,
		sink:         s,
		pool:         pool,
		tracker:      damage.NewTracker(width, height),
		layout:       band.NewLayout(height, bandHeight),
		signal:       transfer.NewSignal(),
		log:          log,
		face:         o.face,
		glyphs:       cache.New[rune, *glyph](glyphCacheSize),
		carryForward: o.carryForward,
	}
	p.tracker.SetEnabled(o.dirtyTracking)

	p.worker, err = transfer.NewWorker(transfer.Config{
		Pool:       p.pool,
		Tracker:    p.tracker,
		Signal:     p.signal,
		Sink:       s,
		Layout:     p.layout,
		Width:      width,
		QueueDepth: o.queueDepth,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("tft: start worker: %w", err)
	}

	log.Info("tft: pipeline started",
		"width", width,
		"height", height,
		"bands", p.layout.Count(),
		"band_height", bandHeight,
		"dirty_tracking", o.dirtyTracking)

	return p, nil
}

// Flush submits the active surface for transfer and never blocks.
//
// With tracking enabled and no pending full redraw, only the bands touched by
// the dirty region are sent; if nothing is dirty Flush returns FlushClean
// without rotating. Otherwise every band is sent.
//
// On FlushStarted the surface roles have rotated: drawing continues on a
// different surface, which holds a copy of the submitted frame unless
// carry-forward is disabled.
func (p *Pipeline) Flush() FlushStatus {
	if p.closed.Load() {
		return FlushClosed
	}

	snap := p.tracker.Snapshot()
	dirty := snap.Enabled && !snap.Full
	if dirty && !snap.Valid {
		p.clean.Add(1)
		return FlushClean
	}

	src, ok := p.pool.BeginTransfer()
	if !ok {
		p.busy.Add(1)
		p.log.Debug("tft: flush dropped, transfer in flight")
		return FlushBusy
	}
	seq := p.signal.Arm()

	if p.carryForward {
		p.pool.Active().CopyFrom(p.pool.Surface(src))
	}

	start, end := p.layout.RangeFor(snap.Rect, dirty)
	c := transfer.Chunk{
		Index:  start,
		Last:   start == end,
		Source: src,
		Dirty:  dirty,
		Region: snap.Rect,
		Gen:    snap.Gen,
		Seq:    seq,
	}
	if !p.worker.Enqueue(c) {
		p.pool.Release(src)
		p.signal.Fire(seq)
		p.failed.Add(1)
		p.log.Error("tft: failed to enqueue first chunk", "seq", seq)
		return FlushFailed
	}

	p.started.Add(1)
	p.log.Debug("tft: flush started",
		"seq", seq,
		"surface", src,
		"dirty", dirty,
		"region", snap.Rect.String(),
		"bands", fmt.Sprintf("%d-%d", start, end))
	return FlushStarted
}

// SwapBuffers makes the next idle surface active without transferring
// anything. It reports false if no surface is idle or the pipeline is closed.
func (p *Pipeline) SwapBuffers() bool {
	if p.closed.Load() {
		return false
	}
	from, to, ok := p.pool.Rotate()
	if !ok {
		return false
	}
	if p.carryForward {
		p.pool.Surface(to).CopyFrom(p.pool.Surface(from))
	}
	p.swaps.Add(1)
	p.log.Debug("tft: surfaces swapped", "from", from, "to", to)
	return true
}

// IsComplete reports whether no transfer is in flight. It never blocks.
func (p *Pipeline) IsComplete() bool {
	return p.signal.Done()
}

// WaitComplete blocks until the in-flight transfer, if any, completes.
func (p *Pipeline) WaitComplete() {
	p.signal.Wait()
}

// WaitCompleteContext is like WaitComplete but gives up when ctx is done.
func (p *Pipeline) WaitCompleteContext(ctx context.Context) error {
	return p.signal.WaitContext(ctx)
}

// EnableDirtyTracking turns dirty tracking on or off. Enabling starts from an
// empty region, so draw before the next flush or call ForceFullRedraw.
func (p *Pipeline) EnableDirtyTracking(enabled bool) {
	p.tracker.SetEnabled(enabled)
}

// DirtyTrackingEnabled reports whether dirty tracking is on.
func (p *Pipeline) DirtyTrackingEnabled() bool {
	return p.tracker.Enabled()
}

// ClearDirtyRegion forgets the recorded region. A pending ForceFullRedraw is
// kept.
func (p *Pipeline) ClearDirtyRegion() {
	p.tracker.Clear()
}

// ForceFullRedraw makes the next accepted flush send the whole frame.
func (p *Pipeline) ForceFullRedraw() {
	p.tracker.ForceFull()
}

// DirtyRegion returns the region the next flush would send, and whether one
// is recorded.
func (p *Pipeline) DirtyRegion() (image.Rectangle, bool) {
	r, ok := p.tracker.Region()
	if !ok {
		return image.Rectangle{}, false
	}
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H), true
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	ws := p.worker.Stats()
	return Stats{
		FlushesStarted:   p.started.Load(),
		FlushesClean:     p.clean.Load(),
		FlushesBusy:      p.busy.Load(),
		FlushesFailed:    p.failed.Load(),
		Swaps:            p.swaps.Load(),
		FlushesCompleted: ws.FlushesComplete,
		FlushesAborted:   ws.FlushesAborted,
		BandsSent:        ws.BandsSent,
		BandsSkipped:     ws.BandsSkipped,
		BytesSent:        ws.BytesSent,
	}
}

// Close waits for the in-flight transfer and stops the worker.
// Calling Close on a closed pipeline returns nil.
func (p *Pipeline) Close() error {
	err := p.Shutdown(context.Background())
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Shutdown is like Close but stops waiting for the in-flight transfer when
// ctx is done. The worker still finishes the band it is sending, so the panel
// may be left showing a partial frame. The ctx error is returned in that case.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	err := p.signal.WaitContext(ctx)
	if err != nil {
		p.log.Warn("tft: forced shutdown with transfer in flight", "err", err)
		err = fmt.Errorf("tft: shutdown: %w", err)
	}
	p.worker.Close()

	p.log.Info("tft: pipeline closed")
	return err
}
