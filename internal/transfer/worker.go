// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package transfer

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/tft/internal/band"
	"github.com/gogpu/tft/internal/damage"
	"github.com/gogpu/tft/internal/framebuf"
	"github.com/gogpu/tft/sink"
)

// DefaultQueueDepth is the chunk queue capacity used when none is given.
const DefaultQueueDepth = 10

// Config wires a Worker to the pipeline state it drives.
type Config struct {
	Pool    *framebuf.Pool
	Tracker *damage.Tracker
	Signal  *Signal
	Sink    sink.Sink
	Layout  band.Layout

	// Width is the frame width in pixels.
	Width int

	// QueueDepth is the chunk queue capacity. Zero means DefaultQueueDepth.
	QueueDepth int

	// Logger receives worker diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Stats is a snapshot of worker counters.
type Stats struct {
	BandsSent       uint64
	BandsSkipped    uint64
	BytesSent       uint64
	FlushesComplete uint64
	FlushesAborted  uint64
}

// Worker is the single background consumer of chunk messages.
//
// It owns the sink and the staging buffers. It reads only the Transferring
// surface named in each chunk and never touches the Rendering surface.
//
// Thread safety: Enqueue, Stats and Close are safe for concurrent use.
type Worker struct {
	pool    *framebuf.Pool
	tracker *damage.Tracker
	signal  *Signal
	sink    sink.Sink
	layout  band.Layout
	width   int
	stride  int
	log     *slog.Logger

	staging *Staging
	queue   chan Chunk

	// done signals the worker goroutine to stop.
	done chan struct{}

	// wg waits for the worker goroutine to finish.
	wg sync.WaitGroup

	// running indicates whether the worker is accepting chunks.
	running atomic.Bool

	bandsSent    atomic.Uint64
	bandsSkipped atomic.Uint64
	bytesSent    atomic.Uint64
	completed    atomic.Uint64
	aborted      atomic.Uint64
}

// NewWorker allocates the staging pair and starts the worker goroutine.
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Pool == nil || cfg.Tracker == nil || cfg.Signal == nil || cfg.Sink == nil {
		return nil, ErrNilCollaborator
	}
	if cfg.Layout.Count() == 0 || cfg.Width <= 0 {
		return nil, fmt.Errorf("%w: empty band layout", ErrStagingSize)
	}

	stride := framebuf.RowBytes(cfg.Width)
	staging, err := NewStaging(cfg.Layout.BandHeight() * stride)
	if err != nil {
		return nil, err
	}

	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	w := &Worker{
		pool:    cfg.Pool,
		tracker: cfg.Tracker,
		signal:  cfg.Signal,
		sink:    cfg.Sink,
		layout:  cfg.Layout,
		width:   cfg.Width,
		stride:  stride,
		log:     log,
		staging: staging,
		queue:   make(chan Chunk, depth),
		done:    make(chan struct{}),
	}
	w.running.Store(true)

	w.wg.Add(1)
	go w.run()

	log.Debug("transfer worker started",
		"bands", cfg.Layout.Count(),
		"band_height", cfg.Layout.BandHeight(),
		"staging_bytes", staging.Size(),
		"queue_depth", depth)

	return w, nil
}

// Enqueue offers a chunk to the worker without blocking. It reports false if
// the queue is full or the worker is closed.
func (w *Worker) Enqueue(c Chunk) bool {
	if !w.running.Load() {
		return false
	}
	select {
	case w.queue <- c:
		return true
	default:
		return false
	}
}

// Close stops the worker goroutine after the chunk it is processing.
// A flush still queued is aborted, so its surface is released and its waiters
// wake. Close is safe to call multiple times.
func (w *Worker) Close() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.done)
	w.wg.Wait()
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() Stats {
	return Stats{
		BandsSent:       w.bandsSent.Load(),
		BandsSkipped:    w.bandsSkipped.Load(),
		BytesSent:       w.bytesSent.Load(),
		FlushesComplete: w.completed.Load(),
		FlushesAborted:  w.aborted.Load(),
	}
}

// run is the worker main loop. It blocks only while waiting for the next chunk.
func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			w.drain()
			return
		case c := <-w.queue:
			w.process(c)
		}
	}
}

// drain aborts chunks left in the queue at shutdown.
func (w *Worker) drain() {
	for {
		select {
		case c := <-w.queue:
			w.log.Debug("transfer: dropping queued chunk", "chunk", c.String())
			w.finish(c, false)
		default:
			return
		}
	}
}

// process handles one chunk and either enqueues the next band of the same
// flush or finishes the flush.
func (w *Worker) process(c Chunk) {
	src := w.pool.Surface(c.Source)
	if src == nil {
		w.log.Error("transfer: unknown source surface", "chunk", c.String())
		w.finish(c, false)
		return
	}

	if err := w.transferBand(src, c); err != nil {
		// A partially updated panel is accepted; stale data is never resent.
		w.log.Warn("transfer: sink write failed, abandoning flush",
			"band", c.Index, "surface", c.Source, "seq", c.Seq, "err", err)
		w.finish(c, false)
		return
	}

	if c.Last {
		w.finish(c, true)
		return
	}

	_, end := w.layout.RangeFor(c.Region, c.Dirty)
	next := c.Index + 1
	if next > end {
		w.finish(c, true)
		return
	}

	nc := c
	nc.Index = next
	nc.Last = next == end
	if !w.Enqueue(nc) {
		w.log.Error("transfer: failed to enqueue next chunk", "band", next, "seq", c.Seq)
		w.finish(c, false)
	}
}

// finish settles the dirty region, returns the surface to Idle and fires the
// completion signal, in that order, so a caller woken by the signal can flush
// again immediately.
func (w *Worker) finish(c Chunk, ok bool) {
	w.tracker.Settle(c.Gen)
	w.pool.Release(c.Source)

	if ok {
		w.completed.Add(1)
		w.log.Debug("transfer: flush complete", "seq", c.Seq, "surface", c.Source)
	} else {
		w.aborted.Add(1)
	}

	w.signal.Fire(c.Seq)
}

// transferBand copies the rows of one band into its staging buffer and sends
// them. In dirty mode only the rows and columns covered by the region are sent.
func (w *Worker) transferBand(src *framebuf.Surface, c Chunk) error {
	rows := w.layout.Band(c.Index)
	x0, x1 := 0, w.width
	if c.Dirty {
		rows = w.layout.Intersect(c.Index, c.Region)
		if rows.Empty() {
			w.bandsSkipped.Add(1)
			return nil
		}
		x0, x1 = c.Region.X, c.Region.X+c.Region.W
	}

	stage := w.staging.For(c.Index)
	n := copy(stage, src.Rows(rows.Y0, rows.Y1))
	stage = stage[:n]

	if err := w.sink.SetWindow(x0, rows.Y0, x1-1, rows.Y1-1); err != nil {
		return fmt.Errorf("set window for band %d: %w", c.Index, err)
	}

	if x0 == 0 && x1 == w.width {
		// Full-width rows are contiguous in the staging buffer.
		if err := w.send(stage); err != nil {
			return fmt.Errorf("send band %d: %w", c.Index, err)
		}
	} else {
		for y := 0; y < rows.Height(); y++ {
			off := y * w.stride
			span := stage[off+x0*framebuf.BytesPerPixel : off+x1*framebuf.BytesPerPixel]
			if err := w.send(span); err != nil {
				return fmt.Errorf("send row %d of band %d: %w", rows.Y0+y, c.Index, err)
			}
		}
	}

	w.bandsSent.Add(1)
	return nil
}

// send converts p to wire byte order just for the duration of the call, so
// the staging buffer keeps its logical content even when the sink fails.
func (w *Worker) send(p []byte) error {
	framebuf.SwapBytes(p)
	err := w.sink.SendPixels(p)
	framebuf.SwapBytes(p)
	if err != nil {
		return err
	}
	w.bytesSent.Add(uint64(len(p)))
	return nil
}
