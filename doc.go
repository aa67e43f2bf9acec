// Package tft delivers frames to small RGB565 raster panels over a slow
// serial link without blocking the code that draws them.
//
// # Overview
//
// A Pipeline owns three render surfaces. Drawing always goes to the Rendering
// surface. Flush hands that surface to a background worker and immediately
// promotes an idle surface, so the caller keeps drawing while the previous
// frame is transmitted band by band through two small staging buffers.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/tft"
//	    "github.com/gogpu/tft/sink/capture"
//	)
//
//	rec := capture.New(128, 160)
//	p, err := tft.New(128, 160, rec)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	p.FillScreen(tft.Black)
//	p.FillRect(10, 20, 50, 40, tft.Red)
//	p.DrawText(4, 4, "hello", tft.White)
//	p.Flush()
//	p.WaitComplete()
//
// # Dirty Tracking
//
// Every drawing call reports the rectangle it touched. When tracking is on
// (the default), Flush sends only the bands intersecting the union of those
// rectangles, and within each band only the touched rows and columns.
// ForceFullRedraw overrides this for one flush; disabling tracking makes every
// flush full-frame.
//
// # Backpressure
//
// Flush never blocks. If a transfer is still in flight it returns FlushBusy
// and the request is dropped: the dirty region is kept, so the next accepted
// flush covers it. Use WaitComplete or WaitCompleteContext to pace frames.
//
// # Failure
//
// A sink error abandons the rest of the flush. The panel then shows a
// partially updated frame until the next flush; stale data is never resent.
//
// # Concurrency
//
// Drawing, Flush and SwapBuffers are meant to be called from one goroutine.
// The pipeline runs exactly one more goroutine: the transfer worker.
package tft
