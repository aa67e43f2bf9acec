package tft

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

var _ display.Drawer = (*Pipeline)(nil)

// String implements conn.Resource.
func (p *Pipeline) String() string {
	if s, ok := p.sink.(fmt.Stringer); ok {
		return fmt.Sprintf("tft.Pipeline{%dx%d, %s}", p.width, p.height, s)
	}
	return fmt.Sprintf("tft.Pipeline{%dx%d}", p.width, p.height)
}

// Halt implements conn.Resource. It waits for the in-flight transfer and then
// halts the sink if it is itself a conn.Resource.
func (p *Pipeline) Halt() error {
	p.WaitComplete()
	if r, ok := p.sink.(conn.Resource); ok {
		return r.Halt()
	}
	return nil
}

// ColorModel implements display.Drawer.
func (p *Pipeline) ColorModel() color.Model {
	return RGB565Model
}

// Draw implements display.Drawer.
//
// Unlike the other drawing methods, Draw is synchronous with respect to the
// previous frame: it waits for any in-flight transfer, copies src into r,
// and flushes. The returned error reflects only whether the flush was
// accepted; the transfer itself completes in the background.
func (p *Pipeline) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if p.closed.Load() {
		return ErrClosed
	}
	p.WaitComplete()

	clipped := r.Intersect(p.Bounds())
	if clipped.Empty() {
		return nil
	}
	sp = sp.Add(clipped.Min.Sub(r.Min))
	draw.Draw(p.pool.Active(), clipped, src, sp, draw.Src)
	p.mark(clipped)

	switch st := p.Flush(); st {
	case FlushStarted, FlushClean:
		return nil
	case FlushClosed:
		return ErrClosed
	default:
		return fmt.Errorf("tft: flush %s", st)
	}
}
