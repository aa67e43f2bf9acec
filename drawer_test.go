package tft

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/gogpu/tft/sink/capture"
)

type haltSink struct {
	*capture.Recorder
	halted bool
}

func (h *haltSink) String() string { return "fake-panel" }
func (h *haltSink) Halt() error {
	h.halted = true
	return nil
}

func TestDraw_FlushesRegion(t *testing.T) {
	rec := capture.New(16, 16)
	p := newTestPipeline(t, 16, 16, rec, WithBandHeight(4))

	src := image.NewUniform(Cyan)
	if err := p.Draw(image.Rect(4, 4, 8, 8), src, image.Point{}); err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	waitOrFail(t, p)

	if rec.Pixel(4, 4) != Cyan || rec.Pixel(7, 7) != Cyan {
		t.Error("drawn pixels not delivered")
	}
	if rec.Pixel(8, 8) != Black {
		t.Error("pixels outside the rectangle delivered")
	}
	if n := rec.PixelsReceived(); n != 16 {
		t.Errorf("PixelsReceived() = %d, want 16", n)
	}
}

func TestDraw_ClipsAndOffsetsSource(t *testing.T) {
	rec := capture.New(8, 8)
	p := newTestPipeline(t, 8, 8, rec)

	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src.Set(2, 2, Red)

	// Destination starts off-screen by (2, 2); the source must shift with it.
	if err := p.Draw(image.Rect(-2, -2, 6, 6), src, image.Point{}); err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	waitOrFail(t, p)

	if rec.Pixel(0, 0) != Red {
		t.Errorf("pixel (0,0) = %#04x, want red", rec.Pixel(0, 0))
	}
}

func TestDraw_Closed(t *testing.T) {
	p, err := New(8, 8, capture.New(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	_ = p.Close()

	if err := p.Draw(p.Bounds(), image.NewUniform(Red), image.Point{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Draw() after Close = %v, want ErrClosed", err)
	}
}

func TestDrawer_Resource(t *testing.T) {
	hs := &haltSink{Recorder: capture.New(8, 8)}
	p := newTestPipeline(t, 8, 8, hs)

	if s := p.String(); !strings.Contains(s, "8x8") || !strings.Contains(s, "fake-panel") {
		t.Errorf("String() = %q", s)
	}
	if p.ColorModel() != RGB565Model {
		t.Error("ColorModel() is not RGB565Model")
	}
	if p.Bounds() != image.Rect(0, 0, 8, 8) {
		t.Errorf("Bounds() = %v", p.Bounds())
	}
	if err := p.Halt(); err != nil {
		t.Fatalf("Halt() = %v", err)
	}
	if !hs.halted {
		t.Error("Halt() did not reach the sink")
	}
}
