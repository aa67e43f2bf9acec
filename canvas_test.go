package tft

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/tft/sink/capture"
)

func newCanvas(t *testing.T, w, h int, opts ...Option) *Pipeline {
	t.Helper()
	return newTestPipeline(t, w, h, capture.New(w, h), opts...)
}

func assertRegion(t *testing.T, p *Pipeline, want image.Rectangle) {
	t.Helper()
	got, ok := p.DirtyRegion()
	if want.Empty() {
		if ok {
			t.Errorf("DirtyRegion() = %v, want none", got)
		}
		return
	}
	if !ok || got != want {
		t.Errorf("DirtyRegion() = %v (%v), want %v", got, ok, want)
	}
}

func TestFillRect(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		want       image.Rectangle
	}{
		{"inside", 2, 3, 4, 5, image.Rect(2, 3, 6, 8)},
		{"clipped right", 14, 0, 10, 2, image.Rect(14, 0, 16, 2)},
		{"clipped negative origin", -3, -3, 5, 5, image.Rect(0, 0, 2, 2)},
		{"outside", 20, 20, 4, 4, image.Rectangle{}},
		{"zero width", 1, 1, 0, 4, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newCanvas(t, 16, 16)
			got := p.FillRect(tt.x, tt.y, tt.w, tt.h, Magenta)
			if got != tt.want {
				t.Errorf("FillRect() = %v, want %v", got, tt.want)
			}
			assertRegion(t, p, tt.want)
			if !tt.want.Empty() {
				if p.Pixel(tt.want.Min.X, tt.want.Min.Y) != Magenta {
					t.Error("first pixel not filled")
				}
				if p.Pixel(tt.want.Max.X-1, tt.want.Max.Y-1) != Magenta {
					t.Error("last pixel not filled")
				}
			}
		})
	}
}

func TestDirtyRegionUnion(t *testing.T) {
	p := newCanvas(t, 64, 64)

	p.SetPixel(5, 5, Red)
	p.DrawHLine(10, 40, 8, Red)
	p.DrawVLine(30, 2, 3, Red)
	assertRegion(t, p, image.Rect(5, 2, 31, 41))

	p.FillScreen(Black)
	assertRegion(t, p, image.Rect(0, 0, 64, 64))
}

func TestDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		pixels         []image.Point
	}{
		{"horizontal reversed", 9, 3, 2, 3, []image.Point{{2, 3}, {9, 3}, {5, 3}}},
		{"vertical", 4, 1, 4, 6, []image.Point{{4, 1}, {4, 6}}},
		{"diagonal", 0, 0, 7, 7, []image.Point{{0, 0}, {3, 3}, {7, 7}}},
		{"steep", 1, 0, 3, 9, []image.Point{{1, 0}, {3, 9}}},
		{"anti-diagonal", 7, 0, 0, 7, []image.Point{{7, 0}, {0, 7}, {4, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newCanvas(t, 16, 16)
			p.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1, Yellow)
			for _, pt := range tt.pixels {
				if p.Pixel(pt.X, pt.Y) != Yellow {
					t.Errorf("pixel %v not set", pt)
				}
			}
			assertRegion(t, p, image.Rect(
				min(tt.x0, tt.x1), min(tt.y0, tt.y1),
				max(tt.x0, tt.x1)+1, max(tt.y0, tt.y1)+1))
		})
	}
}

func TestDrawRect(t *testing.T) {
	p := newCanvas(t, 16, 16)
	p.DrawRect(2, 2, 6, 4, White)

	for _, pt := range []image.Point{{2, 2}, {7, 2}, {2, 5}, {7, 5}, {4, 2}, {2, 4}} {
		if p.Pixel(pt.X, pt.Y) != White {
			t.Errorf("outline pixel %v not set", pt)
		}
	}
	if p.Pixel(4, 4) != Black {
		t.Error("interior pixel set")
	}
	assertRegion(t, p, image.Rect(2, 2, 8, 6))
}

func TestCircles(t *testing.T) {
	t.Run("outline", func(t *testing.T) {
		p := newCanvas(t, 32, 32)
		p.DrawCircle(16, 16, 5, Green)
		for _, pt := range []image.Point{{21, 16}, {11, 16}, {16, 11}, {16, 21}} {
			if p.Pixel(pt.X, pt.Y) != Green {
				t.Errorf("pixel %v not on outline", pt)
			}
		}
		if p.Pixel(16, 16) != Black {
			t.Error("center set by DrawCircle")
		}
		assertRegion(t, p, image.Rect(11, 11, 22, 22))
	})

	t.Run("filled", func(t *testing.T) {
		p := newCanvas(t, 32, 32)
		p.FillCircle(16, 16, 5, Green)
		for _, pt := range []image.Point{{16, 16}, {21, 16}, {16, 11}, {13, 14}} {
			if p.Pixel(pt.X, pt.Y) != Green {
				t.Errorf("pixel %v not filled", pt)
			}
		}
		if p.Pixel(11, 11) != Black {
			t.Error("bounding box corner filled")
		}
	})

	t.Run("clipped at edge", func(t *testing.T) {
		p := newCanvas(t, 32, 32)
		p.FillCircle(0, 0, 4, Red)
		assertRegion(t, p, image.Rect(0, 0, 5, 5))
	})
}

func TestDrawBitmap(t *testing.T) {
	// 10x2 bitmap: row 0 = 1010000000, row 1 = 1111111111.
	bitmap := []byte{0xA0, 0x00, 0xFF, 0xC0}

	t.Run("transparent", func(t *testing.T) {
		p := newCanvas(t, 16, 16)
		p.FillScreen(Blue)
		p.ClearDirtyRegion()
		p.DrawBitmap(1, 1, bitmap, 10, 2, White)

		if p.Pixel(1, 1) != White || p.Pixel(3, 1) != White {
			t.Error("set bits not drawn")
		}
		if p.Pixel(2, 1) != Blue {
			t.Error("clear bit overwritten")
		}
		if p.Pixel(10, 2) != White {
			t.Error("last bit of second row not drawn")
		}
		assertRegion(t, p, image.Rect(1, 1, 11, 3))
	})

	t.Run("background", func(t *testing.T) {
		p := newCanvas(t, 16, 16)
		p.DrawBitmapBG(0, 0, bitmap, 10, 2, White, Red)
		if p.Pixel(1, 0) != Red {
			t.Error("clear bit not painted with background")
		}
		if p.Pixel(0, 0) != White {
			t.Error("set bit not painted with foreground")
		}
	})

	t.Run("short bitmap", func(t *testing.T) {
		p := newCanvas(t, 16, 16)
		p.DrawBitmap(0, 0, bitmap[:2], 10, 2, White)
		assertRegion(t, p, image.Rect(0, 0, 10, 1))
	})
}

func TestDrawRGBBitmap(t *testing.T) {
	pixels := []RGB565{Red, Green, Blue, White, Yellow, Cyan}

	t.Run("opaque", func(t *testing.T) {
		p := newCanvas(t, 8, 8)
		p.DrawRGBBitmap(2, 2, pixels, 3, 2)
		if p.Pixel(2, 2) != Red || p.Pixel(4, 2) != Blue || p.Pixel(4, 3) != Cyan {
			t.Error("pixels not copied in raster order")
		}
		assertRegion(t, p, image.Rect(2, 2, 5, 4))
	})

	t.Run("masked", func(t *testing.T) {
		p := newCanvas(t, 8, 8)
		mask := []byte{0x40, 0xA0} // row 0: 010, row 1: 101
		p.DrawRGBBitmapMasked(0, 0, pixels, mask, 3, 2)
		if p.Pixel(0, 0) != Black || p.Pixel(1, 0) != Green {
			t.Error("mask not applied on row 0")
		}
		if p.Pixel(0, 1) != White || p.Pixel(1, 1) != Black || p.Pixel(2, 1) != Cyan {
			t.Error("mask not applied on row 1")
		}
	})
}

func TestDrawImage(t *testing.T) {
	p := newCanvas(t, 16, 16)

	src := image.NewRGBA(image.Rect(10, 10, 14, 13))
	for y := 10; y < 13; y++ {
		for x := 10; x < 14; x++ {
			src.Set(x, y, color.RGBA{R: 0xFF, A: 0xFF})
		}
	}
	// A transparent pixel must leave the destination untouched.
	src.Set(13, 12, color.RGBA{})

	p.FillScreen(Blue)
	p.ClearDirtyRegion()
	got := p.DrawImage(2, 3, src)

	if want := image.Rect(2, 3, 6, 6); got != want {
		t.Errorf("DrawImage() = %v, want %v", got, want)
	}
	if p.Pixel(2, 3) != Red || p.Pixel(5, 4) != Red {
		t.Error("image pixels not drawn")
	}
	if p.Pixel(5, 5) != Blue {
		t.Error("transparent pixel overwrote destination")
	}
	assertRegion(t, p, image.Rect(2, 3, 6, 6))
}

func TestDrawImageScaled(t *testing.T) {
	p := newCanvas(t, 16, 16)

	tile := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			tile.Set(x, y, color.RGBA{G: 0xFF, A: 0xFF})
		}
	}

	got := p.DrawImageScaled(image.Rect(4, 4, 12, 12), tile)
	if want := image.Rect(4, 4, 12, 12); got != want {
		t.Errorf("DrawImageScaled() = %v, want %v", got, want)
	}
	if p.Pixel(8, 8) != Green {
		t.Errorf("scaled center = %#04x, want green", p.Pixel(8, 8))
	}
	if p.Pixel(3, 3) != Black {
		t.Error("pixel outside destination touched")
	}

	if r := p.DrawImageScaled(image.Rectangle{}, tile); !r.Empty() {
		t.Errorf("empty destination returned %v", r)
	}
}

func TestMeasureText(t *testing.T) {
	p := newCanvas(t, 64, 16)

	tests := []struct {
		s    string
		w, h int
	}{
		{"", 0, 13},
		{"Hi", 14, 13},
		{"\u00e9", 7, 13},
		{"e\u0301", 7, 13}, // decomposed accent normalizes to one glyph
	}
	for _, tt := range tests {
		w, h := p.MeasureText(tt.s)
		if w != tt.w || h != tt.h {
			t.Errorf("MeasureText(%q) = %d, %d, want %d, %d", tt.s, w, h, tt.w, tt.h)
		}
	}
}

func TestDrawText(t *testing.T) {
	p := newCanvas(t, 64, 16)

	got := p.DrawText(0, 0, "A", White)
	box := image.Rect(0, 0, 7, 13)
	if got.Empty() || !got.In(box) {
		t.Fatalf("DrawText() = %v, want non-empty within %v", got, box)
	}

	lit := 0
	for y := 0; y < 13; y++ {
		for x := 0; x < 7; x++ {
			if p.Pixel(x, y) == White {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no glyph pixels drawn")
	}
	if p.Pixel(20, 5) != Black {
		t.Error("pixel outside the text touched")
	}

	if r := p.DrawText(0, 0, "", White); !r.Empty() {
		t.Errorf("DrawText(\"\") = %v, want empty", r)
	}
}

func TestDrawTextBG(t *testing.T) {
	p := newCanvas(t, 64, 16)

	got := p.DrawTextBG(1, 1, "A", White, Blue)
	if want := image.Rect(1, 1, 8, 14); !want.In(got) {
		t.Errorf("DrawTextBG() = %v, want it to cover %v", got, want)
	}
	if p.Pixel(7, 13) != Blue {
		t.Errorf("background not painted: %#04x", p.Pixel(7, 13))
	}
}

func TestDrawText_CachesGlyphs(t *testing.T) {
	p := newCanvas(t, 64, 16)

	p.DrawText(0, 0, "AAB", White)
	p.DrawText(0, 0, "BA", White)

	st := p.glyphs.Stats()
	if st.Len != 2 {
		t.Errorf("cached glyphs = %d, want 2", st.Len)
	}
	if st.Misses != 2 || st.Hits != 3 {
		t.Errorf("cache hits/misses = %d/%d, want 3/2", st.Hits, st.Misses)
	}

	// Both copies of a cached glyph land at their own pen positions.
	q := newCanvas(t, 64, 16)
	q.DrawText(0, 0, "AA", White)
	for y := range 13 {
		for x := range 7 {
			if q.Pixel(x, y) != q.Pixel(x+7, y) {
				t.Fatalf("pixel (%d,%d) differs from its repeat at x+7", x, y)
			}
		}
	}
}
