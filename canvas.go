package tft

import (
	"image"

	"golang.org/x/image/draw"
)

// Width returns the frame width in pixels.
func (p *Pipeline) Width() int {
	return p.width
}

// Height returns the frame height in pixels.
func (p *Pipeline) Height() int {
	return p.height
}

// Bounds returns the frame rectangle with its origin at (0, 0).
func (p *Pipeline) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// Pixel returns the color at (x, y) on the active surface.
func (p *Pipeline) Pixel(x, y int) RGB565 {
	return p.pool.Active().Pixel(x, y)
}

// mark records r, clipped to the frame, as dirty and returns the clipped
// rectangle.
func (p *Pipeline) mark(r image.Rectangle) image.Rectangle {
	r = r.Canon().Intersect(p.Bounds())
	if !r.Empty() {
		p.tracker.Expand(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	}
	return r
}

// FillScreen fills the whole frame with c.
func (p *Pipeline) FillScreen(c RGB565) {
	p.pool.Active().Clear(c)
	p.mark(p.Bounds())
}

// SetPixel sets the pixel at (x, y). Out-of-bounds writes are ignored.
func (p *Pipeline) SetPixel(x, y int, c RGB565) {
	p.pool.Active().SetPixel(x, y, c)
	p.mark(image.Rect(x, y, x+1, y+1))
}

// FillRect fills the w x h rectangle at (x, y) and returns the part that fell
// inside the frame.
func (p *Pipeline) FillRect(x, y, w, h int, c RGB565) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	return p.mark(p.pool.Active().Fill(image.Rect(x, y, x+w, y+h), c))
}

// DrawHLine draws a horizontal line of w pixels starting at (x, y).
func (p *Pipeline) DrawHLine(x, y, w int, c RGB565) {
	p.FillRect(x, y, w, 1, c)
}

// DrawVLine draws a vertical line of h pixels starting at (x, y).
func (p *Pipeline) DrawVLine(x, y, h int, c RGB565) {
	p.FillRect(x, y, 1, h, c)
}

// DrawLine draws a line from (x0, y0) to (x1, y1), both ends included.
func (p *Pipeline) DrawLine(x0, y0, x1, y1 int, c RGB565) {
	switch {
	case y0 == y1:
		p.DrawHLine(min(x0, x1), y0, abs(x1-x0)+1, c)
		return
	case x0 == x1:
		p.DrawVLine(x0, min(y0, y1), abs(y1-y0)+1, c)
		return
	}

	s := p.pool.Active()
	bbox := image.Rect(min(x0, x1), min(y0, y1), max(x0, x1)+1, max(y0, y1)+1)

	// Bresenham over all octants.
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		s.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
	p.mark(bbox)
}

// DrawRect draws the outline of the w x h rectangle at (x, y).
func (p *Pipeline) DrawRect(x, y, w, h int, c RGB565) {
	if w <= 0 || h <= 0 {
		return
	}
	p.DrawHLine(x, y, w, c)
	p.DrawHLine(x, y+h-1, w, c)
	p.DrawVLine(x, y, h, c)
	p.DrawVLine(x+w-1, y, h, c)
}

// DrawCircle draws the outline of a circle of radius r centered at (cx, cy).
func (p *Pipeline) DrawCircle(cx, cy, r int, c RGB565) {
	if r < 0 {
		return
	}
	s := p.pool.Active()

	// Midpoint circle, eight-way symmetric.
	x, y := r, 0
	d := 1 - r
	for x >= y {
		for _, pt := range [8]image.Point{
			{cx + x, cy + y}, {cx - x, cy + y}, {cx + x, cy - y}, {cx - x, cy - y},
			{cx + y, cy + x}, {cx - y, cy + x}, {cx + y, cy - x}, {cx - y, cy - x},
		} {
			s.SetPixel(pt.X, pt.Y, c)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
	p.mark(image.Rect(cx-r, cy-r, cx+r+1, cy+r+1))
}

// FillCircle fills a circle of radius r centered at (cx, cy).
func (p *Pipeline) FillCircle(cx, cy, r int, c RGB565) {
	if r < 0 {
		return
	}
	s := p.pool.Active()

	x, y := r, 0
	d := 1 - r
	for x >= y {
		s.Fill(image.Rect(cx-x, cy+y, cx+x+1, cy+y+1), c)
		s.Fill(image.Rect(cx-x, cy-y, cx+x+1, cy-y+1), c)
		s.Fill(image.Rect(cx-y, cy+x, cx+y+1, cy+x+1), c)
		s.Fill(image.Rect(cx-y, cy-x, cx+y+1, cy-x+1), c)
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
	p.mark(image.Rect(cx-r, cy-r, cx+r+1, cy+r+1))
}

// DrawBitmap draws a 1-bit-per-pixel bitmap of w x h pixels at (x, y). Rows
// are (w+7)/8 bytes, most significant bit first. Set bits are drawn in fg and
// clear bits are left untouched.
func (p *Pipeline) DrawBitmap(x, y int, bitmap []byte, w, h int, fg RGB565) {
	p.drawBitmap(x, y, bitmap, w, h, fg, nil)
}

// DrawBitmapBG is like DrawBitmap but paints clear bits in bg.
func (p *Pipeline) DrawBitmapBG(x, y int, bitmap []byte, w, h int, fg, bg RGB565) {
	p.drawBitmap(x, y, bitmap, w, h, fg, &bg)
}

func (p *Pipeline) drawBitmap(x, y int, bitmap []byte, w, h int, fg RGB565, bg *RGB565) {
	if w <= 0 || h <= 0 {
		return
	}
	s := p.pool.Active()
	stride := (w + 7) / 8
	h = min(h, len(bitmap)/stride)

	for j := 0; j < h; j++ {
		row := bitmap[j*stride : (j+1)*stride]
		for i := 0; i < w; i++ {
			if row[i>>3]&(0x80>>(i&7)) != 0 {
				s.SetPixel(x+i, y+j, fg)
			} else if bg != nil {
				s.SetPixel(x+i, y+j, *bg)
			}
		}
	}
	p.mark(image.Rect(x, y, x+w, y+h))
}

// DrawRGBBitmap copies a w x h block of RGB565 pixels in raster order to (x, y).
func (p *Pipeline) DrawRGBBitmap(x, y int, pixels []RGB565, w, h int) {
	p.drawRGBBitmap(x, y, pixels, nil, w, h)
}

// DrawRGBBitmapMasked is like DrawRGBBitmap but only draws pixels whose bit is
// set in mask, a 1-bit-per-pixel bitmap laid out as for DrawBitmap.
func (p *Pipeline) DrawRGBBitmapMasked(x, y int, pixels []RGB565, mask []byte, w, h int) {
	p.drawRGBBitmap(x, y, pixels, mask, w, h)
}

func (p *Pipeline) drawRGBBitmap(x, y int, pixels []RGB565, mask []byte, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s := p.pool.Active()
	stride := (w + 7) / 8
	h = min(h, len(pixels)/w)
	if mask != nil {
		h = min(h, len(mask)/stride)
	}

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			if mask != nil && mask[j*stride+i>>3]&(0x80>>(i&7)) == 0 {
				continue
			}
			s.SetPixel(x+i, y+j, pixels[j*w+i])
		}
	}
	p.mark(image.Rect(x, y, x+w, y+h))
}

// DrawImage composites img over the frame with its top-left corner at (x, y)
// and returns the rectangle that changed.
func (p *Pipeline) DrawImage(x, y int, img image.Image) image.Rectangle {
	sb := img.Bounds()
	r := sb.Sub(sb.Min).Add(image.Pt(x, y))
	draw.Draw(p.pool.Active(), r, img, sb.Min, draw.Over)
	return p.mark(r)
}

// DrawImageScaled scales img to fill dst using bilinear interpolation and
// composites it over the frame.
func (p *Pipeline) DrawImageScaled(dst image.Rectangle, img image.Image) image.Rectangle {
	dst = dst.Canon()
	if dst.Empty() {
		return image.Rectangle{}
	}
	draw.BiLinear.Scale(p.pool.Active(), dst, img, img.Bounds(), draw.Over, nil)
	return p.mark(dst)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
