package tft

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// glyphCacheSize bounds the rendered glyphs kept per pipeline.
const glyphCacheSize = 256

// glyph is a rendered rune positioned relative to a dot at the origin.
type glyph struct {
	bounds  image.Rectangle
	mask    *image.Alpha // nil for blank glyphs such as space
	advance fixed.Int26_6
}

// DrawText draws s with its top-left corner at (x, y) in the pipeline's face
// and returns the rectangle that changed. Only glyph pixels are touched.
//
// Text is NFC-normalized first, so decomposed accents render with the
// precomposed glyphs fixed faces carry.
func (p *Pipeline) DrawText(x, y int, s string, fg RGB565) image.Rectangle {
	return p.drawText(x, y, s, fg, nil)
}

// DrawTextBG is like DrawText but first fills the text's line box with bg.
func (p *Pipeline) DrawTextBG(x, y int, s string, fg, bg RGB565) image.Rectangle {
	return p.drawText(x, y, s, fg, &bg)
}

// MeasureText returns the advance width and line height of s in pixels.
func (p *Pipeline) MeasureText(s string) (width, height int) {
	advance, _ := p.layoutText(norm.NFC.String(s), nil)
	return advance.Ceil(), p.face.Metrics().Height.Ceil()
}

func (p *Pipeline) drawText(x, y int, s string, fg RGB565, bg *RGB565) image.Rectangle {
	s = norm.NFC.String(s)
	if s == "" {
		return image.Rectangle{}
	}

	surf := p.pool.Active()
	src := image.NewUniform(fg)
	base := image.Pt(x, y+p.face.Metrics().Ascent.Ceil())

	type placed struct {
		g   *glyph
		dst image.Rectangle
	}
	var glyphs []placed
	advance, ink := p.layoutText(s, func(g *glyph, dotX fixed.Int26_6) {
		if g.mask != nil {
			off := base.Add(image.Pt(dotX.Round(), 0))
			glyphs = append(glyphs, placed{g, g.bounds.Add(off)})
		}
	})
	ink = ink.Add(base)

	changed := ink
	if bg != nil {
		box := image.Rect(x, y, x+advance.Ceil(), y+p.face.Metrics().Height.Ceil())
		surf.Fill(box, *bg)
		changed = box.Union(ink)
	}
	for _, pg := range glyphs {
		draw.DrawMask(surf, pg.dst, src, image.Point{}, pg.g.mask, pg.g.bounds.Min, draw.Over)
	}
	return p.mark(changed)
}

// layoutText walks s applying kerning, calls visit with each glyph and its
// pen position, and returns the total advance and the ink bounds relative to
// a baseline origin.
func (p *Pipeline) layoutText(s string, visit func(g *glyph, dotX fixed.Int26_6)) (fixed.Int26_6, image.Rectangle) {
	var (
		dot  fixed.Int26_6
		ink  image.Rectangle
		prev rune = -1
	)
	for _, r := range s {
		if prev >= 0 {
			dot += p.face.Kern(prev, r)
		}
		g := p.glyph(r)
		if g.mask != nil {
			ink = ink.Union(g.bounds.Add(image.Pt(dot.Round(), 0)))
		}
		if visit != nil {
			visit(g, dot)
		}
		dot += g.advance
		prev = r
	}
	return dot, ink
}

// glyph returns the cached rendering of r. Faces may reuse their mask buffer
// between calls, so the mask is copied.
func (p *Pipeline) glyph(r rune) *glyph {
	return p.glyphs.GetOrCreate(r, func() *glyph {
		dr, mask, mp, advance, _ := p.face.Glyph(fixed.Point26_6{}, r)
		g := &glyph{bounds: dr, advance: advance}
		if mask != nil && !dr.Empty() {
			g.mask = image.NewAlpha(dr)
			draw.Draw(g.mask, dr, mask, mp, draw.Src)
		}
		return g
	})
}
