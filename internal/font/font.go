// Package font holds 1-bit glyph fonts in the Adafruit GFX layout: one
// packed MSB-first bitmap shared by all glyphs plus a per-glyph table of
// size, advance and offset from the drawing origin.
package font

import "image"

// Glyph describes one character.
type Glyph struct {
	// Offset is the index of the glyph's first byte in Font.Bitmap.
	Offset int
	// Width and Height of the glyph bitmap.
	Width, Height int
	// XAdvance moves the cursor after drawing.
	XAdvance int
	// XOffset and YOffset place the bitmap's top-left corner relative to
	// the origin. Baseline fonts have a negative YOffset.
	XOffset, YOffset int
}

// Font is a contiguous range of glyphs.
type Font struct {
	Name     string
	Bitmap   []byte
	Glyphs   []Glyph
	First    rune
	Last     rune
	YAdvance int
}

// Glyph returns the glyph for r.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	if f == nil || r < f.First || r > f.Last {
		return Glyph{}, false
	}
	i := int(r - f.First)
	if i >= len(f.Glyphs) {
		return Glyph{}, false
	}
	return f.Glyphs[i], true
}

// Set reports whether pixel (x, y) of glyph g is on. Bits run MSB first,
// row after row, without per-row padding.
func (f *Font) Set(g Glyph, x, y int) bool {
	i := y*g.Width + x
	o := g.Offset + i>>3
	if o >= len(f.Bitmap) {
		return false
	}
	return f.Bitmap[o]&(0x80>>uint(i&7)) != 0
}

// Width sums the advances of the glyphs in s. Unknown runes count as zero.
func (f *Font) Width(s string) int {
	w := 0
	for _, r := range s {
		if g, ok := f.Glyph(r); ok {
			w += g.XAdvance
		}
	}
	return w
}

// Measure returns the union of the glyph boxes of s drawn on one line from
// the origin.
func (f *Font) Measure(s string) image.Rectangle {
	var box image.Rectangle
	x := 0
	for _, r := range s {
		g, ok := f.Glyph(r)
		if !ok {
			continue
		}
		if g.Width > 0 && g.Height > 0 {
			gb := image.Rect(x+g.XOffset, g.YOffset, x+g.XOffset+g.Width, g.YOffset+g.Height)
			box = box.Union(gb)
		}
		x += g.XAdvance
	}
	return box
}
