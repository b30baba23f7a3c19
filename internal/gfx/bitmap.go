package gfx

import "memlcd/internal/palette"

// DrawBitmap plots a 1-bit w×h bitmap whose rows are (w+7)/8 bytes, MSB
// first. Clear bits are left untouched. Bitmaps shorter than the declared
// size are ignored.
func (g *Context) DrawBitmap(x, y int, bitmap []byte, w, h int, fg palette.RGB565) {
	g.drawBitmap(x, y, bitmap, w, h, fg, 0, false)
}

// DrawBitmapBG is DrawBitmap with clear bits painted bg.
func (g *Context) DrawBitmapBG(x, y int, bitmap []byte, w, h int, fg, bg palette.RGB565) {
	g.drawBitmap(x, y, bitmap, w, h, fg, bg, true)
}

func (g *Context) drawBitmap(x, y int, bitmap []byte, w, h int, fg, bg palette.RGB565, opaque bool) {
	if g == nil || w <= 0 || h <= 0 {
		return
	}
	stride := (w + 7) / 8
	if len(bitmap) < stride*h {
		return
	}
	for j := 0; j < h; j++ {
		row := bitmap[j*stride : (j+1)*stride]
		for i := 0; i < w; i++ {
			if row[i>>3]&(0x80>>uint(i&7)) != 0 {
				g.DrawPixel(x+i, y+j, fg)
			} else if opaque {
				g.DrawPixel(x+i, y+j, bg)
			}
		}
	}
}
