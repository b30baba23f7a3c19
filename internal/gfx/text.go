package gfx

import (
	"fmt"
	"unicode/utf8"

	"memlcd/internal/font"
	"memlcd/internal/palette"
)

// SetCursor moves the text cursor. For baseline fonts the cursor is on the
// baseline; for Classic it is the top-left corner of the next cell.
func (g *Context) SetCursor(x, y int) {
	if g == nil {
		return
	}
	g.cursorX, g.cursorY = x, y
}

// Cursor returns the text cursor.
func (g *Context) Cursor() (x, y int) {
	if g == nil {
		return 0, 0
	}
	return g.cursorX, g.cursorY
}

// SetTextColor sets the foreground and makes the background transparent.
func (g *Context) SetTextColor(fg palette.RGB565) {
	if g == nil {
		return
	}
	g.fg, g.bg = fg, fg
}

// SetTextColors sets foreground and background. Equal colors mean a
// transparent background.
func (g *Context) SetTextColors(fg, bg palette.RGB565) {
	if g == nil {
		return
	}
	g.fg, g.bg = fg, bg
}

// SetTextSize sets the integer scale factors. Values below 1 become 1.
func (g *Context) SetTextSize(sx, sy int) {
	if g == nil {
		return
	}
	g.sizeX, g.sizeY = max(sx, 1), max(sy, 1)
}

// SetTextWrap enables wrapping at the right edge.
func (g *Context) SetTextWrap(wrap bool) {
	if g == nil {
		return
	}
	g.wrap = wrap
}

// SetFont selects the text font. nil restores Classic.
func (g *Context) SetFont(f *font.Font) {
	if g == nil {
		return
	}
	if f == nil {
		f = font.Classic
	}
	g.font = f
}

// Font returns the current text font.
func (g *Context) Font() *font.Font {
	if g == nil {
		return nil
	}
	return g.font
}

// WriteRune renders r at the cursor and advances it. '\n' starts a new
// line, '\r' is ignored and runes the font lacks are drawn as '?'.
func (g *Context) WriteRune(r rune) {
	if g == nil {
		return
	}
	f := g.font
	switch r {
	case '\n':
		g.cursorX = 0
		g.cursorY += f.YAdvance * g.sizeY
		return
	case '\r':
		return
	}
	gl, ok := f.Glyph(r)
	if !ok {
		if gl, ok = f.Glyph('?'); !ok {
			return
		}
	}
	if g.wrap && g.cursorX+gl.XAdvance*g.sizeX > g.width {
		g.cursorX = 0
		g.cursorY += f.YAdvance * g.sizeY
	}
	g.drawGlyph(g.cursorX, g.cursorY, f, gl, g.sizeX, g.sizeY, g.fg, g.bg, g.bg != g.fg)
	g.cursorX += gl.XAdvance * g.sizeX
}

// Write renders p as UTF-8 text at the cursor. It never fails.
func (g *Context) Write(p []byte) (int, error) {
	for i := 0; i < len(p); {
		r, n := utf8.DecodeRune(p[i:])
		g.WriteRune(r)
		i += n
	}
	return len(p), nil
}

// WriteString is Write for strings.
func (g *Context) WriteString(s string) (int, error) {
	for _, r := range s {
		g.WriteRune(r)
	}
	return len(s), nil
}

// Printf formats at the cursor.
func (g *Context) Printf(format string, args ...any) {
	fmt.Fprintf(g, format, args...)
}

// DrawText draws s with f starting at origin (x, y), ignoring the cursor,
// scale and background. '\n' returns to x one line lower.
func (g *Context) DrawText(x, y int, s string, f *font.Font, c palette.RGB565) {
	if g == nil || f == nil {
		return
	}
	cx := x
	for _, r := range s {
		switch r {
		case '\r':
			continue
		case '\n':
			y += f.YAdvance
			cx = x
			continue
		}
		gl, ok := f.Glyph(r)
		if !ok {
			continue
		}
		g.drawGlyph(cx, y, f, gl, 1, 1, c, c, false)
		cx += gl.XAdvance
	}
}

// DrawTextCentered draws s with its advance width centred on cx.
func (g *Context) DrawTextCentered(cx, y int, s string, f *font.Font, c palette.RGB565) {
	if f == nil {
		return
	}
	g.DrawText(cx-f.Width(s)/2, y, s, f, c)
}

// TextWidth returns the advance width of s in f.
func TextWidth(f *font.Font, s string) int {
	if f == nil {
		return 0
	}
	return f.Width(s)
}

func (g *Context) drawGlyph(x, y int, f *font.Font, gl font.Glyph, sx, sy int, fg, bg palette.RGB565, opaque bool) {
	for yy := 0; yy < gl.Height; yy++ {
		for xx := 0; xx < gl.Width; xx++ {
			var c palette.RGB565
			switch {
			case f.Set(gl, xx, yy):
				c = fg
			case opaque:
				c = bg
			default:
				continue
			}
			px := x + (gl.XOffset+xx)*sx
			py := y + (gl.YOffset+yy)*sy
			if sx == 1 && sy == 1 {
				g.DrawPixel(px, py, c)
			} else {
				g.FillRect(px, py, sx, sy, c)
			}
		}
	}
}
