// Package gfx is a small raster engine for fixed-size panels.
//
// A Context owns rotation, clipping and text state and renders lines,
// rectangles, circles, triangles, bitmaps and text through a single
// PixelWriter. Everything is clipped in logical (rotated) space before the
// coordinate is mapped onto the native panel, so the writer only ever sees
// in-bounds native coordinates.
//
// Contexts are not safe for concurrent use.
package gfx

import (
	"memlcd/internal/font"
	"memlcd/internal/palette"
)

// PixelWriter stores one native pixel. It is the only way a Context
// mutates anything.
type PixelWriter interface {
	WritePixel(x, y int, c palette.RGB565)
}

// Flusher is implemented by writers that buffer pixels and can push them
// to hardware.
type Flusher interface {
	Flush() error
}

// Context is the drawing state for one panel.
type Context struct {
	dst     PixelWriter
	nativeW int
	nativeH int

	rotation int
	width    int
	height   int

	cursorX, cursorY int
	fg, bg           palette.RGB565
	sizeX, sizeY     int
	wrap             bool
	font             *font.Font
}

// New returns a context for a nativeW×nativeH panel behind dst. Text
// defaults to black, transparent background, size 1, wrapping on and the
// classic 6×8 font.
func New(dst PixelWriter, nativeW, nativeH int) *Context {
	return &Context{
		dst:     dst,
		nativeW: nativeW,
		nativeH: nativeH,
		width:   nativeW,
		height:  nativeH,
		fg:      palette.Black.RGB565(),
		bg:      palette.Black.RGB565(),
		sizeX:   1,
		sizeY:   1,
		wrap:    true,
		font:    font.Classic,
	}
}

// Width is the logical width under the current rotation, 0 for a nil
// context.
func (g *Context) Width() int {
	if g == nil {
		return 0
	}
	return g.width
}

// Height is the logical height under the current rotation.
func (g *Context) Height() int {
	if g == nil {
		return 0
	}
	return g.height
}

// Rotation returns the quarter turns applied, 0..3.
func (g *Context) Rotation() int {
	if g == nil {
		return 0
	}
	return g.rotation
}

// SetRotation sets the rotation in quarter turns clockwise. Only the low
// two bits are used.
func (g *Context) SetRotation(r int) {
	if g == nil {
		return
	}
	g.rotation = r & 3
	if g.rotation&1 == 1 {
		g.width, g.height = g.nativeH, g.nativeW
	} else {
		g.width, g.height = g.nativeW, g.nativeH
	}
}

// Display pushes buffered pixels to the panel when the writer supports it.
func (g *Context) Display() error {
	if g == nil {
		return nil
	}
	if f, ok := g.dst.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// DrawPixel plots one logical pixel. Out-of-range coordinates are ignored.
func (g *Context) DrawPixel(x, y int, c palette.RGB565) {
	if g == nil || g.dst == nil || x < 0 || y < 0 || x >= g.width || y >= g.height {
		return
	}
	px, py := Rotate(g.rotation, x, y, g.nativeW, g.nativeH)
	g.dst.WritePixel(px, py, c)
}
