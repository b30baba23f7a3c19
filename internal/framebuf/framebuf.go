// Package framebuf holds the 4-bit indexed frame memory of a memory LCD.
//
// Pixels are packed two per byte. The even column of a pair lives in the
// high nibble, the odd column in the low nibble:
//
//	Columns: 0  1  2  3
//	Indices: 8  2  14 14
//	Bytes:   0x82  0xEE
//
// Rows are laid out relative to the active draw window with a stride of
// window width / 2 bytes, which is the order the refresh path streams them.
package framebuf

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"memlcd/internal/palette"
)

// ErrInvalidWindow is returned when a window does not fit the panel or
// would split a nibble pair.
var ErrInvalidWindow = errors.New("framebuf: invalid window")

// Window is the rectangular region that writes and refreshes apply to.
type Window struct {
	X, Y, W, H int
}

// Rect returns the window as an image.Rectangle.
func (w Window) Rect() image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.W, w.Y+w.H)
}

// Contains reports whether (x, y) lies inside the window.
func (w Window) Contains(x, y int) bool {
	return x >= w.X && x < w.X+w.W && y >= w.Y && y < w.Y+w.H
}

// Buffer is a nibble-packed frame buffer sized to the native panel.
// The backing memory is allocated once by New.
type Buffer struct {
	pix    []byte
	width  int
	height int
	win    Window
}

// New allocates a buffer for a width×height panel. Width must be even.
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("framebuf: size %dx%d must be positive", width, height)
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("framebuf: width %d must be even", width)
	}
	return &Buffer{
		pix:    make([]byte, width/2*height),
		width:  width,
		height: height,
		win:    Window{W: width, H: height},
	}, nil
}

// Width returns the native panel width.
func (b *Buffer) Width() int { return b.width }

// Height returns the native panel height.
func (b *Buffer) Height() int { return b.height }

// Window returns the active draw window.
func (b *Buffer) Window() Window { return b.win }

// SetWindow replaces the draw window. X and W must be even so that pixel
// pairs keep their nibble positions. The packed contents are not moved;
// callers redraw after changing the window.
func (b *Buffer) SetWindow(w Window) error {
	switch {
	case w.W <= 0 || w.H <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidWindow, w.W, w.H)
	case w.X < 0 || w.Y < 0 || w.X+w.W > b.width || w.Y+w.H > b.height:
		return fmt.Errorf("%w: %+v exceeds %dx%d panel", ErrInvalidWindow, w, b.width, b.height)
	case w.X%2 != 0 || w.W%2 != 0:
		return fmt.Errorf("%w: x and width must be even, got x=%d w=%d", ErrInvalidWindow, w.X, w.W)
	}
	b.win = w
	return nil
}

// RowBytes returns the packed length of one window row.
func (b *Buffer) RowBytes() int { return b.win.W / 2 }

// SetPixel stores index c at panel coordinate (x, y). Pixels outside the
// window are dropped. The other nibble of the byte is preserved.
func (b *Buffer) SetPixel(x, y int, c palette.Index) {
	if !b.win.Contains(x, y) {
		return
	}
	o, shift := b.pixOffset(x, y)
	b.pix[o] = (b.pix[o] &^ (0x0F << shift)) | (byte(c&0x0F) << shift)
}

// WritePixel quantizes c and stores it, making a bare Buffer usable as an
// off-screen canvas.
func (b *Buffer) WritePixel(x, y int, c palette.RGB565) {
	b.SetPixel(x, y, palette.Quantize(c))
}

// IndexAt returns the stored index at (x, y), or 0 outside the window.
func (b *Buffer) IndexAt(x, y int) palette.Index {
	if !b.win.Contains(x, y) {
		return 0
	}
	o, shift := b.pixOffset(x, y)
	return palette.Index((b.pix[o] >> shift) & 0x0F)
}

// Fill writes c into both nibbles of every byte of the buffer.
func (b *Buffer) Fill(c palette.Index) {
	v := Pair(c)
	for i := range b.pix {
		b.pix[i] = v
	}
}

// Row returns the packed bytes of window row i. The slice aliases the
// buffer.
func (b *Buffer) Row(i int) []byte {
	n := b.RowBytes()
	return b.pix[n*i : n*(i+1)]
}

// Pix exposes the backing memory.
func (b *Buffer) Pix() []byte { return b.pix }

// Pair packs c into both nibbles of a byte.
func Pair(c palette.Index) byte {
	n := byte(c & 0x0F)
	return n<<4 | n
}

func (b *Buffer) pixOffset(x, y int) (offset int, shift uint) {
	offset = b.RowBytes()*(y-b.win.Y) + (x-b.win.X)/2
	shift = uint(4 * (1 - (x & 1)))
	return
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model { return palette.Model }

// Bounds implements image.Image. Only the window is backed by memory.
func (b *Buffer) Bounds() image.Rectangle { return b.win.Rect() }

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	return b.IndexAt(x, y).RGB565()
}
