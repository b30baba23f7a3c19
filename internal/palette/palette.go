// Package palette maps 16-bit RGB565 truecolor values onto the 16 fixed
// colors a 4-bit memory LCD can show.
package palette

import "image/color"

// RGB565 is a packed 16-bit color: 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// Index is a 4-bit palette slot. Only the low nibble is meaningful.
type Index uint8

// Palette slots in panel order.
const (
	Black Index = iota
	Gray
	Blue
	BrightBlue
	Green
	Lime
	Cyan
	Turquoise
	Red
	Pink
	Magenta
	Violet
	Yellow
	Brown
	White
	LightGray
)

// Entries holds the RGB565 value of every palette slot.
//
// Lime is 0x87E0 rather than a second copy of Green's 0x07E0 so that every
// slot quantizes back to itself.
var Entries = [16]RGB565{
	Black:      0x0000,
	Gray:       0x8410,
	Blue:       0x001F,
	BrightBlue: 0x051F,
	Green:      0x07E0,
	Lime:       0x87E0,
	Cyan:       0x07FF,
	Turquoise:  0x06DF,
	Red:        0xF800,
	Pink:       0xF8B2,
	Magenta:    0xF81F,
	Violet:     0x781F,
	Yellow:     0xFFE0,
	Brown:      0xA145,
	White:      0xFFFF,
	LightGray:  0xC618,
}

var names = [16]string{
	"black", "gray", "blue", "bright-blue", "green", "lime", "cyan", "turquoise",
	"red", "pink", "magenta", "violet", "yellow", "brown", "white", "light-gray",
}

// entries8 caches the 8-bit expansion of Entries.
var entries8 [16][3]int32

func init() {
	for i, e := range Entries {
		r, g, b := e.RGB8()
		entries8[i] = [3]int32{int32(r), int32(g), int32(b)}
	}
}

// RGB packs 8-bit channels into RGB565 by truncating the low bits.
func RGB(r, g, b uint8) RGB565 {
	return RGB565(uint16(r&0xF8)<<8 | uint16(g&0xFC)<<3 | uint16(b>>3))
}

// RGB8 expands the channels of c to 8 bits with rounding.
func (c RGB565) RGB8() (r, g, b uint8) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	return expand(r5, 31), expand(g6, 63), expand(b5, 31)
}

func expand(v, max uint32) uint8 {
	return uint8((v*255 + max/2) / max)
}

// RGBA implements color.Color.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.RGB8()
	r = uint32(r8) * 0x101
	g = uint32(g8) * 0x101
	b = uint32(b8) * 0x101
	return r, g, b, 0xFFFF
}

// Model converts any color to RGB565. Alpha is ignored.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
})

// Quantize returns the palette slot nearest to c by squared Euclidean
// distance in 8-bit RGB. Ties resolve to the lowest slot.
func Quantize(c RGB565) Index {
	r8, g8, b8 := c.RGB8()
	r, g, b := int32(r8), int32(g8), int32(b8)

	best := Index(0)
	bestDist := int32(-1)
	for i, e := range entries8 {
		dr, dg, db := r-e[0], g-e[1], b-e[2]
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best = Index(i)
			bestDist = d
		}
	}
	return best
}

// RGB565 returns the palette value for slot i.
func (i Index) RGB565() RGB565 {
	return Entries[i&0x0F]
}

// RGBA implements color.Color.
func (i Index) RGBA() (r, g, b, a uint32) {
	return i.RGB565().RGBA()
}

func (i Index) String() string {
	return names[i&0x0F]
}

// Lookup returns the slot with the given name ("red", "light-gray", ...).
func Lookup(name string) (Index, bool) {
	for i, n := range names {
		if n == name {
			return Index(i), true
		}
	}
	return 0, false
}
