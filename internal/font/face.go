package font

import (
	"fmt"
	"image"
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Printable ASCII, the range every built-in font covers.
const (
	FirstASCII rune = 0x20
	LastASCII  rune = 0x7E
)

// FromFace rasterizes runes first..last of face into a 1-bit Font. Mask
// pixels at half coverage or more are set.
func FromFace(name string, face xfont.Face, first, last rune) (*Font, error) {
	if last < first {
		return nil, fmt.Errorf("font: empty range %q..%q", first, last)
	}
	f := &Font{
		Name:     name,
		First:    first,
		Last:     last,
		YAdvance: face.Metrics().Height.Ceil(),
	}
	if f.YAdvance <= 0 {
		return nil, fmt.Errorf("font: %s has no line height", name)
	}
	for r := first; r <= last; r++ {
		dr, mask, mp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		g := Glyph{Offset: len(f.Bitmap), XAdvance: adv.Round()}
		if ok && mask != nil && !dr.Empty() {
			g.Width, g.Height = dr.Dx(), dr.Dy()
			g.XOffset, g.YOffset = dr.Min.X, dr.Min.Y
			f.Bitmap = appendBits(f.Bitmap, mask, mp, g.Width, g.Height)
		}
		f.Glyphs = append(f.Glyphs, g)
	}
	return f, nil
}

func appendBits(dst []byte, mask image.Image, mp image.Point, w, h int) []byte {
	var cur byte
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := mask.At(mp.X+x, mp.Y+y).RGBA()
			cur <<= 1
			if a >= 0x8000 {
				cur |= 1
			}
			n++
			if n == 8 {
				dst = append(dst, cur)
				cur, n = 0, 0
			}
		}
	}
	if n > 0 {
		dst = append(dst, cur<<uint(8-n))
	}
	return dst
}

// Basic returns the 7×13 fixed face from x/image as a baseline font.
func Basic() *Font {
	return basicOnce()
}

var basicOnce = sync.OnceValue(func() *Font {
	f, err := FromFace("basic7x13", basicfont.Face7x13, FirstASCII, LastASCII)
	if err != nil {
		panic(err)
	}
	return f
})

var (
	regularTTF = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(goregular.TTF) })
	boldTTF    = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(gobold.TTF) })
)

// GoRegular rasterizes the Go Regular typeface at size points (72 dpi).
func GoRegular(size float64) (*Font, error) {
	return fromTTF(regularTTF, fmt.Sprintf("goregular%g", size), size)
}

// GoBold rasterizes the Go Bold typeface at size points (72 dpi).
func GoBold(size float64) (*Font, error) {
	return fromTTF(boldTTF, fmt.Sprintf("gobold%g", size), size)
}

func fromTTF(load func() (*opentype.Font, error), name string, size float64) (*Font, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font: size %g must be positive", size)
	}
	ttf, err := load()
	if err != nil {
		return nil, fmt.Errorf("font: parse %s: %w", name, err)
	}
	face, err := opentype.NewFace(ttf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font: face %s: %w", name, err)
	}
	defer face.Close()
	return FromFace(name, face, FirstASCII, LastASCII)
}
