package convert

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"

	"memlcd/internal/framebuf"
	"memlcd/internal/palette"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("convert: empty image")

// Decode reads any registered format: PNG, JPEG, GIF, BMP, TIFF or WebP.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("convert: decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, format, ErrEmptyImage
	}
	return img, format, nil
}

// Fit scales src to fit inside w×h keeping its aspect ratio and centres
// it on a transparent canvas of exactly w×h.
func Fit(src image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return dst
	}
	sw, sh := sb.Dx(), sb.Dy()
	// Compare w/sw with h/sh without floats.
	dw, dh := w, sh*w/sw
	if sh*w > sw*h {
		dw, dh = sw*h/sh, h
	}
	dw, dh = max(dw, 1), max(dh, 1)
	off := image.Pt((w-dw)/2, (h-dh)/2)
	draw.CatmullRom.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(dw, dh))}, src, sb, draw.Src, nil)
	return dst
}

// Pack quantizes src into the frame buffer's draw window. The source is
// centred on the window and cropped or padded as needed; padding and
// pixels with alpha below one half are set to bg.
func Pack(src image.Image, fb *framebuf.Buffer, bg palette.Index) error {
	sb := src.Bounds()
	if sb.Empty() {
		return ErrEmptyImage
	}
	win := fb.Window()
	// Offset from window coordinates to source coordinates.
	ox := sb.Min.X + (sb.Dx()-win.W)/2 - win.X
	oy := sb.Min.Y + (sb.Dy()-win.H)/2 - win.Y

	nrgba, fast := src.(*image.NRGBA)
	for y := win.Y; y < win.Y+win.H; y++ {
		sy := y + oy
		for x := win.X; x < win.X+win.W; x++ {
			sx := x + ox
			if sx < sb.Min.X || sx >= sb.Max.X || sy < sb.Min.Y || sy >= sb.Max.Y {
				fb.SetPixel(x, y, bg)
				continue
			}
			var c color.NRGBA
			if fast {
				i := nrgba.PixOffset(sx, sy)
				c = color.NRGBA{R: nrgba.Pix[i], G: nrgba.Pix[i+1], B: nrgba.Pix[i+2], A: nrgba.Pix[i+3]}
			} else {
				c = color.NRGBAModel.Convert(src.At(sx, sy)).(color.NRGBA)
			}
			if c.A < 128 {
				fb.SetPixel(x, y, bg)
				continue
			}
			fb.SetPixel(x, y, palette.Quantize(palette.RGB(c.R, c.G, c.B)))
		}
	}
	return nil
}
