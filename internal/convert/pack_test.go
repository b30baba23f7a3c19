package convert

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"memlcd/internal/framebuf"
	"memlcd/internal/palette"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPackQuantizes(t *testing.T) {
	fb, err := framebuf.New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})
	img.Set(2, 0, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	img.Set(3, 0, color.NRGBA{A: 0})
	img.Set(0, 1, color.NRGBA{G: 255, A: 255})

	if err := Pack(img, fb, palette.White); err != nil {
		t.Fatal(err)
	}
	if got := fb.Pix()[0]; got != 0x82 {
		t.Errorf("byte 0 = 0x%02X, want 0x82", got)
	}
	if got := fb.IndexAt(2, 0); got != palette.White {
		t.Errorf("near-white = %v", got)
	}
	if got := fb.IndexAt(3, 0); got != palette.White {
		t.Errorf("transparent = %v, want background", got)
	}
	// Unset NRGBA pixels are fully transparent.
	if got := fb.IndexAt(1, 1); got != palette.White {
		t.Errorf("(1,1) = %v, want background", got)
	}
	if got := fb.IndexAt(0, 1); got != palette.Green {
		t.Errorf("(0,1) = %v, want green", got)
	}
}

func TestPackCentres(t *testing.T) {
	fb, _ := framebuf.New(8, 8)
	// A 2×2 red image lands in the middle with background around it.
	if err := Pack(solid(2, 2, color.RGBA{R: 255, A: 255}), fb, palette.Blue); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := palette.Blue
			if x >= 3 && x < 5 && y >= 3 && y < 5 {
				want = palette.Red
			}
			if got := fb.IndexAt(x, y); got != want {
				t.Errorf("(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}

	// A larger image is centre-cropped.
	big := solid(16, 16, color.RGBA{A: 255})
	big.Set(4, 4, color.RGBA{R: 255, G: 255, A: 255})
	if err := Pack(big, fb, palette.White); err != nil {
		t.Fatal(err)
	}
	if got := fb.IndexAt(0, 0); got != palette.Yellow {
		t.Errorf("crop origin = %v, want yellow", got)
	}
}

func TestPackWindow(t *testing.T) {
	fb, _ := framebuf.New(8, 8)
	if err := fb.SetWindow(framebuf.Window{X: 2, Y: 2, W: 4, H: 4}); err != nil {
		t.Fatal(err)
	}
	if err := Pack(solid(4, 4, color.White), fb, palette.Black); err != nil {
		t.Fatal(err)
	}
	if got := fb.IndexAt(2, 2); got != palette.White {
		t.Errorf("window origin = %v, want white", got)
	}
	if got := fb.Pix()[0]; got != 0xEE {
		t.Errorf("first byte = 0x%02X, want 0xEE", got)
	}
}

func TestPackEmpty(t *testing.T) {
	fb, _ := framebuf.New(2, 2)
	if err := Pack(image.NewNRGBA(image.Rectangle{}), fb, 0); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Pack(empty) = %v, want ErrEmptyImage", err)
	}
}

func TestFit(t *testing.T) {
	dst := Fit(solid(20, 10, color.RGBA{B: 255, A: 255}), 10, 10)
	if dst.Bounds().Dx() != 10 || dst.Bounds().Dy() != 10 {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	// 20×10 scales to 10×5 centred vertically: rows 0..1 stay transparent.
	if a := dst.NRGBAAt(5, 0).A; a != 0 {
		t.Errorf("letterbox alpha = %d, want 0", a)
	}
	if c := dst.NRGBAAt(5, 5); c.B < 200 || c.A < 200 {
		t.Errorf("centre = %+v, want blue", c)
	}
}

func TestDecode(t *testing.T) {
	src := solid(3, 2, color.RGBA{R: 255, A: 255})
	for _, tt := range []struct {
		format string
		enc    func(*bytes.Buffer) error
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
	} {
		var buf bytes.Buffer
		if err := tt.enc(&buf); err != nil {
			t.Fatal(err)
		}
		img, format, err := Decode(&buf)
		if err != nil {
			t.Fatalf("%s: %v", tt.format, err)
		}
		if format != tt.format || img.Bounds().Dx() != 3 {
			t.Errorf("Decode = %s %v", format, img.Bounds())
		}
	}
	if _, _, err := Decode(bytes.NewReader([]byte("nope"))); err == nil {
		t.Error("Decode(garbage) succeeded")
	}
}
