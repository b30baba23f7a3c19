package preview

import (
	"bytes"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"memlcd/internal/framebuf"
	"memlcd/internal/palette"
)

func TestTerminal(t *testing.T) {
	tests := []struct {
		w, h  int
		lines int
	}{
		{4, 4, 2},
		{6, 3, 2},
		{2, 1, 1},
	}
	r := lipgloss.NewRenderer(io.Discard)
	for _, tt := range tests {
		fb, err := framebuf.New(tt.w, tt.h)
		if err != nil {
			t.Fatal(err)
		}
		out := Terminal(fb, "", r)
		if got := strings.Count(out, halfBlock); got != tt.w*tt.lines {
			t.Errorf("%dx%d: %d half blocks, want %d", tt.w, tt.h, got, tt.w*tt.lines)
		}
		// Two border rows plus the pixel rows.
		if got := strings.Count(out, "\n") + 1; got != tt.lines+2 {
			t.Errorf("%dx%d: %d lines, want %d", tt.w, tt.h, got, tt.lines+2)
		}
	}
}

func TestTerminalTitle(t *testing.T) {
	fb, _ := framebuf.New(2, 2)
	out := Terminal(fb, "panel", lipgloss.NewRenderer(io.Discard))
	if !strings.HasPrefix(out, "panel") {
		t.Errorf("title missing: %q", out)
	}
}

func TestWritePNG(t *testing.T) {
	fb, _ := framebuf.New(4, 2)
	fb.Fill(palette.White)
	fb.SetPixel(1, 1, palette.Red)

	var buf bytes.Buffer
	if err := WritePNG(&buf, fb, 3); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 6 {
		t.Fatalf("bounds = %v, want 12x6", b)
	}
	r, g, b, _ := img.At(4, 4).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("scaled red pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("white pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}
