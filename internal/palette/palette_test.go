package palette

import (
	"image/color"
	"testing"
)

func TestQuantizeEntriesRoundTrip(t *testing.T) {
	for i, e := range Entries {
		if got := Quantize(e); got != Index(i) {
			t.Errorf("Quantize(0x%04X) = %d, want %d", uint16(e), got, i)
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		name string
		in   RGB565
		want Index
	}{
		{"pure red", RGB(255, 0, 0), Red},
		{"pure blue", RGB(0, 0, 255), Blue},
		{"near black", RGB(10, 10, 10), Black},
		{"near white", RGB(250, 250, 250), White},
		{"mid gray", RGB(128, 128, 128), Gray},
		{"light gray", RGB(200, 200, 200), LightGray},
		{"yellowish", RGB(250, 240, 10), Yellow},
	}
	for _, tc := range tests {
		if got := Quantize(tc.in); got != tc.want {
			t.Errorf("%s: Quantize(0x%04X) = %v, want %v", tc.name, uint16(tc.in), got, tc.want)
		}
	}
}

func TestRGBPacking(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    RGB565
	}{
		{0, 0, 0, 0x0000},
		{255, 255, 255, 0xFFFF},
		{255, 0, 0, 0xF800},
		{0, 255, 0, 0x07E0},
		{0, 0, 255, 0x001F},
		{0x80, 0x80, 0x80, 0x8410},
	}
	for _, tc := range tests {
		if got := RGB(tc.r, tc.g, tc.b); got != tc.want {
			t.Errorf("RGB(%d,%d,%d) = 0x%04X, want 0x%04X", tc.r, tc.g, tc.b, uint16(got), uint16(tc.want))
		}
	}
}

func TestRGB8Expansion(t *testing.T) {
	r, g, b := RGB565(0xFFFF).RGB8()
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("white RGB8 = (%d,%d,%d), want (255,255,255)", r, g, b)
	}
	r, g, b = RGB565(0x0000).RGB8()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("black RGB8 = (%d,%d,%d), want (0,0,0)", r, g, b)
	}
	// 16/31 -> (16*255+15)/31 = 132
	r, _, _ = RGB565(0x8000).RGB8()
	if r != 132 {
		t.Errorf("red 16/31 expands to %d, want 132", r)
	}
}

func TestModelConvert(t *testing.T) {
	got := Model.Convert(color.RGBA{R: 255, A: 255}).(RGB565)
	if got != 0xF800 {
		t.Errorf("Model.Convert(red) = 0x%04X, want 0xF800", uint16(got))
	}
}

func TestLookup(t *testing.T) {
	for i := range Entries {
		idx := Index(i)
		got, ok := Lookup(idx.String())
		if !ok || got != idx {
			t.Errorf("Lookup(%q) = %d,%v, want %d,true", idx.String(), got, ok, idx)
		}
	}
	if _, ok := Lookup("chartreuse"); ok {
		t.Error("Lookup(chartreuse) succeeded, want failure")
	}
}
