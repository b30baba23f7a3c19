// Package preview renders frame buffer contents off the panel: as colored
// half-block text for terminals and as PNG for browsers.
package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"memlcd/internal/palette"
)

const halfBlock = "▀"

// Terminal draws img two pixel rows per text line: the upper pixel is the
// foreground of an upper half block and the lower pixel its background.
// The result is framed with title. r may be nil for the default renderer.
func Terminal(img image.Image, title string, r *lipgloss.Renderer) string {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	b := img.Bounds()
	styles := make(map[[2]palette.RGB565]lipgloss.Style)

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top := palette.Model.Convert(img.At(x, y)).(palette.RGB565)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = palette.Model.Convert(img.At(x, y+1)).(palette.RGB565)
			}
			key := [2]palette.RGB565{top, bottom}
			st, ok := styles[key]
			if !ok {
				st = r.NewStyle().Foreground(hex(top)).Background(hex(bottom))
				styles[key] = st
			}
			sb.WriteString(st.Render(halfBlock))
		}
	}

	frame := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6B7280"))
	out := frame.Render(sb.String())
	if title == "" {
		return out
	}
	heading := r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Render(title)
	return lipgloss.JoinVertical(lipgloss.Left, heading, out)
}

func hex(c palette.RGB565) lipgloss.Color {
	r, g, b := c.RGB8()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, b))
}

// WritePNG encodes img enlarged by an integer scale with nearest-neighbour
// sampling. Scales below 1 are treated as 1.
func WritePNG(w io.Writer, img image.Image, scale int) error {
	scale = max(scale, 1)
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("preview: encode png: %w", err)
	}
	return nil
}
