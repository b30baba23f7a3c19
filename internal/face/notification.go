package face

import (
	"fmt"
	"strings"

	"memlcd/internal/font"
	"memlcd/internal/gfx"
	"memlcd/internal/palette"
)

// Notification is a message relayed from a phone.
type Notification struct {
	AppID   string `json:"app_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// NotificationView draws notifications as three stacked panels separated
// by black bars.
type NotificationView struct {
	header *font.Font
	body   *font.Font
}

// NewNotificationView rasterizes the fonts the view needs.
func NewNotificationView() (*NotificationView, error) {
	header, err := font.GoBold(14)
	if err != nil {
		return nil, fmt.Errorf("face: load header font: %w", err)
	}
	body, err := font.GoRegular(12)
	if err != nil {
		return nil, fmt.Errorf("face: load body font: %w", err)
	}
	return &NotificationView{header: header, body: body}, nil
}

// Draw renders n. It does not flush.
func (v *NotificationView) Draw(g *gfx.Context, n Notification) {
	ink := palette.Black.RGB565()
	w, h := g.Width(), g.Height()

	g.FillScreen(palette.White.RGB565())
	g.FillRect(0, 40, w, 3, ink)
	g.FillRect(0, 90, w, 3, ink)

	const margin = 5
	if lines := wrapText(v.header, n.AppID, w-2*margin); len(lines) > 0 {
		g.DrawText(margin, 30, lines[0], v.header, ink)
	}
	if lines := wrapText(v.header, n.Title, w-2*margin); len(lines) > 0 {
		g.DrawText(margin, 60, lines[0], v.header, ink)
		if len(lines) > 1 {
			g.DrawText(margin, 60+v.header.YAdvance, lines[1], v.header, ink)
		}
	}
	y := 93 + v.body.YAdvance
	for _, l := range wrapText(v.body, n.Message, w-2*margin) {
		if y > h {
			break
		}
		g.DrawText(margin, y, l, v.body, ink)
		y += v.body.YAdvance
	}
}

// wrapText breaks s into lines no wider than width, splitting at spaces
// and hard-breaking words that do not fit on a line of their own.
func wrapText(f *font.Font, s string, width int) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r", ""), "\n") {
		var line string
		for _, word := range strings.Fields(para) {
			cand := word
			if line != "" {
				cand = line + " " + word
			}
			if f.Width(cand) <= width {
				line = cand
				continue
			}
			if line != "" {
				out = append(out, line)
			}
			line = ""
			for f.Width(word) > width {
				cut := fitPrefix(f, word, width)
				out = append(out, word[:cut])
				word = word[cut:]
			}
			line = word
		}
		if line != "" || para == "" {
			out = append(out, line)
		}
	}
	return out
}

// fitPrefix returns the byte length of the longest prefix of s that fits,
// never less than one rune.
func fitPrefix(f *font.Font, s string, width int) int {
	end := 0
	for i := range s {
		if i == 0 {
			continue
		}
		if end > 0 && f.Width(s[:i]) > width {
			return end
		}
		end = i
	}
	if end > 0 && f.Width(s) > width {
		return end
	}
	return len(s)
}
