package face

import (
	"fmt"
	"strings"
	"time"

	"memlcd/internal/font"
	"memlcd/internal/gfx"
)

var weekdayLabels = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Digital shows HH:MM in a large bold face with seconds, a weekday strip
// and the date underneath.
type Digital struct {
	Theme Theme
	Brand string

	large  *font.Font
	medium *font.Font
	small  *font.Font
}

// NewDigital rasterizes the fonts the face needs.
func NewDigital(theme Theme) (*Digital, error) {
	large, err := font.GoBold(24)
	if err != nil {
		return nil, fmt.Errorf("face: load time font: %w", err)
	}
	medium, err := font.GoRegular(12)
	if err != nil {
		return nil, fmt.Errorf("face: load seconds font: %w", err)
	}
	small, err := font.GoRegular(9)
	if err != nil {
		return nil, fmt.Errorf("face: load label font: %w", err)
	}
	return &Digital{Theme: theme, Brand: "MEM-LCD", large: large, medium: medium, small: small}, nil
}

// Name implements Face.
func (f *Digital) Name() string { return "digital" }

// Draw implements Face.
func (f *Digital) Draw(g *gfx.Context, t time.Time) error {
	th := f.Theme
	w, h := g.Width(), g.Height()
	cx := w / 2
	fg := th.Numeral

	g.FillScreen(th.Background)
	g.DrawFastHLine(10, 25, w-20, fg)
	if f.Brand != "" {
		g.DrawTextCentered(cx, 20, f.Brand, f.small, fg)
	}

	g.DrawTextCentered(cx, h*90/176, t.Format("15:04"), f.large, fg)
	g.DrawTextCentered(cx, h*115/176, t.Format("05"), f.medium, fg)

	boxY := h * 130 / 176
	g.DrawRect(15, boxY, w-30, 30, fg)
	f.drawWeekdays(g, boxY+4, t.Weekday())
	g.DrawTextCentered(cx, boxY+27, t.Format("02-01"), f.small, fg)

	g.DrawFastHLine(10, h-8, w-20, fg)
	return nil
}

// drawWeekdays writes the Monday-first weekday strip in the classic font
// with today in the accent color.
func (f *Digital) drawWeekdays(g *gfx.Context, y int, today time.Weekday) {
	labels := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		labels = append(labels, weekdayLabels[i%7])
	}
	x := g.Width()/2 - font.Classic.Width(strings.Join(labels, " "))/2
	for i, l := range labels {
		c := f.Theme.TickMinute
		if time.Weekday((i+1)%7) == today {
			c = f.Theme.Accent
		}
		g.DrawText(x, y, l, font.Classic, c)
		x += font.Classic.Width(l + " ")
	}
}
