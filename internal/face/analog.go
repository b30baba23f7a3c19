package face

import (
	"strconv"
	"time"

	"memlcd/internal/font"
	"memlcd/internal/gfx"
	"memlcd/internal/palette"
)

// Analog is a round dial with minute ticks, four numerals and three hands.
// Geometry is laid out for a 176 pixel panel and scales with the shorter
// logical side.
type Analog struct {
	Theme Theme
	Label string
}

// NewAnalog returns an analog face labelled "MEM-LCD".
func NewAnalog(theme Theme) *Analog {
	return &Analog{Theme: theme, Label: "MEM-LCD"}
}

// Name implements Face.
func (a *Analog) Name() string { return "analog" }

type dial struct {
	cx, cy  int
	radius  int
	ticks   int
	numeral int
}

func dialFor(g *gfx.Context) dial {
	r := min(g.Width(), g.Height())/2 - 6
	return dial{
		cx:      g.Width() / 2,
		cy:      g.Height() / 2,
		radius:  r,
		ticks:   r - 4,
		numeral: r - 22,
	}
}

// scale maps a length designed against the 82 pixel dial radius.
func (d dial) scale(v int) int { return d.radius * v / 82 }

// Draw implements Face.
func (a *Analog) Draw(g *gfx.Context, t time.Time) error {
	a.DrawDial(g)
	a.DrawHands(g, t.Hour(), t.Minute(), t.Second())
	return nil
}

// DrawDial paints everything that does not move.
func (a *Analog) DrawDial(g *gfx.Context) {
	d := dialFor(g)
	th := a.Theme

	g.FillScreen(th.Background)
	g.FillCircle(d.cx, d.cy, d.radius, th.Dial)
	g.DrawCircle(d.cx, d.cy, d.radius, th.Ring)
	g.DrawCircle(d.cx, d.cy, d.radius-3, th.Ring)

	for i := 0; i < 60; i++ {
		deg := float64(i) * 6
		inner, thick, c := d.ticks-5, 1, th.TickMinute
		if i%5 == 0 {
			inner, thick, c = d.ticks-10, 3, th.TickHour
		}
		x0, y0 := polar(d.cx, d.cy, float64(inner), deg)
		x1, y1 := polar(d.cx, d.cy, float64(d.ticks), deg)
		g.StrokeLine(x0, y0, x1, y1, thick, c)
	}

	g.SetFont(font.Classic)
	g.SetTextWrap(false)
	g.SetTextColor(th.Numeral)
	g.SetTextSize(2, 2)
	for _, n := range []int{12, 3, 6, 9} {
		x, y := polar(d.cx, d.cy, float64(d.numeral), float64(n%12)*30)
		s := strconv.Itoa(n)
		g.SetCursor(x-6*2*len(s)/2, y-8*2/2)
		g.WriteString(s)
	}
	g.SetTextSize(1, 1)

	if a.Label != "" {
		g.SetTextColor(th.Accent)
		g.SetCursor(d.cx-20, d.cy+d.scale(36))
		g.WriteString(a.Label)
	}
	g.SetTextWrap(true)
}

// DrawHands paints the hour, minute and second hands and the hub.
func (a *Analog) DrawHands(g *gfx.Context, hour, minute, second int) {
	d := dialFor(g)
	th := a.Theme

	hourDeg := float64(hour%12)*30 + float64(minute)*0.5
	minDeg := float64(minute)*6 + float64(second)*0.1
	secDeg := float64(second) * 6

	drawHand(g, d, hourDeg, d.scale(48), 7, th.HandHour)
	drawHand(g, d, minDeg, d.scale(66), 5, th.HandMinute)
	drawHand(g, d, secDeg, d.scale(73), 2, th.HandSecond)

	g.FillCircle(d.cx, d.cy, 4, th.Hub)
	g.DrawCircle(d.cx, d.cy, 5, th.TickHour)
}

// drawHand strokes from the centre to the tip, rounds the tip and adds a
// short counterweight tail.
func drawHand(g *gfx.Context, d dial, deg float64, length, thick int, c palette.RGB565) {
	tx, ty := polar(d.cx, d.cy, float64(length), deg)
	g.StrokeLine(d.cx, d.cy, tx, ty, thick, c)
	g.FillCircle(tx, ty, thick/2+1, c)

	bx, by := polar(d.cx, d.cy, float64(length)*0.18, deg+180)
	g.StrokeLine(d.cx, d.cy, bx, by, max(thick-1, 1), c)
}
