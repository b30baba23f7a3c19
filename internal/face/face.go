// Package face composes watch faces and notification screens on top of a
// gfx.Context.
package face

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"memlcd/internal/gfx"
	"memlcd/internal/palette"
)

// Face renders a complete screen for an instant. It does not flush.
type Face interface {
	Name() string
	Draw(g *gfx.Context, t time.Time) error
}

// Theme holds the colors a face draws with. Values are truecolor; the
// panel quantizes them on write.
type Theme struct {
	Background palette.RGB565
	Dial       palette.RGB565
	Ring       palette.RGB565
	TickMinute palette.RGB565
	TickHour   palette.RGB565
	Numeral    palette.RGB565
	HandHour   palette.RGB565
	HandMinute palette.RGB565
	HandSecond palette.RGB565
	Hub        palette.RGB565
	Accent     palette.RGB565
}

// DefaultTheme is the dark night theme.
func DefaultTheme() Theme {
	return Theme{
		Background: palette.RGB(6, 10, 20),
		Dial:       palette.RGB(10, 16, 30),
		Ring:       palette.RGB(180, 180, 180),
		TickMinute: palette.RGB(120, 120, 130),
		TickHour:   palette.RGB(240, 240, 240),
		Numeral:    palette.RGB(240, 240, 240),
		HandHour:   palette.RGB(240, 240, 240),
		HandMinute: palette.RGB(180, 220, 255),
		HandSecond: palette.RGB(230, 40, 40),
		Hub:        palette.RGB(255, 255, 255),
		Accent:     palette.RGB(0, 220, 220),
	}
}

// LightTheme is dark ink on a white dial.
func LightTheme() Theme {
	return Theme{
		Background: palette.White.RGB565(),
		Dial:       palette.White.RGB565(),
		Ring:       palette.Black.RGB565(),
		TickMinute: palette.Gray.RGB565(),
		TickHour:   palette.Black.RGB565(),
		Numeral:    palette.Black.RGB565(),
		HandHour:   palette.Black.RGB565(),
		HandMinute: palette.Blue.RGB565(),
		HandSecond: palette.Red.RGB565(),
		Hub:        palette.Black.RGB565(),
		Accent:     palette.Blue.RGB565(),
	}
}

var themes = map[string]func() Theme{
	"dark":  DefaultTheme,
	"light": LightTheme,
}

// ThemeByName returns a built-in theme. The empty name is "dark".
func ThemeByName(name string) (Theme, error) {
	if name == "" {
		name = "dark"
	}
	fn, ok := themes[strings.ToLower(name)]
	if !ok {
		return Theme{}, fmt.Errorf("face: unknown theme %q (have %s)", name, strings.Join(ThemeNames(), ", "))
	}
	return fn(), nil
}

// ThemeNames lists the built-in themes.
func ThemeNames() []string {
	out := make([]string, 0, len(themes))
	for k := range themes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Names lists the faces New accepts.
var Names = []string{"analog", "digital"}

// New builds the named face.
func New(name string, theme Theme) (Face, error) {
	switch strings.ToLower(name) {
	case "", "analog":
		return NewAnalog(theme), nil
	case "digital":
		return NewDigital(theme)
	default:
		return nil, fmt.Errorf("face: unknown face %q", name)
	}
}

// polar returns the point r pixels from (cx, cy) at deg degrees clockwise
// from 12 o'clock.
func polar(cx, cy int, r, deg float64) (int, int) {
	a := (deg - 90) * math.Pi / 180
	return cx + int(math.Round(r*math.Cos(a))), cy + int(math.Round(r*math.Sin(a)))
}
