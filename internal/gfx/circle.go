package gfx

import "memlcd/internal/palette"

// DrawCircle outlines a circle of radius r centred on (x0, y0) using the
// midpoint algorithm.
func (g *Context) DrawCircle(x0, y0, r int, c palette.RGB565) {
	if g == nil || r < 0 {
		return
	}
	f := 1 - r
	ddFx := 1
	ddFy := -2 * r
	x, y := 0, r

	g.DrawPixel(x0, y0+r, c)
	g.DrawPixel(x0, y0-r, c)
	g.DrawPixel(x0+r, y0, c)
	g.DrawPixel(x0-r, y0, c)

	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}
		x++
		ddFx += 2
		f += ddFx

		g.DrawPixel(x0+x, y0+y, c)
		g.DrawPixel(x0-x, y0+y, c)
		g.DrawPixel(x0+x, y0-y, c)
		g.DrawPixel(x0-x, y0-y, c)
		g.DrawPixel(x0+y, y0+x, c)
		g.DrawPixel(x0-y, y0+x, c)
		g.DrawPixel(x0+y, y0-x, c)
		g.DrawPixel(x0-y, y0-x, c)
	}
}

// FillCircle fills a circle of radius r centred on (x0, y0) with vertical
// spans at each symmetric offset of the midpoint recurrence.
func (g *Context) FillCircle(x0, y0, r int, c palette.RGB565) {
	if g == nil || r < 0 {
		return
	}
	g.DrawFastVLine(x0, y0-r, 2*r+1, c)

	f := 1 - r
	ddFx := 1
	ddFy := -2 * r
	x, y := 0, r

	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}
		x++
		ddFx += 2
		f += ddFx

		g.DrawFastVLine(x0+x, y0-y, 2*y+1, c)
		g.DrawFastVLine(x0-x, y0-y, 2*y+1, c)
		g.DrawFastVLine(x0+y, y0-x, 2*x+1, c)
		g.DrawFastVLine(x0-y, y0-x, 2*x+1, c)
	}
}
