package gfx

import "memlcd/internal/palette"

// DrawFastHLine draws w pixels to the right of (x, y).
func (g *Context) DrawFastHLine(x, y, w int, c palette.RGB565) {
	if g == nil || w <= 0 || y < 0 || y >= g.height {
		return
	}
	if x < 0 {
		w += x
		x = 0
	}
	if x+w > g.width {
		w = g.width - x
	}
	for i := 0; i < w; i++ {
		g.DrawPixel(x+i, y, c)
	}
}

// DrawFastVLine draws h pixels below (x, y).
func (g *Context) DrawFastVLine(x, y, h int, c palette.RGB565) {
	if g == nil || h <= 0 || x < 0 || x >= g.width {
		return
	}
	if y < 0 {
		h += y
		y = 0
	}
	if y+h > g.height {
		h = g.height - y
	}
	for i := 0; i < h; i++ {
		g.DrawPixel(x, y+i, c)
	}
}

// FillRect fills a w×h rectangle with its top-left corner at (x, y).
func (g *Context) FillRect(x, y, w, h int, c palette.RGB565) {
	if g == nil || w <= 0 || h <= 0 {
		return
	}
	if y < 0 {
		h += y
		y = 0
	}
	if y+h > g.height {
		h = g.height - y
	}
	for j := 0; j < h; j++ {
		g.DrawFastHLine(x, y+j, w, c)
	}
}

// DrawRect outlines a w×h rectangle.
func (g *Context) DrawRect(x, y, w, h int, c palette.RGB565) {
	if g == nil || w <= 0 || h <= 0 {
		return
	}
	g.DrawFastHLine(x, y, w, c)
	g.DrawFastHLine(x, y+h-1, w, c)
	g.DrawFastVLine(x, y, h, c)
	g.DrawFastVLine(x+w-1, y, h, c)
}

// FillScreen fills the whole logical area.
func (g *Context) FillScreen(c palette.RGB565) {
	if g == nil {
		return
	}
	g.FillRect(0, 0, g.width, g.height, c)
}

// DrawLine draws from (x0, y0) to (x1, y1) inclusive with Bresenham's
// algorithm.
func (g *Context) DrawLine(x0, y0, x1, y1 int, c palette.RGB565) {
	if g == nil {
		return
	}
	dx, sx := abs(x1-x0), sign(x1-x0)
	dy, sy := -abs(y1-y0), sign(y1-y0)
	err := dx + dy
	for {
		g.DrawPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// StrokeLine draws a line of the given thickness with round caps by
// stamping filled circles along it. Thickness 1 or less is DrawLine.
func (g *Context) StrokeLine(x0, y0, x1, y1, thickness int, c palette.RGB565) {
	if g == nil {
		return
	}
	if thickness <= 1 {
		g.DrawLine(x0, y0, x1, y1, c)
		return
	}
	r := thickness / 2
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		g.FillCircle(x0, y0, r, c)
		return
	}
	for i := 0; i <= steps; i++ {
		g.FillCircle(x0+roundDiv(dx*i, steps), y0+roundDiv(dy*i, steps), r, c)
	}
}

// DrawTriangle outlines the triangle through the three vertices.
func (g *Context) DrawTriangle(x0, y0, x1, y1, x2, y2 int, c palette.RGB565) {
	if g == nil {
		return
	}
	g.DrawLine(x0, y0, x1, y1, c)
	g.DrawLine(x1, y1, x2, y2, c)
	g.DrawLine(x2, y2, x0, y0, c)
}

// FillTriangle scan-converts the triangle. Edge positions are accumulated
// per scanline and divided by the edge height with truncation.
func (g *Context) FillTriangle(x0, y0, x1, y1, x2, y2 int, c palette.RGB565) {
	if g == nil {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
		x0, x1 = x1, x0
	}
	if y1 > y2 {
		y1, y2 = y2, y1
		x1, x2 = x2, x1
	}
	if y0 > y1 {
		y0, y1 = y1, y0
		x0, x1 = x1, x0
	}

	if y0 == y2 {
		a, b := min(x0, x1, x2), max(x0, x1, x2)
		g.DrawFastHLine(a, y0, b-a+1, c)
		return
	}

	dx01, dy01 := x1-x0, y1-y0
	dx02, dy02 := x2-x0, y2-y0
	dx12, dy12 := x2-x1, y2-y1

	span := func(a, b, y int) {
		if a > b {
			a, b = b, a
		}
		g.DrawFastHLine(a, y, b-a+1, c)
	}

	sa, sb := 0, 0
	switch {
	case y1 == y2:
		for y := y0; y <= y1; y++ {
			span(x0+quo(sa, dy01), x0+quo(sb, dy02), y)
			sa += dx01
			sb += dx02
		}
	case y0 == y1:
		for y := y0; y <= y2; y++ {
			span(x0+quo(sa, dy02), x1+quo(sb, dy12), y)
			sa += dx02
			sb += dx12
		}
	default:
		y := y0
		for ; y <= y1; y++ {
			span(x0+quo(sa, dy01), x0+quo(sb, dy02), y)
			sa += dx01
			sb += dx02
		}
		sa = dx12 * (y - y1)
		sb = dx02 * (y - y0)
		for ; y <= y2; y++ {
			span(x1+quo(sa, dy12), x0+quo(sb, dy02), y)
			sa += dx12
			sb += dx02
		}
	}
}

// FillRoundRect fills a w×h rectangle whose corners are quarter circles of
// radius r. The radius is clamped to half the shorter side.
func (g *Context) FillRoundRect(x, y, w, h, r int, c palette.RGB565) {
	if g == nil || w <= 0 || h <= 0 {
		return
	}
	r = min(r, w/2, h/2)
	if r <= 0 {
		g.FillRect(x, y, w, h, c)
		return
	}

	g.FillRect(x+r, y, w-2*r, h, c)
	g.FillRect(x, y+r, r, h-2*r, c)
	g.FillRect(x+w-r, y+r, r, h-2*r, c)

	for dy := 0; dy < r; dy++ {
		xr := isqrt(r*r - dy*dy)
		top := y + r - 1 - dy
		bot := y + h - r + dy
		for _, row := range [2]int{top, bot} {
			g.DrawFastHLine(x+r-xr, row, xr, c)
			g.DrawFastHLine(x+w-r, row, xr, c)
		}
	}
}

// DrawRoundRect outlines a rounded rectangle.
func (g *Context) DrawRoundRect(x, y, w, h, r int, c palette.RGB565) {
	if g == nil || w <= 0 || h <= 0 {
		return
	}
	r = min(r, w/2, h/2)
	if r <= 0 {
		g.DrawRect(x, y, w, h, c)
		return
	}
	g.DrawFastHLine(x+r, y, w-2*r, c)
	g.DrawFastHLine(x+r, y+h-1, w-2*r, c)
	g.DrawFastVLine(x, y+r, h-2*r, c)
	g.DrawFastVLine(x+w-1, y+r, h-2*r, c)

	// Quarter arcs centred inside each corner.
	cx0, cx1 := x+r, x+w-r-1
	cy0, cy1 := y+r, y+h-r-1
	f, ddx, ddy := 1-r, 1, -2*r
	px, py := 0, r
	plot := func(ax, ay int) {
		g.DrawPixel(cx1+ax, cy1+ay, c)
		g.DrawPixel(cx0-ax, cy1+ay, c)
		g.DrawPixel(cx1+ax, cy0-ay, c)
		g.DrawPixel(cx0-ax, cy0-ay, c)
	}
	for px < py {
		if f >= 0 {
			py--
			ddy += 2
			f += ddy
		}
		px++
		ddx += 2
		f += ddx
		plot(px, py)
		plot(py, px)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

// quo divides with truncation, treating a zero divisor as a zero result.
func quo(n, d int) int {
	if d == 0 {
		return 0
	}
	return n / d
}

// roundDiv returns n/d rounded half away from zero. d must be positive.
func roundDiv(n, d int) int {
	if n < 0 {
		return -((-2*n + d) / (2 * d))
	}
	return (2*n + d) / (2 * d)
}

// isqrt returns floor(sqrt(n)) for n >= 0.
func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
