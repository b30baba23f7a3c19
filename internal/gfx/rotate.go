package gfx

// Rotate maps logical (x, y) under rotation r (quarter turns clockwise,
// masked to 0..3) onto a nativeW×nativeH panel.
//
//	0: ( x,         y        )
//	1: ( y,         nativeH-1-x )
//	2: ( nativeW-1-x, nativeH-1-y )
//	3: ( nativeW-1-y, x        )
//
// For odd r the logical rectangle is nativeH wide and nativeW tall.
// The panel's documented mapping, (y, nativeW-1-x) and (nativeH-1-y, x),
// is the square-panel case of this one; on rectangular panels it would
// leave the native bounds, so odd rotations use the opposite extent.
func Rotate(r, x, y, nativeW, nativeH int) (int, int) {
	switch r & 3 {
	case 1:
		return y, nativeH - 1 - x
	case 2:
		return nativeW - 1 - x, nativeH - 1 - y
	case 3:
		return nativeW - 1 - y, x
	}
	return x, y
}
