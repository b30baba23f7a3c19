package memlcd

import (
	"memlcd/internal/framebuf"
	"memlcd/internal/palette"
)

// LineFrame is the wire image of one row update.
type LineFrame struct {
	// Head is the command byte and the 1-based panel line number.
	Head [2]byte
	// Data always spans the full panel width, two pixels per byte.
	Data []byte
	// Trailer is two dummy bytes, sent LSB first.
	Trailer [2]byte
}

// EncodeLine builds the frame for window row i of fb into dst, which must
// hold fb.Width()/2 bytes. Columns outside the window carry the background
// pair.
func EncodeLine(dst []byte, fb *framebuf.Buffer, i int, bg palette.Index, polarity bool) LineFrame {
	win := fb.Window()
	width := fb.Width()

	pair := framebuf.Pair(bg)
	for j := range dst {
		dst[j] = pair
	}

	n := win.W / 2
	if win.X+win.W >= width {
		n = (width - win.X) / 2
	}
	copy(dst[win.X/2:win.X/2+n], fb.Row(i)[:n])

	cmd := byte(CmdUpdate)
	if polarity {
		cmd |= PolarityBit
	}
	return LineFrame{
		Head: [2]byte{cmd, byte(win.Y + i + 1)},
		Data: dst,
	}
}
