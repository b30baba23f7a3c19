// Package memlcd drives 4-bit color memory LCD panels of the LPM013M126A
// family over SPI.
//
// The panel keeps its image in pixel memory and only needs SPI traffic when
// rows change. Every refresh streams each window row as one chip-select
// transaction:
//
//	CS ──┐ head: UPDATE|pol, line (MSB first)
//	     │ data: width/2 bytes, two pixels per byte (MSB first)
//	     │ trailer: 0x00 0x00 (LSB first)
//	CS ──┘
//
// and then toggles EXTCOMIN so the liquid crystal sees alternating polarity.
package memlcd

import "fmt"

// Command is a panel mode byte sent at the start of a transaction.
type Command byte

const (
	CmdNoUpdate   Command = 0x00
	CmdBlinkBlack Command = 0x10
	CmdInversion  Command = 0x14
	CmdBlinkWhite Command = 0x18
	CmdAllClear   Command = 0x20
	CmdUpdate     Command = 0x90

	// PolarityBit is ORed into the command byte for software polarity
	// inversion. EXTCOMIN mode leaves it clear.
	PolarityBit byte = 0x40
)

// BlinkMode selects what the panel shows in place of pixel memory.
type BlinkMode uint8

const (
	BlinkNone BlinkMode = iota
	BlinkWhite
	BlinkBlack
	Inversion
)

// Command returns the mode byte for m.
func (m BlinkMode) Command() (Command, error) {
	switch m {
	case BlinkNone:
		return CmdNoUpdate, nil
	case BlinkWhite:
		return CmdBlinkWhite, nil
	case BlinkBlack:
		return CmdBlinkBlack, nil
	case Inversion:
		return CmdInversion, nil
	}
	return 0, fmt.Errorf("memlcd: unknown blink mode %d", m)
}

func (m BlinkMode) String() string {
	switch m {
	case BlinkNone:
		return "none"
	case BlinkWhite:
		return "white"
	case BlinkBlack:
		return "black"
	case Inversion:
		return "inversion"
	}
	return fmt.Sprintf("BlinkMode(%d)", uint8(m))
}

// ParseBlinkMode is the inverse of BlinkMode.String.
func ParseBlinkMode(s string) (BlinkMode, error) {
	for _, m := range []BlinkMode{BlinkNone, BlinkWhite, BlinkBlack, Inversion} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("memlcd: unknown blink mode %q", s)
}
