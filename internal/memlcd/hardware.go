package memlcd

import "periph.io/x/conn/v3/physic"

// DefaultFrequency is the SPI clock used when HardwareConfig leaves it zero.
const DefaultFrequency = 8 * physic.MegaHertz

// PinConfig names a GPIO line as known to periph's gpioreg ("GPIO8", ...).
type PinConfig struct {
	Name      string
	ActiveLow bool
}

// HardwareConfig locates the panel on the host.
type HardwareConfig struct {
	// SPIPort is passed to spireg.Open; "" opens the first port.
	SPIPort   string
	Frequency physic.Frequency
	CS        PinConfig
	ExtComIn  PinConfig
	Disp      PinConfig
	Backlight PinConfig
}
