//go:build linux

package memlcd

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	appLog "memlcd/internal/log"
)

// Open initializes periph, connects the SPI port in mode 0 with chip select
// under manual control and returns an initialized Dev.
func Open(hw HardwareConfig, opts *Opts) (*Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host init: %v", ErrDeviceNotReady, err)
	}

	port, err := spireg.Open(hw.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("%w: open spi port %q: %v", ErrDeviceNotReady, hw.SPIPort, err)
	}

	freq := hw.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	conn, err := port.Connect(freq, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: connect spi: %v", ErrDeviceNotReady, err)
	}

	var pins Pins
	for _, p := range []struct {
		cfg PinConfig
		dst *Signal
	}{
		{hw.CS, &pins.CS},
		{hw.ExtComIn, &pins.ExtComIn},
		{hw.Disp, &pins.Disp},
		{hw.Backlight, &pins.Backlight},
	} {
		if p.cfg.Name == "" {
			continue
		}
		pin := gpioreg.ByName(p.cfg.Name)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("%w: gpio %s not found", ErrDeviceNotReady, p.cfg.Name)
		}
		*p.dst = Signal{Pin: pin, ActiveLow: p.cfg.ActiveLow}
	}

	d, err := New(conn, pins, opts)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	d.closer = port.Close
	appLog.Info("memlcd opened", "spi", port.String(), "freq", freq.String())
	return d, nil
}
