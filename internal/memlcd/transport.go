package memlcd

import (
	"fmt"
	"math/bits"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Bus is the SPI connection the panel hangs off. periph's spi.Conn
// satisfies it. The connection must shift MSB first and must not drive
// chip select itself.
type Bus interface {
	Tx(w, r []byte) error
}

// Pin is a GPIO output. periph's gpio.PinOut satisfies it.
type Pin interface {
	Out(l gpio.Level) error
}

// Signal is a GPIO output with a resolved active level.
type Signal struct {
	Pin       Pin
	ActiveLow bool
}

// Set drives the signal to its active or inactive level. A signal without
// a pin is a no-op.
func (s Signal) Set(active bool) error {
	if s.Pin == nil {
		return nil
	}
	return s.Pin.Out(gpio.Level(active != s.ActiveLow))
}

// Pins groups the panel's control lines. CS, ExtComIn and Disp are
// required; Backlight may be left empty.
type Pins struct {
	CS        Signal
	ExtComIn  Signal
	Disp      Signal
	Backlight Signal
}

// Chip select setup and hold around every transaction.
const (
	csSetup = 6 * time.Microsecond
	csHold  = 6 * time.Microsecond
)

// busyWait spins for d. Sleeping would hand the thread to the scheduler
// and overshoot by far more than the few microseconds asked for.
func busyWait(d time.Duration) {
	start := time.Now()
	for time.Since(start) < d {
	}
}

// selected runs fn with chip select asserted. Chip select is released on
// every path out, including errors from fn.
func (d *Dev) selected(fn func() error) (err error) {
	if err := d.pins.CS.Set(true); err != nil {
		return fmt.Errorf("memlcd: assert cs: %w", err)
	}
	d.delay(csSetup)
	defer func() {
		d.delay(csHold)
		if rerr := d.pins.CS.Set(false); rerr != nil && err == nil {
			err = fmt.Errorf("memlcd: release cs: %w", rerr)
		}
	}()
	return fn()
}

// writeMSB sends p as-is.
func (d *Dev) writeMSB(p []byte) error {
	return d.bus.Tx(p, nil)
}

// writeLSB sends p least significant bit first. The bus shifts MSB first,
// so each byte is bit-reversed on the way out.
func (d *Dev) writeLSB(p []byte) error {
	buf := d.rev[:len(p)]
	for i, b := range p {
		buf[i] = bits.Reverse8(b)
	}
	return d.bus.Tx(buf, nil)
}
