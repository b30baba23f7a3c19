// Package rtc supplies wall-clock time for watch faces, either from an
// RV-8263-C8 real-time clock on I2C or from the host clock.
package rtc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	appLog "memlcd/internal/log"
)

// Clock abstracts where the current time comes from so faces can be
// rendered against real hardware or the host clock alike.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

// System reads the host clock.
type System struct {
	// Location defaults to time.Local.
	Location *time.Location
}

// Now implements Clock.
func (s System) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc), nil
}

// Fixed always returns the same instant. Useful for previews and tests.
type Fixed time.Time

// Now implements Clock.
func (f Fixed) Now(context.Context) (time.Time, error) { return time.Time(f), nil }

// DefaultAddr is the 7-bit I2C address of the RV-8263-C8.
const DefaultAddr = 0x51

// Registers.
const (
	regControl1 = 0x00
	regSeconds  = 0x04

	ctrl1Stop = 1 << 5
)

// ErrInvalidTime is returned when the clock registers hold a date that
// does not exist, typically after power loss.
var ErrInvalidTime = errors.New("rtc: invalid time in registers")

// Conn is a register-level I2C connection; *i2c.Dev satisfies it.
type Conn interface {
	Tx(w, r []byte) error
}

// RV8263 is a Micro Crystal RV-8263-C8 real-time clock. Times are kept in
// Location (default UTC) with a two-digit year offset from 2000.
type RV8263 struct {
	conn     Conn
	Location *time.Location
	closer   func() error
}

// NewRV8263 wraps an existing connection.
func NewRV8263(conn Conn) *RV8263 {
	return &RV8263{conn: conn, Location: time.UTC}
}

// OpenRV8263 opens busName through periph ("" for the default bus) and
// starts the oscillator.
func OpenRV8263(ctx context.Context, busName string, addr uint16) (*RV8263, error) {
	if runtime.GOOS != "linux" {
		return nil, errors.New("rtc: i2c unavailable on this platform")
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("rtc: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("rtc: open i2c bus %q: %w", busName, err)
	}
	if addr == 0 {
		addr = DefaultAddr
	}
	r := NewRV8263(&i2c.Dev{Bus: bus, Addr: addr})
	r.closer = bus.Close
	if err := r.Init(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the bus when it was opened by OpenRV8263.
func (r *RV8263) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer()
	r.closer = nil
	return err
}

func (r *RV8263) readReg(reg byte) (byte, error) {
	buf := []byte{0}
	if err := r.conn.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *RV8263) writeReg(reg, v byte) error {
	return r.conn.Tx([]byte{reg, v}, nil)
}

func (r *RV8263) setStop(stop bool) error {
	ctrl, err := r.readReg(regControl1)
	if err != nil {
		return fmt.Errorf("rtc: read control1: %w", err)
	}
	if stop {
		ctrl |= ctrl1Stop
	} else {
		ctrl &^= ctrl1Stop
	}
	if err := r.writeReg(regControl1, ctrl); err != nil {
		return fmt.Errorf("rtc: write control1: %w", err)
	}
	return nil
}

// Init clears the STOP bit so the clock runs.
func (r *RV8263) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.setStop(false)
}

// SetTime stops the clock, burst-writes t and restarts it.
func (r *RV8263) SetTime(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t = t.In(r.location())
	if y := t.Year(); y < 2000 || y > 2099 {
		return fmt.Errorf("rtc: year %d outside 2000..2099", y)
	}
	if err := r.setStop(true); err != nil {
		return err
	}
	data := []byte{
		regSeconds,
		toBCD(t.Second()),
		toBCD(t.Minute()),
		toBCD(t.Hour()),
		toBCD(t.Day()),
		byte(t.Weekday()),
		toBCD(int(t.Month())),
		toBCD(t.Year() - 2000),
	}
	if err := r.conn.Tx(data, nil); err != nil {
		return fmt.Errorf("rtc: write time: %w", err)
	}
	if err := r.setStop(false); err != nil {
		return err
	}
	appLog.Debug("rtc time set", "time", t.Format(time.RFC3339))
	return nil
}

// Now implements Clock.
func (r *RV8263) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	var data [7]byte
	if err := r.conn.Tx([]byte{regSeconds}, data[:]); err != nil {
		return time.Time{}, fmt.Errorf("rtc: read time: %w", err)
	}
	sec := fromBCD(data[0] & 0x7F)
	min := fromBCD(data[1] & 0x7F)
	hour := fromBCD(data[2] & 0x3F)
	day := fromBCD(data[3] & 0x3F)
	month := fromBCD(data[5] & 0x1F)
	year := 2000 + fromBCD(data[6])

	if sec > 59 || min > 59 || hour > 23 || day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: % X", ErrInvalidTime, data)
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, r.location())
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidTime, year, month, day)
	}
	return t, nil
}

func (r *RV8263) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func toBCD(v int) byte { return byte(v/10<<4 | v%10) }

func fromBCD(b byte) int { return int(b&0x0F) + int(b>>4)*10 }

// Default tries the RV-8263 on the default bus and falls back to the
// host clock when it is missing or unreadable.
func Default(ctx context.Context, busName string, addr uint16, loc *time.Location) Clock {
	r, err := OpenRV8263(ctx, busName, addr)
	if err == nil {
		if loc != nil {
			r.Location = loc
		}
		if _, err = r.Now(ctx); err == nil {
			return r
		}
		_ = r.Close()
	}
	appLog.Warn("rtc unavailable, using system clock", "err", err)
	return System{Location: loc}
}
