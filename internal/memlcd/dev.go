package memlcd

import (
	"errors"
	"fmt"
	"time"

	"memlcd/internal/framebuf"
	appLog "memlcd/internal/log"
	"memlcd/internal/palette"
)

var (
	// ErrDeviceNotReady is returned when the bus or a required control
	// line is missing or cannot be driven during initialization.
	ErrDeviceNotReady = errors.New("memlcd: device not ready")
	// ErrHalted is returned by operations on a halted device.
	ErrHalted = errors.New("memlcd: device halted")
)

// Native geometry of the LPM013M126A.
const (
	DefaultWidth  = 176
	DefaultHeight = 176

	// MaxHeight is the last line a one-byte line address can reach.
	MaxHeight = 255
)

// Opts configures a Dev.
type Opts struct {
	Width  int
	Height int
	// Background fills the frame buffer on clear and pads columns outside
	// the draw window during refresh.
	Background palette.Index
	// Polarity sets the polarity bit in every command byte.
	Polarity bool
}

// DefaultOpts returns options for the 176×176 panel on a white background.
func DefaultOpts() *Opts {
	return &Opts{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: palette.White,
	}
}

// Stats counts transport activity since the device was created.
type Stats struct {
	Refreshes  uint64
	FailedRows uint64
	FailedCmds uint64
}

// Dev is a memory LCD panel. It is not safe for concurrent use.
type Dev struct {
	bus  Bus
	pins Pins
	fb   *framebuf.Buffer

	bg       palette.Index
	blink    BlinkMode
	polarity bool
	extcom   bool
	halted   bool

	// Scratch for one row and its bit-reversed segments, sized once.
	line []byte
	rev  []byte

	lastRGB   palette.RGB565
	lastIndex palette.Index
	lastValid bool

	stats  Stats
	delay  func(time.Duration)
	closer func() error
}

// New initializes the panel: all control lines inactive, then power and
// backlight on, then a full clear. opts may be nil.
func New(bus Bus, pins Pins, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = DefaultOpts()
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: no spi bus", ErrDeviceNotReady)
	}
	required := []struct {
		name string
		sig  Signal
	}{{"cs", pins.CS}, {"extcomin", pins.ExtComIn}, {"disp", pins.Disp}}
	for _, r := range required {
		if r.sig.Pin == nil {
			return nil, fmt.Errorf("%w: %s pin missing", ErrDeviceNotReady, r.name)
		}
	}

	w, h := opts.Width, opts.Height
	if w == 0 {
		w = DefaultWidth
	}
	if h == 0 {
		h = DefaultHeight
	}
	if h > MaxHeight {
		return nil, fmt.Errorf("%w: height %d exceeds %d lines", ErrDeviceNotReady, h, MaxHeight)
	}
	fb, err := framebuf.New(w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotReady, err)
	}

	d := &Dev{
		bus:      bus,
		pins:     pins,
		fb:       fb,
		bg:       opts.Background & 0x0F,
		polarity: opts.Polarity,
		line:     make([]byte, w/2),
		rev:      make([]byte, max(w/2, len(LineFrame{}.Trailer))),
		delay:    busyWait,
	}
	if err := d.initPins(); err != nil {
		return nil, err
	}
	if err := d.ClearDisplay(); err != nil {
		return nil, err
	}
	appLog.Debug("memlcd initialized", "width", w, "height", h, "background", d.bg)
	return d, nil
}

func (d *Dev) initPins() error {
	steps := []struct {
		name   string
		sig    Signal
		active bool
	}{
		{"cs", d.pins.CS, false},
		{"extcomin", d.pins.ExtComIn, false},
		{"disp", d.pins.Disp, false},
		{"backlight", d.pins.Backlight, false},
		{"disp", d.pins.Disp, true},
		{"backlight", d.pins.Backlight, true},
	}
	for _, s := range steps {
		if err := s.sig.Set(s.active); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDeviceNotReady, s.name, err)
		}
	}
	return nil
}

// Width returns the native panel width.
func (d *Dev) Width() int { return d.fb.Width() }

// Height returns the native panel height.
func (d *Dev) Height() int { return d.fb.Height() }

// Buffer exposes the frame buffer.
func (d *Dev) Buffer() *framebuf.Buffer { return d.fb }

// Stats returns transport counters.
func (d *Dev) Stats() Stats { return d.stats }

// Background returns the current background index.
func (d *Dev) Background() palette.Index { return d.bg }

// SetBackground changes the color used by Cls, ClearDisplay and row padding.
func (d *Dev) SetBackground(c palette.Index) { d.bg = c & 0x0F }

// BlinkMode returns the last mode sent by SetBlinkMode.
func (d *Dev) BlinkMode() BlinkMode { return d.blink }

// Window returns the draw window.
func (d *Dev) Window() framebuf.Window { return d.fb.Window() }

// SetWindow restricts drawing and refresh to w.
func (d *Dev) SetWindow(w framebuf.Window) error { return d.fb.SetWindow(w) }

// WritePixel quantizes c and stores it at native coordinate (x, y).
func (d *Dev) WritePixel(x, y int, c palette.RGB565) {
	if !d.lastValid || c != d.lastRGB {
		d.lastRGB, d.lastIndex, d.lastValid = c, palette.Quantize(c), true
	}
	d.fb.SetPixel(x, y, d.lastIndex)
}

// SetPixelIndex stores palette index c at (x, y) without quantizing.
func (d *Dev) SetPixelIndex(x, y int, c palette.Index) {
	d.fb.SetPixel(x, y, c)
}

// Cls fills the frame buffer with the background without touching the
// panel.
func (d *Dev) Cls() { d.fb.Fill(d.bg) }

// Flush is Refresh.
func (d *Dev) Flush() error { return d.Refresh() }

// Refresh streams every window row to the panel, then toggles EXTCOMIN
// once. A row whose transfer fails is logged and skipped.
func (d *Dev) Refresh() error {
	if d.halted {
		return ErrHalted
	}
	win := d.fb.Window()
	height := d.fb.Height()
	for i := 0; i < win.H && win.Y+i < height; i++ {
		f := EncodeLine(d.line, d.fb, i, d.bg, d.polarity)
		if err := d.sendLine(f); err != nil {
			d.stats.FailedRows++
			appLog.Debug("memlcd row transfer failed", "line", int(f.Head[1]), "err", err)
		}
	}
	d.toggleExtCom()
	d.stats.Refreshes++
	return nil
}

func (d *Dev) sendLine(f LineFrame) error {
	return d.selected(func() error {
		if err := d.writeMSB(f.Head[:]); err != nil {
			return err
		}
		if err := d.writeMSB(f.Data); err != nil {
			return err
		}
		return d.writeLSB(f.Trailer[:])
	})
}

// ClearDisplay blanks the panel with ALL_CLEAR, resets the frame buffer to
// the background and toggles EXTCOMIN.
func (d *Dev) ClearDisplay() error {
	if d.halted {
		return ErrHalted
	}
	d.fb.Fill(d.bg)
	d.command(CmdAllClear)
	d.toggleExtCom()
	return nil
}

// SetBlinkMode switches the panel between showing memory, all white, all
// black or inverted memory.
func (d *Dev) SetBlinkMode(m BlinkMode) error {
	if d.halted {
		return ErrHalted
	}
	cmd, err := m.Command()
	if err != nil {
		return err
	}
	d.blink = m
	d.command(cmd)
	return nil
}

// command sends a two-byte mode transaction. Failures are logged only.
func (d *Dev) command(c Command) {
	b := byte(c)
	if d.polarity {
		b |= PolarityBit
	}
	err := d.selected(func() error {
		if err := d.writeMSB([]byte{b}); err != nil {
			return err
		}
		return d.writeLSB([]byte{0x00})
	})
	if err != nil {
		d.stats.FailedCmds++
		appLog.Debug("memlcd command failed", "cmd", fmt.Sprintf("0x%02X", b), "err", err)
	}
}

func (d *Dev) toggleExtCom() {
	d.extcom = !d.extcom
	if err := d.pins.ExtComIn.Set(d.extcom); err != nil {
		appLog.Debug("memlcd extcomin toggle failed", "err", err)
	}
}

// SetBacklight switches the backlight line.
func (d *Dev) SetBacklight(on bool) error {
	if d.halted {
		return ErrHalted
	}
	return d.pins.Backlight.Set(on)
}

// Halt powers the panel down. The device cannot be used afterwards.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	return errors.Join(
		d.pins.Backlight.Set(false),
		d.pins.Disp.Set(false),
		d.pins.ExtComIn.Set(false),
	)
}

// Close halts the panel and releases the bus.
func (d *Dev) Close() error {
	err := d.Halt()
	if d.closer != nil {
		err = errors.Join(err, d.closer())
		d.closer = nil
	}
	return err
}
