package memlcd

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"

	"memlcd/internal/framebuf"
	"memlcd/internal/palette"
)

var errTx = errors.New("tx failed")

type fakePin struct {
	levels []gpio.Level
	err    error
}

func (p *fakePin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, l)
	return nil
}

func (p *fakePin) last() gpio.Level {
	if len(p.levels) == 0 {
		return gpio.Low
	}
	return p.levels[len(p.levels)-1]
}

type txRecord struct {
	data     []byte
	selected bool
}

type fakeBus struct {
	cs    *fakePin
	txs   []txRecord
	calls int
	fail  map[int]bool
}

func (b *fakeBus) Tx(w, r []byte) error {
	b.calls++
	if b.fail[b.calls] {
		return errTx
	}
	b.txs = append(b.txs, txRecord{data: append([]byte(nil), w...), selected: b.cs.last() == gpio.High})
	return nil
}

func (b *fakeBus) reset() {
	b.txs = nil
	b.calls = 0
	b.fail = nil
}

type rig struct {
	dev                    *Dev
	bus                    *fakeBus
	cs, ext, disp, backlit *fakePin
}

func newRig(t *testing.T, opts *Opts) *rig {
	t.Helper()
	r := &rig{cs: &fakePin{}, ext: &fakePin{}, disp: &fakePin{}, backlit: &fakePin{}}
	r.bus = &fakeBus{cs: r.cs}
	d, err := New(r.bus, Pins{
		CS:        Signal{Pin: r.cs},
		ExtComIn:  Signal{Pin: r.ext},
		Disp:      Signal{Pin: r.disp},
		Backlight: Signal{Pin: r.backlit},
	}, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.delay = func(time.Duration) {}
	r.dev = d
	return r
}

func TestNewRequiresBusAndPins(t *testing.T) {
	p := &fakePin{}
	full := Pins{CS: Signal{Pin: p}, ExtComIn: Signal{Pin: p}, Disp: Signal{Pin: p}}

	tests := []struct {
		name string
		bus  Bus
		pins Pins
		opts *Opts
	}{
		{"nil bus", nil, full, nil},
		{"no cs", &fakeBus{cs: p}, Pins{ExtComIn: full.ExtComIn, Disp: full.Disp}, nil},
		{"no extcomin", &fakeBus{cs: p}, Pins{CS: full.CS, Disp: full.Disp}, nil},
		{"no disp", &fakeBus{cs: p}, Pins{CS: full.CS, ExtComIn: full.ExtComIn}, nil},
		{"pin fails", &fakeBus{cs: p}, Pins{CS: full.CS, ExtComIn: full.ExtComIn, Disp: Signal{Pin: &fakePin{err: errors.New("busy")}}}, nil},
		{"too tall", &fakeBus{cs: p}, full, &Opts{Width: 176, Height: MaxHeight + 1}},
		{"odd width", &fakeBus{cs: p}, full, &Opts{Width: 175, Height: 176}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.bus, tt.pins, tt.opts); !errors.Is(err, ErrDeviceNotReady) {
				t.Errorf("New() error = %v, want ErrDeviceNotReady", err)
			}
		})
	}
}

func TestInitSequence(t *testing.T) {
	r := newRig(t, nil)

	if got := r.disp.levels; len(got) != 2 || got[0] != gpio.Low || got[1] != gpio.High {
		t.Errorf("disp levels = %v, want [Low High]", got)
	}
	if got := r.backlit.levels; len(got) != 2 || got[0] != gpio.Low || got[1] != gpio.High {
		t.Errorf("backlight levels = %v, want [Low High]", got)
	}
	if r.cs.levels[0] != gpio.Low || r.cs.last() != gpio.Low {
		t.Errorf("cs levels = %v, want to start and end Low", r.cs.levels)
	}
	if len(r.bus.txs) != 2 {
		t.Fatalf("init sent %d transfers, want 2", len(r.bus.txs))
	}
	if !bytes.Equal(r.bus.txs[0].data, []byte{0x20}) || !bytes.Equal(r.bus.txs[1].data, []byte{0x00}) {
		t.Errorf("clear transfers = % X / % X, want 20 / 00", r.bus.txs[0].data, r.bus.txs[1].data)
	}
	for i, tx := range r.bus.txs {
		if !tx.selected {
			t.Errorf("transfer %d sent with cs released", i)
		}
	}
	for i, v := range r.dev.Buffer().Pix() {
		if v != 0xEE {
			t.Fatalf("buffer byte %d = 0x%02X after init, want 0xEE", i, v)
		}
	}
}

func TestRefreshNarrowPanel(t *testing.T) {
	r := newRig(t, &Opts{Width: 2, Height: 4})
	r.bus.reset()
	if err := r.dev.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(r.bus.txs) != 4*3 {
		t.Fatalf("refresh sent %d transfers, want 12", len(r.bus.txs))
	}
	if data := r.bus.txs[1].data; len(data) != 1 {
		t.Errorf("data length = %d, want 1", len(data))
	}
	if trailer := r.bus.txs[2].data; !bytes.Equal(trailer, []byte{0x00, 0x00}) {
		t.Errorf("trailer = % X, want 00 00", trailer)
	}
	if last := r.bus.txs[9].data; !bytes.Equal(last, []byte{0x90, 0x04}) {
		t.Errorf("last head = % X, want 90 04", last)
	}
}

func TestRefreshRowFrames(t *testing.T) {
	r := newRig(t, nil)
	r.bus.reset()
	r.cs.levels = nil

	r.dev.WritePixel(0, 0, palette.RGB(255, 0, 0))
	r.dev.WritePixel(1, 0, palette.RGB(0, 0, 255))
	if got := r.dev.Buffer().Pix()[0]; got != 0x82 {
		t.Fatalf("buffer[0] = 0x%02X, want 0x82", got)
	}

	if err := r.dev.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(r.bus.txs) != 176*3 {
		t.Fatalf("refresh sent %d transfers, want %d", len(r.bus.txs), 176*3)
	}

	head, data, trailer := r.bus.txs[0].data, r.bus.txs[1].data, r.bus.txs[2].data
	if !bytes.Equal(head, []byte{0x90, 0x01}) {
		t.Errorf("row 1 head = % X, want 90 01", head)
	}
	if len(data) != 88 {
		t.Fatalf("row 1 data length = %d, want 88", len(data))
	}
	if data[0] != 0x82 || data[1] != 0xEE || data[87] != 0xEE {
		t.Errorf("row 1 data = %02X %02X .. %02X, want 82 EE .. EE", data[0], data[1], data[87])
	}
	if !bytes.Equal(trailer, []byte{0x00, 0x00}) {
		t.Errorf("row 1 trailer = % X, want 00 00", trailer)
	}

	last := r.bus.txs[len(r.bus.txs)-3].data
	if !bytes.Equal(last, []byte{0x90, 176}) {
		t.Errorf("last head = % X, want 90 B0", last)
	}

	for i, tx := range r.bus.txs {
		if !tx.selected {
			t.Fatalf("transfer %d sent with cs released", i)
		}
	}
	if len(r.cs.levels) != 2*176 {
		t.Fatalf("cs toggled %d times, want %d", len(r.cs.levels), 2*176)
	}
	for i, l := range r.cs.levels {
		if want := gpio.Level(i%2 == 0); l != want {
			t.Fatalf("cs level %d = %v, want %v", i, l, want)
		}
	}
}

func TestRefreshAbsorbsRowErrors(t *testing.T) {
	r := newRig(t, nil)
	r.bus.reset()
	r.cs.levels = nil
	// Call 8 is the data segment of row 3.
	r.bus.fail = map[int]bool{8: true}

	if err := r.dev.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := r.dev.Stats().FailedRows; got != 1 {
		t.Errorf("FailedRows = %d, want 1", got)
	}
	if len(r.bus.txs) != 176*3-2 {
		t.Fatalf("transfers = %d, want %d", len(r.bus.txs), 176*3-2)
	}
	if got := r.bus.txs[6].data; !bytes.Equal(got, []byte{0x90, 3}) {
		t.Errorf("txs[6] = % X, want head of row 3", got)
	}
	if got := r.bus.txs[7].data; !bytes.Equal(got, []byte{0x90, 4}) {
		t.Errorf("txs[7] = % X, want head of row 4", got)
	}
	if r.cs.last() != gpio.Low || len(r.cs.levels) != 2*176 {
		t.Errorf("cs not released after failed row: %d levels, last %v", len(r.cs.levels), r.cs.last())
	}
}

func TestRefreshWindow(t *testing.T) {
	r := newRig(t, nil)
	if err := r.dev.SetWindow(framebuf.Window{X: 0, Y: 170, W: 176, H: 6}); err != nil {
		t.Fatalf("SetWindow: %v", err)
	}
	r.bus.reset()
	if err := r.dev.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(r.bus.txs) != 6*3 {
		t.Fatalf("transfers = %d, want 18", len(r.bus.txs))
	}
	if got := r.bus.txs[0].data; !bytes.Equal(got, []byte{0x90, 171}) {
		t.Errorf("first head = % X, want 90 AB", got)
	}
}

func TestEncodeLine(t *testing.T) {
	fb, err := framebuf.New(176, 176)
	if err != nil {
		t.Fatal(err)
	}
	if err := fb.SetWindow(framebuf.Window{X: 10, Y: 5, W: 20, H: 3}); err != nil {
		t.Fatal(err)
	}
	fb.Fill(palette.Black)

	dst := make([]byte, 88)
	f := EncodeLine(dst, fb, 0, palette.White, false)
	if f.Head != [2]byte{0x90, 6} {
		t.Errorf("head = % X, want 90 06", f.Head)
	}
	if f.Trailer != [2]byte{} {
		t.Errorf("trailer = % X, want 00 00", f.Trailer)
	}
	for i, v := range f.Data {
		want := byte(0xEE)
		if i >= 5 && i < 15 {
			want = 0x00
		}
		if v != want {
			t.Errorf("data[%d] = 0x%02X, want 0x%02X", i, v, want)
		}
	}

	f = EncodeLine(dst, fb, 2, palette.White, true)
	if f.Head != [2]byte{0xD0, 8} {
		t.Errorf("head with polarity = % X, want D0 08", f.Head)
	}
}

func TestExtComToggles(t *testing.T) {
	r := newRig(t, nil)
	// Inactive at init, then one toggle from the initial clear.
	want := []gpio.Level{gpio.Low, gpio.High}
	check := func(step string) {
		t.Helper()
		if len(r.ext.levels) != len(want) {
			t.Fatalf("%s: extcomin levels = %v, want %v", step, r.ext.levels, want)
		}
		for i := range want {
			if r.ext.levels[i] != want[i] {
				t.Fatalf("%s: extcomin levels = %v, want %v", step, r.ext.levels, want)
			}
		}
	}
	check("init")

	_ = r.dev.Refresh()
	want = append(want, gpio.Low)
	check("refresh")

	_ = r.dev.ClearDisplay()
	want = append(want, gpio.High)
	check("clear")

	_ = r.dev.SetBlinkMode(BlinkBlack)
	check("blink")

	_ = r.dev.Refresh()
	want = append(want, gpio.Low)
	check("second refresh")
}

func TestSetBlinkMode(t *testing.T) {
	tests := []struct {
		mode BlinkMode
		want byte
	}{
		{BlinkNone, 0x00},
		{BlinkWhite, 0x18},
		{BlinkBlack, 0x10},
		{Inversion, 0x14},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r := newRig(t, nil)
			r.bus.reset()
			if err := r.dev.SetBlinkMode(tt.mode); err != nil {
				t.Fatalf("SetBlinkMode: %v", err)
			}
			if len(r.bus.txs) != 2 {
				t.Fatalf("transfers = %d, want 2", len(r.bus.txs))
			}
			if got := r.bus.txs[0].data[0]; got != tt.want {
				t.Errorf("command = 0x%02X, want 0x%02X", got, tt.want)
			}
			if got := r.bus.txs[1].data[0]; got != 0x00 {
				t.Errorf("dummy = 0x%02X, want 0x00", got)
			}
			if r.dev.BlinkMode() != tt.mode {
				t.Errorf("BlinkMode() = %v, want %v", r.dev.BlinkMode(), tt.mode)
			}
		})
	}

	r := newRig(t, nil)
	if err := r.dev.SetBlinkMode(BlinkMode(9)); err == nil {
		t.Error("SetBlinkMode(9) succeeded, want error")
	}
}

func TestParseBlinkMode(t *testing.T) {
	for _, m := range []BlinkMode{BlinkNone, BlinkWhite, BlinkBlack, Inversion} {
		got, err := ParseBlinkMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseBlinkMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseBlinkMode("strobe"); err == nil {
		t.Error("ParseBlinkMode(strobe) succeeded, want error")
	}
}

func TestWriteLSBReversesBits(t *testing.T) {
	r := newRig(t, nil)
	r.bus.reset()
	if err := r.dev.writeLSB([]byte{0x01, 0x80, 0x0F, 0xA0}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x80, 0x01, 0xF0, 0x05}
	if got := r.bus.txs[0].data; !bytes.Equal(got, want) {
		t.Errorf("wire bytes = % X, want % X", got, want)
	}
}

func TestClearDisplayUsesBackground(t *testing.T) {
	opts := DefaultOpts()
	opts.Background = palette.Black
	r := newRig(t, opts)
	for i, v := range r.dev.Buffer().Pix() {
		if v != 0x00 {
			t.Fatalf("byte %d = 0x%02X, want 0x00", i, v)
		}
	}

	r.dev.SetBackground(palette.Yellow)
	r.dev.SetPixelIndex(4, 4, palette.Red)
	r.dev.Cls()
	if got := r.dev.Buffer().IndexAt(4, 4); got != palette.Yellow {
		t.Errorf("after Cls pixel = %v, want yellow", got)
	}
}

func TestPolarityBit(t *testing.T) {
	opts := DefaultOpts()
	opts.Polarity = true
	r := newRig(t, opts)
	if got := r.bus.txs[0].data[0]; got != 0x60 {
		t.Errorf("clear command = 0x%02X, want 0x60", got)
	}
}

func TestHalt(t *testing.T) {
	r := newRig(t, nil)
	if err := r.dev.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if r.disp.last() != gpio.Low || r.backlit.last() != gpio.Low {
		t.Errorf("disp=%v backlight=%v after halt, want Low", r.disp.last(), r.backlit.last())
	}
	if err := r.dev.Refresh(); !errors.Is(err, ErrHalted) {
		t.Errorf("Refresh after halt = %v, want ErrHalted", err)
	}
	if err := r.dev.ClearDisplay(); !errors.Is(err, ErrHalted) {
		t.Errorf("ClearDisplay after halt = %v, want ErrHalted", err)
	}
}

func TestSignalActiveLow(t *testing.T) {
	p := &fakePin{}
	s := Signal{Pin: p, ActiveLow: true}
	_ = s.Set(true)
	_ = s.Set(false)
	if p.levels[0] != gpio.Low || p.levels[1] != gpio.High {
		t.Errorf("active-low levels = %v, want [Low High]", p.levels)
	}
	if err := (Signal{}).Set(true); err != nil {
		t.Errorf("empty signal Set = %v, want nil", err)
	}
}
