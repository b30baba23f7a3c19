// Package watch drives a panel as a watch: it redraws the selected face on
// a cron schedule, keeps the panel's COM inversion running between
// redraws and interleaves notifications and images pushed from outside.
package watch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/image/draw"

	"memlcd/internal/config"
	"memlcd/internal/convert"
	"memlcd/internal/face"
	"memlcd/internal/framebuf"
	"memlcd/internal/gfx"
	appLog "memlcd/internal/log"
	"memlcd/internal/palette"
	"memlcd/internal/rtc"
)

// Panel is the display the runner owns. *memlcd.Dev satisfies it.
type Panel interface {
	gfx.PixelWriter
	Refresh() error
	Buffer() *framebuf.Buffer
	Background() palette.Index
}

// Options configures a Runner. Zero values pick the analog face, the
// system clock, local time, no rotation, a redraw every second and a ten
// second notification hold.
type Options struct {
	Face        face.Face
	Clock       rtc.Clock
	Location    *time.Location
	Rotation    int
	Redraw      string
	Maintenance string
	NotifyHold  time.Duration
}

// Status is a point-in-time summary for the API.
type Status struct {
	Face      string    `json:"face"`
	Rotation  int       `json:"rotation"`
	Redraws   uint64    `json:"redraws"`
	Failures  uint64    `json:"failures"`
	HoldUntil time.Time `json:"hold_until,omitzero"`
	NextDraw  time.Time `json:"next_draw,omitzero"`
}

// Runner serializes every draw and refresh on one panel. Cron jobs, HTTP
// handlers and config reloads all go through its mutex.
type Runner struct {
	mu    sync.Mutex
	panel Panel
	g     *gfx.Context
	face  face.Face
	notes *face.NotificationView
	clock rtc.Clock
	loc   *time.Location

	hold      time.Duration
	holdUntil time.Time
	now       func() time.Time

	cron     *cron.Cron
	redrawID cron.EntryID
	maintID  cron.EntryID

	redraws  uint64
	failures uint64
}

// New prepares a runner; nothing is drawn until Run or Redraw.
func New(p Panel, opts Options) (*Runner, error) {
	if p == nil {
		return nil, errors.New("watch: nil panel")
	}
	if opts.Face == nil {
		opts.Face = face.NewAnalog(face.DefaultTheme())
	}
	if opts.Clock == nil {
		opts.Clock = rtc.System{Location: opts.Location}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Redraw == "" {
		opts.Redraw = config.DefaultRedraw
	}
	if opts.NotifyHold <= 0 {
		opts.NotifyHold = config.DefaultNotifyHold * time.Second
	}
	notes, err := face.NewNotificationView()
	if err != nil {
		return nil, err
	}

	fb := p.Buffer()
	g := gfx.New(p, fb.Width(), fb.Height())
	g.SetRotation(opts.Rotation)

	logger := cronLogger{}
	r := &Runner{
		panel: p,
		g:     g,
		face:  opts.Face,
		notes: notes,
		clock: opts.Clock,
		loc:   opts.Location,
		hold:  opts.NotifyHold,
		now:   time.Now,
		cron: cron.New(
			cron.WithParser(config.CronParser),
			cron.WithLocation(opts.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	if err := r.Reschedule(opts.Redraw, opts.Maintenance); err != nil {
		return nil, err
	}
	return r, nil
}

// Reschedule replaces the redraw and maintenance schedules. An empty
// maintenance spec disables maintenance refreshes.
func (r *Runner) Reschedule(redraw, maintenance string) error {
	redrawSched, err := config.CronParser.Parse(redraw)
	if err != nil {
		return fmt.Errorf("watch: redraw schedule %q: %w", redraw, err)
	}
	var maintSched cron.Schedule
	if maintenance != "" {
		if maintSched, err = config.CronParser.Parse(maintenance); err != nil {
			return fmt.Errorf("watch: maintenance schedule %q: %w", maintenance, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.redrawID != 0 {
		r.cron.Remove(r.redrawID)
	}
	if r.maintID != 0 {
		r.cron.Remove(r.maintID)
		r.maintID = 0
	}
	r.redrawID = r.cron.Schedule(redrawSched, cron.FuncJob(func() {
		if err := r.Redraw(context.Background()); err != nil {
			appLog.Error("scheduled redraw failed", err)
		}
	}))
	if maintSched != nil {
		r.maintID = r.cron.Schedule(maintSched, cron.FuncJob(func() {
			if err := r.Maintain(); err != nil {
				appLog.Error("maintenance refresh failed", err)
			}
		}))
	}
	return nil
}

// Run draws once, then follows the schedules until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Redraw(ctx); err != nil {
		appLog.Warn("initial redraw failed", "err", err)
	}
	r.cron.Start()
	appLog.Info("watch runner started", "face", r.FaceName())
	<-ctx.Done()
	<-r.cron.Stop().Done()
	appLog.Info("watch runner stopped")
	return nil
}

// Redraw paints the face for the current time and refreshes the panel.
// While a notification is held it does nothing.
func (r *Runner) Redraw(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Before(r.holdUntil) {
		return nil
	}
	t, err := r.clock.Now(ctx)
	if err != nil {
		r.failures++
		return fmt.Errorf("watch: read clock: %w", err)
	}
	if err := r.face.Draw(r.g, t.In(r.loc)); err != nil {
		r.failures++
		return fmt.Errorf("watch: draw %s: %w", r.face.Name(), err)
	}
	r.redraws++
	return r.refresh()
}

// Maintain refreshes the panel without drawing, toggling EXTCOMIN.
func (r *Runner) Maintain() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refresh()
}

func (r *Runner) refresh() error {
	if err := r.panel.Refresh(); err != nil {
		r.failures++
		return err
	}
	return nil
}

// Notify shows n and holds it on screen for the configured hold time.
func (r *Runner) Notify(n face.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes.Draw(r.g, n)
	r.holdUntil = r.now().Add(r.hold)
	appLog.Info("notification shown", "app", n.AppID, "title", n.Title)
	return r.refresh()
}

// ShowImage fits img to the logical screen, packs it into the frame
// buffer and holds it like a notification.
func (r *Runner) ShowImage(img image.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fitted := convert.Fit(img, r.g.Width(), r.g.Height())
	bg := r.panel.Background()
	b := fitted.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := fitted.NRGBAAt(x, y)
			if c.A < 128 {
				r.g.DrawPixel(x, y, bg.RGB565())
				continue
			}
			r.g.DrawPixel(x, y, palette.RGB(c.R, c.G, c.B))
		}
	}
	r.holdUntil = r.now().Add(r.hold)
	return r.refresh()
}

// Dismiss ends any hold and redraws the face immediately.
func (r *Runner) Dismiss(ctx context.Context) error {
	r.mu.Lock()
	r.holdUntil = time.Time{}
	r.mu.Unlock()
	return r.Redraw(ctx)
}

// SetFace switches faces; the next redraw uses it.
func (r *Runner) SetFace(f face.Face) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.face = f
}

// FaceName returns the active face's name.
func (r *Runner) FaceName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.face.Name()
}

// SetRotation changes the logical rotation and clears the panel to its
// background so no stale pixels survive in the other orientation.
func (r *Runner) SetRotation(rot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rot == r.g.Rotation() {
		return
	}
	r.g.SetRotation(rot)
	r.g.FillScreen(r.panel.Background().RGB565())
}

// Apply takes over face, theme, rotation, schedules and hold time from a
// reloaded config.
func (r *Runner) Apply(cfg *config.Config) error {
	theme, err := face.ThemeByName(cfg.Theme)
	if err != nil {
		return err
	}
	f, err := face.New(cfg.Face, theme)
	if err != nil {
		return err
	}
	if err := r.Reschedule(cfg.Redraw, cfg.Maintenance); err != nil {
		return err
	}
	r.SetFace(f)
	r.SetRotation(cfg.Panel.Rotation)
	r.mu.Lock()
	r.hold = cfg.NotifyHold()
	r.mu.Unlock()
	appLog.Info("watch settings applied", "face", f.Name(), "theme", cfg.Theme, "rotation", cfg.Panel.Rotation)
	return nil
}

// Snapshot copies the frame buffer's window.
func (r *Runner) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	fb := r.panel.Buffer()
	b := fb.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, fb, b.Min, draw.Src)
	return dst
}

// Status reports counters and schedule state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{
		Face:      r.face.Name(),
		Rotation:  r.g.Rotation(),
		Redraws:   r.redraws,
		Failures:  r.failures,
		HoldUntil: r.holdUntil,
	}
	if r.redrawID != 0 {
		st.NextDraw = r.cron.Entry(r.redrawID).Next
	}
	return st
}

// cronLogger routes cron's logging into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
