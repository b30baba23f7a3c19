package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"memlcd/internal/config"
	"memlcd/internal/convert"
	"memlcd/internal/face"
	"memlcd/internal/framebuf"
	"memlcd/internal/gfx"
	appLog "memlcd/internal/log"
	"memlcd/internal/memlcd"
	"memlcd/internal/palette"
	"memlcd/internal/preview"
	"memlcd/internal/rtc"
	"memlcd/internal/watch"
	"memlcd/internal/web"
)

// RunCmd drives the panel until interrupted.
type RunCmd struct {
	Listen string `help:"HTTP listen address (overrides config if set)."`
}

func (c *RunCmd) Run(g *Globals, ctx context.Context) error {
	appLog.Info("memlcd starting", "version", version)

	watcher, err := config.NewWatcher(g.Config)
	if err != nil {
		return fmt.Errorf("load config %s: %w", g.Config, err)
	}
	defer watcher.Stop()

	cfg := watcher.Get()
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", g.Config, err)
	}
	g.applyLogLevel(cfg.LogLevel)
	loc, _ := cfg.Location()

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"face", cfg.Face,
		"theme", cfg.Theme,
		"rotation", cfg.Panel.Rotation,
		"redraw", cfg.Redraw,
		"rtc", cfg.RTC.Enabled,
	)

	dev, err := openPanel(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			appLog.Error("panel close failed", err)
		}
	}()

	var clock rtc.Clock = rtc.System{Location: loc}
	if cfg.RTC.Enabled {
		clock = rtc.Default(ctx, cfg.RTC.Bus, cfg.RTC.Addr, loc)
		if cl, ok := clock.(io.Closer); ok {
			defer cl.Close()
		}
	}

	theme, err := face.ThemeByName(cfg.Theme)
	if err != nil {
		return err
	}
	f, err := face.New(cfg.Face, theme)
	if err != nil {
		return err
	}
	runner, err := watch.New(dev, watch.Options{
		Face:        f,
		Clock:       clock,
		Location:    loc,
		Rotation:    cfg.Panel.Rotation,
		Redraw:      cfg.Redraw,
		Maintenance: cfg.Maintenance,
		NotifyHold:  cfg.NotifyHold(),
	})
	if err != nil {
		return err
	}

	watcher.OnReload(func(next *config.Config) {
		if g.LogLevel == "" {
			g.applyLogLevel(next.LogLevel)
		}
		if err := runner.Apply(next); err != nil {
			appLog.Error("config apply failed", err)
		}
	})
	watcher.Start()

	errCh := make(chan error, 1)
	if cfg.Listen != "" {
		srv := web.NewServer(cfg, runner, clock)
		srv.FollowConfig(watcher.Get)
		go func() { errCh <- srv.Serve(ctx) }()
	}

	if err := runner.Run(ctx); err != nil {
		return err
	}
	if cfg.Listen != "" {
		if err := <-errCh; err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	appLog.Info("memlcd exiting", "refreshes", dev.Stats().Refreshes, "failed_rows", dev.Stats().FailedRows)
	return nil
}

// PreviewCmd renders off-screen without touching hardware or the config
// file.
type PreviewCmd struct {
	Face     string `help:"Face to render (analog, digital)." default:"analog" enum:"analog,digital"`
	Theme    string `help:"Color theme (dark, light)." default:"dark"`
	At       string `help:"Time to show as HH:MM:SS; defaults to now."`
	Rotation int    `help:"Rotation in quarter turns." default:"0"`
	Width    int    `help:"Panel width." default:"176"`
	Height   int    `help:"Panel height." default:"176"`
	Title    string `help:"Render a notification with this title instead of a face."`
	Message  string `help:"Notification message."`
	App      string `help:"Notification app id."`
	PNG      string `help:"Write a PNG here instead of printing to the terminal." name:"png" type:"path"`
	Scale    int    `help:"PNG scale factor." default:"2"`
}

func (c *PreviewCmd) Run(g *Globals) error {
	g.applyLogLevel(g.LogLevel)
	fb, err := framebuf.New(c.Width, c.Height)
	if err != nil {
		return err
	}
	gc := gfx.New(fb, c.Width, c.Height)
	gc.SetRotation(c.Rotation)

	if c.Title != "" || c.Message != "" {
		v, err := face.NewNotificationView()
		if err != nil {
			return err
		}
		v.Draw(gc, face.Notification{AppID: c.App, Title: c.Title, Message: c.Message})
	} else {
		theme, err := face.ThemeByName(c.Theme)
		if err != nil {
			return err
		}
		f, err := face.New(c.Face, theme)
		if err != nil {
			return err
		}
		t := time.Now()
		if c.At != "" {
			at, err := time.ParseInLocation(time.TimeOnly, c.At, time.Local)
			if err != nil {
				return fmt.Errorf("--at %q: %w", c.At, err)
			}
			t = time.Date(t.Year(), t.Month(), t.Day(), at.Hour(), at.Minute(), at.Second(), 0, time.Local)
		}
		if err := f.Draw(gc, t); err != nil {
			return err
		}
	}

	if c.PNG == "" {
		fmt.Println(preview.Terminal(fb, fmt.Sprintf("%dx%d rotation %d", c.Width, c.Height, c.Rotation), nil))
		return nil
	}
	out, err := os.Create(c.PNG)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(out, fb, c.Scale); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ShowCmd displays an image file until interrupted.
type ShowCmd struct {
	Path string `arg:"" help:"Image file (PNG, JPEG, GIF, BMP, TIFF, WebP)." type:"existingfile"`
	Fit  bool   `help:"Scale the image to fit the panel instead of cropping."`
}

func (c *ShowCmd) Run(g *Globals, ctx context.Context) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	fh, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	img, format, err := convert.Decode(fh)
	fh.Close()
	if err != nil {
		return err
	}

	dev, err := openPanel(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	fb := dev.Buffer()
	if c.Fit {
		img = convert.Fit(img, fb.Width(), fb.Height())
	}
	if err := convert.Pack(img, fb, dev.Background()); err != nil {
		return err
	}
	appLog.Info("showing image", "path", c.Path, "format", format, "size", img.Bounds().Size().String())
	return holdPanel(ctx, dev)
}

// ClearCmd clears the panel, or holds a blink mode until interrupted.
type ClearCmd struct {
	Blink      string `help:"Blink mode: none, white, black or inversion." default:"none"`
	Background string `help:"Palette color to clear to; defaults to the configured background."`
}

func (c *ClearCmd) Run(g *Globals, ctx context.Context) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	mode, err := memlcd.ParseBlinkMode(c.Blink)
	if err != nil {
		return err
	}
	dev, err := openPanel(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	if c.Background != "" {
		bg, ok := palette.Lookup(c.Background)
		if !ok {
			return fmt.Errorf("unknown color %q", c.Background)
		}
		dev.SetBackground(bg)
	}
	if mode == memlcd.BlinkNone {
		if err := dev.ClearDisplay(); err != nil {
			return err
		}
		// ALL_CLEAR blanks to white; paint the background if it differs.
		if dev.Background() != palette.White {
			return dev.Refresh()
		}
		return nil
	}
	if err := dev.SetBlinkMode(mode); err != nil {
		return err
	}
	appLog.Info("blink mode set", "mode", mode.String())
	<-ctx.Done()
	return dev.SetBlinkMode(memlcd.BlinkNone)
}

// SetTimeCmd writes the time to the external clock.
type SetTimeCmd struct {
	Time string `arg:"" optional:"" help:"RFC 3339 time to set; defaults to now."`
}

func (c *SetTimeCmd) Run(g *Globals, ctx context.Context) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()
	t := time.Now().In(loc)
	if c.Time != "" {
		if t, err = time.Parse(time.RFC3339, c.Time); err != nil {
			return fmt.Errorf("time %q: %w", c.Time, err)
		}
	}

	clock, err := rtc.OpenRV8263(ctx, cfg.RTC.Bus, cfg.RTC.Addr)
	if err != nil {
		return err
	}
	defer clock.Close()
	clock.Location = loc

	if err := clock.SetTime(ctx, t); err != nil {
		return err
	}
	now, err := clock.Now(ctx)
	if err != nil {
		return err
	}
	appLog.Info("rtc time set", "time", now.Format(time.RFC3339))
	return nil
}

// holdPanel keeps refreshing once a second so COM inversion continues
// until ctx is done.
func holdPanel(ctx context.Context, dev *memlcd.Dev) error {
	if err := dev.Refresh(); err != nil {
		return err
	}
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if err := dev.Refresh(); err != nil && !errors.Is(err, memlcd.ErrHalted) {
				return err
			}
		}
	}
}
