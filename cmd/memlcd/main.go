package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"memlcd/internal/config"
	appLog "memlcd/internal/log"
	"memlcd/internal/memlcd"
)

const version = "0.1.0"

// Globals are flags shared by every subcommand.
type Globals struct {
	Config   string           `help:"Path to config file." default:"/etc/memlcd/config.yaml" type:"path" env:"MEMLCD_CONFIG"`
	LogLevel string           `help:"Override log level (debug, info, warn, error)." name:"log-level"`
	Version  kong.VersionFlag `help:"Print version and exit."`
}

// loadConfig reads and validates the config file and applies the log
// level.
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", g.Config, err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", g.Config, err)
	}
	g.applyLogLevel(cfg.LogLevel)
	return cfg, nil
}

func (g *Globals) applyLogLevel(s string) {
	if lvl, ok := appLog.ParseLevel(s); ok {
		appLog.SetLevel(lvl)
	}
}

// openPanel opens the panel described by cfg.
func openPanel(cfg *config.Config) (*memlcd.Dev, error) {
	d, err := memlcd.Open(cfg.Hardware(), cfg.DisplayOpts())
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CLI is the command tree.
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" default:"1" help:"Drive the panel as a watch (default)."`
	Preview PreviewCmd `cmd:"" help:"Render a face off-screen to the terminal or a PNG."`
	Show    ShowCmd    `cmd:"" help:"Show an image file on the panel."`
	Clear   ClearCmd   `cmd:"" help:"Clear the panel or set a blink mode."`
	SetTime SetTimeCmd `cmd:"" name:"set-time" help:"Write the time to the RV-8263 clock."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("memlcd"),
		kong.Description("Driver and watch runtime for 4-bit color memory LCD panels."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	ctx, cancel := signalContext()
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(&cli.Globals); err != nil {
		appLog.Error("command failed", err, "command", kctx.Command())
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
