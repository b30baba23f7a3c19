package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"memlcd/internal/face"
	appLog "memlcd/internal/log"
	"memlcd/internal/memlcd"
	"memlcd/internal/palette"
)

// Defaults used by DefaultConfig and Normalize.
const (
	DefaultListen      = "127.0.0.1:8080"
	DefaultRedraw      = "* * * * * *"
	DefaultNotifyHold  = 10
	DefaultFrequencyHz = 8_000_000
)

// CronParser accepts five-field specs, an optional leading seconds field
// and descriptors such as "@every 30s".
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// PinConfig names a GPIO line as known to periph ("GPIO8", "P1_24", ...).
type PinConfig struct {
	Name      string `yaml:"name" json:"name"`
	ActiveLow bool   `yaml:"active_low,omitempty" json:"active_low,omitempty"`
}

// PanelConfig describes the memory LCD and how it is wired.
type PanelConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// SPIPort is passed to periph's spireg; empty opens the first port.
	SPIPort     string `yaml:"spi_port" json:"spi_port"`
	FrequencyHz int64  `yaml:"frequency_hz" json:"frequency_hz"`

	CS        PinConfig `yaml:"cs" json:"cs"`
	ExtComIn  PinConfig `yaml:"extcomin" json:"extcomin"`
	Disp      PinConfig `yaml:"disp" json:"disp"`
	Backlight PinConfig `yaml:"backlight" json:"backlight"`

	// Rotation is the logical rotation 0..3 in quarter turns.
	Rotation int `yaml:"rotation" json:"rotation"`
	// Background is a palette color name ("white", "black", ...).
	Background string `yaml:"background" json:"background"`
	// Polarity sets the polarity bit in command bytes. Leave false unless
	// the panel revision needs it.
	Polarity bool `yaml:"polarity,omitempty" json:"polarity,omitempty"`
}

// RTCConfig selects the external RV-8263-C8 clock.
type RTCConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Bus     string `yaml:"bus" json:"bus"`
	Addr    uint16 `yaml:"addr" json:"addr"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the preview and notify API.
	// Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone faces are drawn in. Empty means local.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Face is the watch face name ("analog" or "digital").
	Face string `yaml:"face" json:"face"`
	// Theme is a built-in color theme ("dark" or "light").
	Theme string `yaml:"theme" json:"theme"`

	// Redraw is the cron schedule for redrawing the face.
	Redraw string `yaml:"redraw" json:"redraw"`
	// Maintenance, if set, schedules plain refreshes between redraws so
	// EXTCOMIN keeps toggling while the face is static.
	Maintenance string `yaml:"maintenance,omitempty" json:"maintenance,omitempty"`

	// NotifyHoldSeconds is how long a notification stays on screen before
	// the face returns.
	NotifyHoldSeconds int `yaml:"notify_hold_seconds" json:"notify_hold_seconds"`

	Panel PanelConfig `yaml:"panel" json:"panel"`
	RTC   RTCConfig   `yaml:"rtc" json:"rtc"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns the configuration for a 176×176 panel on a
// Raspberry Pi header.
func DefaultConfig() *Config {
	return &Config{
		Listen:            DefaultListen,
		LogLevel:          "info",
		Face:              "analog",
		Theme:             "dark",
		Redraw:            DefaultRedraw,
		NotifyHoldSeconds: DefaultNotifyHold,
		Panel: PanelConfig{
			Width:       memlcd.DefaultWidth,
			Height:      memlcd.DefaultHeight,
			FrequencyHz: DefaultFrequencyHz,
			CS:          PinConfig{Name: "GPIO8"},
			ExtComIn:    PinConfig{Name: "GPIO23"},
			Disp:        PinConfig{Name: "GPIO24"},
			Backlight:   PinConfig{Name: "GPIO18"},
			Background:  "white",
		},
		RTC: RTCConfig{Addr: 0x51},
	}
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Face == "" {
		c.Face = "analog"
	}
	if c.Theme == "" {
		c.Theme = "dark"
	}
	if c.Redraw == "" {
		c.Redraw = DefaultRedraw
	}
	if c.NotifyHoldSeconds <= 0 {
		c.NotifyHoldSeconds = DefaultNotifyHold
	}
	if c.Panel.Width == 0 {
		c.Panel.Width = memlcd.DefaultWidth
	}
	if c.Panel.Height == 0 {
		c.Panel.Height = memlcd.DefaultHeight
	}
	if c.Panel.FrequencyHz <= 0 {
		c.Panel.FrequencyHz = DefaultFrequencyHz
	}
	if c.Panel.Background == "" {
		c.Panel.Background = "white"
	}
	if c.RTC.Addr == 0 {
		c.RTC.Addr = 0x51
	}
}

// Validate reports every setting that cannot be applied.
func (c *Config) Validate() error {
	var errs []error
	if c.Panel.Width <= 0 || c.Panel.Width%2 != 0 {
		errs = append(errs, fmt.Errorf("panel.width %d must be positive and even", c.Panel.Width))
	}
	if c.Panel.Height <= 0 || c.Panel.Height > memlcd.MaxHeight {
		errs = append(errs, fmt.Errorf("panel.height %d must be 1..%d", c.Panel.Height, memlcd.MaxHeight))
	}
	if c.Panel.Rotation < 0 || c.Panel.Rotation > 3 {
		errs = append(errs, fmt.Errorf("panel.rotation %d must be 0..3", c.Panel.Rotation))
	}
	if _, ok := palette.Lookup(c.Panel.Background); !ok {
		errs = append(errs, fmt.Errorf("panel.background %q is not a palette color", c.Panel.Background))
	}
	for _, p := range []struct {
		key string
		pin PinConfig
	}{{"panel.cs", c.Panel.CS}, {"panel.extcomin", c.Panel.ExtComIn}, {"panel.disp", c.Panel.Disp}} {
		if p.pin.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", p.key))
		}
	}
	if !slices.Contains(face.Names, strings.ToLower(c.Face)) {
		errs = append(errs, fmt.Errorf("face %q must be one of %s", c.Face, strings.Join(face.Names, ", ")))
	}
	if _, err := face.ThemeByName(c.Theme); err != nil {
		errs = append(errs, err)
	}
	if _, err := CronParser.Parse(c.Redraw); err != nil {
		errs = append(errs, fmt.Errorf("redraw %q: %w", c.Redraw, err))
	}
	if c.Maintenance != "" {
		if _, err := CronParser.Parse(c.Maintenance); err != nil {
			errs = append(errs, fmt.Errorf("maintenance %q: %w", c.Maintenance, err))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not debug, info, warn or error", c.LogLevel))
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		errs = append(errs, errors.New("basic_auth needs both username and password"))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone. Empty means time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Hardware converts the panel wiring into driver terms.
func (c *Config) Hardware() memlcd.HardwareConfig {
	pin := func(p PinConfig) memlcd.PinConfig {
		return memlcd.PinConfig{Name: p.Name, ActiveLow: p.ActiveLow}
	}
	return memlcd.HardwareConfig{
		SPIPort:   c.Panel.SPIPort,
		Frequency: physic.Frequency(c.Panel.FrequencyHz) * physic.Hertz,
		CS:        pin(c.Panel.CS),
		ExtComIn:  pin(c.Panel.ExtComIn),
		Disp:      pin(c.Panel.Disp),
		Backlight: pin(c.Panel.Backlight),
	}
}

// DisplayOpts converts the panel settings into driver options. Call after
// Validate; an unknown background falls back to white.
func (c *Config) DisplayOpts() *memlcd.Opts {
	bg, ok := palette.Lookup(c.Panel.Background)
	if !ok {
		bg = palette.White
	}
	return &memlcd.Opts{
		Width:      c.Panel.Width,
		Height:     c.Panel.Height,
		Background: bg,
		Polarity:   c.Panel.Polarity,
	}
}

// NotifyHold is NotifyHoldSeconds as a duration.
func (c *Config) NotifyHold() time.Duration {
	return time.Duration(c.NotifyHoldSeconds) * time.Second
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written with 0600
// permissions and returned. Otherwise the YAML is decoded and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			appLog.Info("wrote default config", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename. The
// parent directory is created 0700 and the file ends up 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".memlcd-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
