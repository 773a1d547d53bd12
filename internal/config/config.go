// Package config loads the PaperPen settings file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
	"PaperPen/internal/state"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the whole settings file. Zero sections fall back to Default.
type Config struct {
	Canvas Canvas `toml:"canvas"`
	Brush  Brush  `toml:"brush"`
	Pens   []Pen  `toml:"pens"`
	Export Export `toml:"export"`
	Remote Remote `toml:"remote"`
	Log    Log    `toml:"log"`
}

type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	Layers int `toml:"layers"`
	// EraseMode is "transparent" or "paper".
	EraseMode string `toml:"erase_mode"`
	// Background is an optional paper texture, reloaded when it changes.
	Background string `toml:"background"`
}

type Brush struct {
	Smoothing      float64 `toml:"smoothing"`
	FrameInterval  float64 `toml:"frame_interval"`
	SpeedConstant  float64 `toml:"speed_constant"`
	MinRadius      float64 `toml:"min_radius"`
	MaxRadius      float64 `toml:"max_radius"`
	InkCore        float64 `toml:"ink_core"`
	EraserRadius   float64 `toml:"eraser_radius"`
	ReferenceWidth int     `toml:"reference_width"`
}

type Pen struct {
	Name  string `toml:"name"`
	Color string `toml:"color"`
}

type Export struct {
	Format        string `toml:"format"`
	Scale         int    `toml:"scale"`
	Interpolation string `toml:"interpolation"`
	AllLayers     bool   `toml:"all_layers"`
	JPEGQuality   int    `toml:"jpeg_quality"`
	// PDF also writes a print sheet next to the image.
	PDF bool `toml:"pdf"`
}

type Remote struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	// MDNS advertises the session on the local network.
	MDNS     bool   `toml:"mdns"`
	Instance string `toml:"instance"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the stock settings.
func Default() Config {
	b := paint.DefaultBrush()
	return Config{
		Canvas: Canvas{Width: 1024, Height: 1024, Layers: 5, EraseMode: "transparent"},
		Brush: Brush{
			Smoothing:      b.Smoothing,
			FrameInterval:  b.FrameInterval,
			SpeedConstant:  b.K,
			MinRadius:      b.MinRadius,
			MaxRadius:      b.MaxRadius,
			InkCore:        b.InkCore,
			EraserRadius:   b.EraserRadius,
			ReferenceWidth: b.ReferenceWidth,
		},
		Pens: []Pen{
			{Name: "red", Color: "red"},
			{Name: "green", Color: "green"},
			{Name: "blue", Color: "blue"},
			{Name: "black", Color: "black"},
		},
		Export: Export{Format: "png", Scale: 1, Interpolation: "nearest", AllLayers: true, JPEGQuality: 90},
		Remote: Remote{Addr: ":8888", MDNS: true, Instance: "PaperPen"},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a settings document over the defaults and validates it.
// Unknown keys are rejected so typos do not go unnoticed.
func Read(r io.Reader) (Config, error) {
	c := Default()
	// [[pens]] tables append; start empty so a file replaces the holder.
	c.Pens = nil
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&c); err != nil {
		return c, fmt.Errorf("config: decode: %w", err)
	}
	if len(c.Pens) == 0 {
		c.Pens = Default().Pens
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks ranges and parses every enumerated value once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Canvas.Width < 1 || c.Canvas.Height < 1 {
		bad("canvas size %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.Layers < 1 {
		bad("canvas.layers %d < 1", c.Canvas.Layers)
	}
	if _, err := paint.ParseEraseMode(c.Canvas.EraseMode); err != nil {
		bad("%v", err)
	}
	if c.Brush.MinRadius <= 0 || c.Brush.MaxRadius < c.Brush.MinRadius {
		bad("brush radius range [%g,%g]", c.Brush.MinRadius, c.Brush.MaxRadius)
	}
	if c.Brush.Smoothing <= 0 || c.Brush.Smoothing > 1 {
		bad("brush.smoothing %g not in (0,1]", c.Brush.Smoothing)
	}
	if c.Brush.FrameInterval <= 0 {
		bad("brush.frame_interval %g", c.Brush.FrameInterval)
	}
	if c.Brush.InkCore < 0 || c.Brush.InkCore > 1 {
		bad("brush.ink_core %g not in [0,1]", c.Brush.InkCore)
	}
	if c.Brush.EraserRadius <= 0 {
		bad("brush.eraser_radius %g", c.Brush.EraserRadius)
	}
	if len(c.Pens) == 0 {
		bad("no pens")
	}
	for i, p := range c.Pens {
		if _, err := paint.ParseColor(p.Color); err != nil {
			bad("pens[%d]: %v", i, err)
		}
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		bad("%v", err)
	}
	if c.Export.Scale < 1 || c.Export.Scale > export.MaxScale {
		bad("export.scale %d not in [1,%d]", c.Export.Scale, export.MaxScale)
	}
	if _, err := export.ParseInterpolation(c.Export.Interpolation); err != nil {
		bad("%v", err)
	}
	if c.Remote.Enabled && c.Remote.Addr == "" {
		bad("remote.addr is empty")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		bad("%v", err)
	}
	return errors.Join(errs...)
}

// SessionOptions turns the canvas, brush and pen sections into session
// options. The background file is not loaded here.
func (c Config) SessionOptions(log *slog.Logger) (state.Options, error) {
	mode, err := paint.ParseEraseMode(c.Canvas.EraseMode)
	if err != nil {
		return state.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	pens := make([]state.Pen, 0, len(c.Pens))
	for _, p := range c.Pens {
		col, err := paint.ParseColor(p.Color)
		if err != nil {
			return state.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		name := p.Name
		if name == "" {
			name = p.Color
		}
		pens = append(pens, state.Pen{Name: name, Color: col})
	}

	b := paint.DefaultBrush()
	b.Smoothing = c.Brush.Smoothing
	b.FrameInterval = c.Brush.FrameInterval
	b.K = c.Brush.SpeedConstant
	b.MinRadius = c.Brush.MinRadius
	b.MaxRadius = c.Brush.MaxRadius
	b.InkCore = c.Brush.InkCore
	b.EraserRadius = c.Brush.EraserRadius
	b.ReferenceWidth = c.Brush.ReferenceWidth

	return state.Options{
		Width:     c.Canvas.Width,
		Height:    c.Canvas.Height,
		Layers:    c.Canvas.Layers,
		EraseMode: mode,
		Brush:     b,
		Pens:      pens,
		Logger:    log,
	}, nil
}

// ExportOptions returns the configured export defaults.
func (c Config) ExportOptions() (export.Options, error) {
	f, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return export.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	interp, err := export.ParseInterpolation(c.Export.Interpolation)
	if err != nil {
		return export.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return export.Options{
		Format:        f,
		Scale:         c.Export.Scale,
		Interpolation: interp,
		AllLayers:     c.Export.AllLayers,
		Quality:       c.Export.JPEGQuality,
	}, nil
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}
