package config

import (
	"bytes"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
	"PaperPen/internal/state"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	opts, err := c.SessionOptions(nil)
	require.NoError(t, err)
	want := state.DefaultOptions()
	assert.Equal(t, want.Width, opts.Width)
	assert.Equal(t, want.Layers, opts.Layers)
	assert.Equal(t, want.EraseMode, opts.EraseMode)
	assert.Equal(t, want.Brush, opts.Brush)
	assert.Equal(t, want.Pens, opts.Pens)

	eo, err := c.ExportOptions()
	require.NoError(t, err)
	assert.Equal(t, export.DefaultOptions(), eo)
	assert.Equal(t, slog.LevelInfo, c.Level())
}

func TestReadOverridesDefaults(t *testing.T) {
	doc := `
[canvas]
width = 512
erase_mode = "paper"

[brush]
max_radius = 6.0

[[pens]]
name = "ochre"
color = "#cc7722"

[[pens]]
color = "teal"

[export]
format = "jpg"
scale = 2
interpolation = "bilinear"

[log]
level = "debug"
`
	c, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 512, c.Canvas.Width)
	assert.Equal(t, 1024, c.Canvas.Height, "untouched keys keep defaults")
	assert.Equal(t, slog.LevelDebug, c.Level())

	opts, err := c.SessionOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, paint.EraseToPaper, opts.EraseMode)
	assert.Equal(t, 6.0, opts.Brush.MaxRadius)
	assert.Equal(t, 1.5, opts.Brush.MinRadius)
	require.Len(t, opts.Pens, 2)
	assert.Equal(t, state.Pen{Name: "ochre", Color: color.NRGBA{R: 0xcc, G: 0x77, B: 0x22, A: 255}}, opts.Pens[0])
	assert.Equal(t, "teal", opts.Pens[1].Name)

	eo, err := c.ExportOptions()
	require.NoError(t, err)
	assert.Equal(t, export.JPEG, eo.Format)
	assert.Equal(t, 2, eo.Scale)
	assert.Equal(t, export.Bilinear, eo.Interpolation)
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	_, err := Read(strings.NewReader("[canvas]\nwidht = 10\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"size":        func(c *Config) { c.Canvas.Width = 0 },
		"layers":      func(c *Config) { c.Canvas.Layers = 0 },
		"erase mode":  func(c *Config) { c.Canvas.EraseMode = "chalk" },
		"radius":      func(c *Config) { c.Brush.MaxRadius = 1 },
		"smoothing":   func(c *Config) { c.Brush.Smoothing = 0 },
		"pen color":   func(c *Config) { c.Pens = []Pen{{Name: "x", Color: "#zzz"}} },
		"no pens":     func(c *Config) { c.Pens = nil },
		"format":      func(c *Config) { c.Export.Format = "gif" },
		"scale":       func(c *Config) { c.Export.Scale = 5 },
		"remote addr": func(c *Config) { c.Remote.Enabled, c.Remote.Addr = true, "" },
		"log level":   func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	path := filepath.Join(t.TempDir(), "paperpen.toml")
	require.NoError(t, os.WriteFile(path, []byte("[canvas]\nlayers = 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestWriteReadsBack(t *testing.T) {
	c := Default()
	c.Canvas.Layers = 3
	c.Pens = c.Pens[:2]
	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
