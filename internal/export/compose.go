// Package export flattens layer surfaces into a single image, for the
// screen and for files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"

	"PaperPen/internal/paint"
)

var (
	// ErrUnsupportedFormat is returned for an export format other than
	// PNG or JPEG.
	ErrUnsupportedFormat = errors.New("export: unsupported format")
	// ErrInvalidScale is returned for a scale factor outside 1..4.
	ErrInvalidScale = errors.New("export: invalid scale")
)

// MaxScale is the largest export scale factor.
const MaxScale = 4

// Interpolation selects how exports are upscaled.
type Interpolation uint8

const (
	Nearest Interpolation = iota
	Bilinear
)

// ParseInterpolation accepts "nearest" and "bilinear".
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	}
	return Nearest, fmt.Errorf("export: unknown interpolation %q", s)
}

func (i Interpolation) String() string {
	if i == Bilinear {
		return "bilinear"
	}
	return "nearest"
}

func (i Interpolation) scaler() draw.Scaler {
	if i == Bilinear {
		return draw.BiLinear
	}
	return draw.NearestNeighbor
}

// Compositor stacks a background and layer surfaces. It only reads the
// surfaces it is given.
type Compositor struct {
	width, height int
	background    *image.RGBA
	display       *image.RGBA
}

// NewCompositor returns a compositor for w x h surfaces.
func NewCompositor(w, h int) *Compositor {
	return &Compositor{
		width:   w,
		height:  h,
		display: image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// SetBackground sets the paper texture drawn under every layer, fitted
// to the canvas size. Nil removes it, leaving a transparent base.
func (c *Compositor) SetBackground(img image.Image) {
	if img == nil {
		c.background = nil
		return
	}
	bg := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.ApproxBiLinear.Scale(bg, bg.Rect, img, img.Bounds(), draw.Src, nil)
	c.background = bg
}

// Background returns the fitted background, or nil.
func (c *Compositor) Background() image.Image {
	if c.background == nil {
		return nil
	}
	return c.background
}

// Display draws the background and then active into the display buffer
// and returns it. The buffer is reused by the next call.
func (c *Compositor) Display(active *paint.Surface) *image.RGBA {
	c.base(c.display)
	draw.Draw(c.display, c.display.Rect, active.Image(), image.Point{}, draw.Over)
	return c.display
}

// Current returns the display buffer as last composed.
func (c *Compositor) Current() *image.RGBA { return c.display }

// Compose draws the background and every layer in order into a new
// image, upscaled by scale.
func (c *Compositor) Compose(layers []*paint.Surface, scale int, interp Interpolation) (*image.RGBA, error) {
	if scale < 1 || scale > MaxScale {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidScale, scale, MaxScale)
	}
	flat := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	c.base(flat)
	for _, l := range layers {
		draw.Draw(flat, flat.Rect, l.Image(), image.Point{}, draw.Over)
	}
	if scale == 1 {
		return flat, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, c.width*scale, c.height*scale))
	interp.scaler().Scale(out, out.Rect, flat, flat.Rect, draw.Src, nil)
	return out, nil
}

func (c *Compositor) base(dst *image.RGBA) {
	if c.background != nil {
		copy(dst.Pix, c.background.Pix)
		return
	}
	draw.Draw(dst, dst.Rect, image.Transparent, image.Point{}, draw.Src)
}

// flatten returns img composited over opaque white.
func flatten(img image.Image) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Rect, img, img.Bounds().Min, draw.Over)
	return out
}
