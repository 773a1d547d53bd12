package paint

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// EraseMode decides what the eraser leaves behind.
type EraseMode uint8

const (
	// EraseToTransparent removes ink with destination-out, exposing
	// whatever background is composited under the layer.
	EraseToTransparent EraseMode = iota
	// EraseToPaper paints opaque paper white. Layers start white in this
	// mode and no background shows through.
	EraseToPaper
)

// PaperWhite is the color of a blank sheet.
var PaperWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Blank returns the state a fresh surface starts in for the mode.
func (m EraseMode) Blank(s *Surface) {
	if m == EraseToPaper {
		s.Fill(PaperWhite)
		return
	}
	s.Clear()
}

func (m EraseMode) String() string {
	if m == EraseToPaper {
		return "paper"
	}
	return "transparent"
}

// ParseEraseMode accepts "transparent" and "paper".
func ParseEraseMode(s string) (EraseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transparent":
		return EraseToTransparent, nil
	case "paper", "white":
		return EraseToPaper, nil
	}
	return EraseToTransparent, fmt.Errorf("paint: unknown erase mode %q", s)
}

// Nib is the tip the rasterizer deposits with.
type Nib struct {
	Eraser bool
	Color  color.NRGBA
}

// Brush holds the stroke dynamics. Radii are in pixels for a surface
// ReferenceWidth wide and scale linearly with the actual width.
type Brush struct {
	// Smoothing is the lerp factor pulling the smoothed pen position
	// toward each new sample.
	Smoothing float64
	// FrameInterval is the nominal time between samples in seconds. Speed
	// is distance per nominal frame, not measured from timestamps.
	FrameInterval float64
	// Pen radius = clamp(K/(speed+1), MinRadius, MaxRadius).
	K         float64
	MinRadius float64
	MaxRadius float64
	// InkCore is the fraction of the pen radius deposited at full color.
	InkCore float64
	// EraserRadius is fixed regardless of speed.
	EraserRadius float64
	// Eraser pressure = clamp(PressureBase - speed/PressureFalloff, MinPressure, 1).
	PressureBase    float64
	PressureFalloff float64
	MinPressure     float64
	ReferenceWidth  int
}

// DefaultBrush returns the stock pen and eraser dynamics.
func DefaultBrush() Brush {
	return Brush{
		Smoothing:       0.2,
		FrameInterval:   0.016,
		K:               6,
		MinRadius:       1.5,
		MaxRadius:       4,
		InkCore:         0.15,
		EraserRadius:    20,
		PressureBase:    1.2,
		PressureFalloff: 50,
		MinPressure:     0.1,
		ReferenceWidth:  1024,
	}
}

// PenRadius maps speed to stroke radius: the faster the pen, the
// thinner the line.
func (b Brush) PenRadius(speed float64) float64 {
	return clamp(b.K/(speed+1), b.MinRadius, b.MaxRadius)
}

// EraserPressure maps speed to erase strength: a dwelling eraser removes
// more per deposit than a fast one.
func (b Brush) EraserPressure(speed float64) float64 {
	return clamp(b.PressureBase-speed/b.PressureFalloff, b.MinPressure, 1)
}

func (b Brush) scale(width int) float64 {
	if b.ReferenceWidth <= 0 {
		return 1
	}
	return float64(width) / float64(b.ReferenceWidth)
}

func (b Brush) speed(from, to Vec3) float64 {
	if b.FrameInterval <= 0 {
		return 0
	}
	return from.Dist(to) / b.FrameInterval
}

// Steps returns how many segments a UV move is split into so that
// consecutive deposits overlap on a surface width pixels wide. It is
// never less than 1.
func Steps(from, to UV, width int) int {
	n := int(math.Ceil(from.Dist(to) * float64(width) * 2))
	if n < 1 {
		return 1
	}
	return n
}

// Rasterizer turns the samples of one gesture into deposits.
type Rasterizer struct {
	brush    Brush
	erase    EraseMode
	last     *Sample
	smoothed Vec3
	radius   float64
	pressure float64
}

// NewRasterizer returns an idle rasterizer.
func NewRasterizer(b Brush, mode EraseMode) *Rasterizer {
	return &Rasterizer{brush: b, erase: mode}
}

// Brush returns the dynamics in use.
func (r *Rasterizer) Brush() Brush { return r.brush }

// EraseMode returns the erase semantics in use.
func (r *Rasterizer) EraseMode() EraseMode { return r.erase }

// Active reports whether a stroke is in progress.
func (r *Rasterizer) Active() bool { return r.last != nil }

// Smoothed returns the damped pen position used for follow-through.
func (r *Rasterizer) Smoothed() Vec3 { return r.smoothed }

// Radius returns the pen radius of the last extended segment, in pixels.
func (r *Rasterizer) Radius() float64 { return r.radius }

// Pressure returns the eraser pressure of the last erase deposit.
func (r *Rasterizer) Pressure() float64 { return r.pressure }

// Begin starts a stroke at s. It does nothing and returns false when s
// is off the paper. Any previous stroke is dropped so that no segment is
// drawn across the gap between gestures.
func (r *Rasterizer) Begin(s Sample) bool {
	if !s.UV.OnPaper() {
		return false
	}
	r.last = &s
	r.smoothed = s.Point
	return true
}

// Extend continues the stroke to s on dst and returns the changed
// rectangle. Without an active stroke, or for a sample off the paper,
// it does nothing.
func (r *Rasterizer) Extend(dst *Surface, nib Nib, s Sample) image.Rectangle {
	if r.last == nil || !s.UV.OnPaper() {
		return image.Rectangle{}
	}
	var changed image.Rectangle
	if nib.Eraser {
		changed = r.eraseAt(dst, s)
		r.smoothed = s.Point
		next := s
		r.last = &next
		return changed
	}

	w, h := dst.Width(), dst.Height()
	r.smoothed = r.smoothed.Lerp(s.Point, r.brush.Smoothing)
	speed := r.brush.speed(r.last.Point, r.smoothed)
	r.radius = r.brush.PenRadius(speed) * r.brush.scale(w)

	from := r.last.UV
	steps := Steps(from, s.UV, w)
	for i := 0; i <= steps; i++ {
		x, y := from.Lerp(s.UV, float64(i)/float64(steps)).Pixel(w, h)
		changed = changed.Union(dst.Deposit(Deposit{
			X:        x,
			Y:        y,
			Radius:   r.radius,
			Core:     r.brush.InkCore,
			Color:    nib.Color,
			Strength: 1,
			Mode:     ModeInk,
		}))
	}
	r.last = &Sample{Point: r.smoothed, UV: s.UV, Time: s.Time}
	return changed
}

func (r *Rasterizer) eraseAt(dst *Surface, s Sample) image.Rectangle {
	w, h := dst.Width(), dst.Height()
	x, y := s.UV.Pixel(w, h)
	d := Deposit{
		X:        x,
		Y:        y,
		Radius:   r.brush.EraserRadius * r.brush.scale(w),
		Core:     1,
		Strength: 1,
	}
	if r.erase == EraseToPaper {
		d.Mode = ModeInk
		d.Color = PaperWhite
		r.pressure = 1
	} else {
		r.pressure = r.brush.EraserPressure(r.brush.speed(r.last.Point, s.Point))
		d.Mode = ModeErase
		d.Strength = r.pressure
	}
	return dst.Deposit(d)
}

// End finishes the stroke. Calling it without an active stroke is a
// no-op.
func (r *Rasterizer) End() {
	r.last = nil
}
