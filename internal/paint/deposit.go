package paint

import (
	"image"
	"image/color"
	"math"
)

// Mode selects how a deposit combines with the surface.
type Mode uint8

const (
	// ModeInk paints the deposit color over the surface.
	ModeInk Mode = iota
	// ModeErase removes existing content toward transparent.
	ModeErase
)

// Deposit is one circular paint or erase operation, the unit of work the
// rasterizer emits.
type Deposit struct {
	// X, Y is the center in pixel space.
	X, Y float64
	// Radius is the outer radius in pixels. Nothing outside it is touched.
	Radius float64
	// Core is the fraction of Radius painted at full strength. Between the
	// core and Radius strength falls off linearly to zero, which gives the
	// soft ink-bleed edge. A Core of 1 paints a hard disc with a one pixel
	// antialiased rim.
	Core float64
	// Color is the straight-alpha ink color. Ignored for ModeErase.
	Color color.NRGBA
	// Strength scales the deposit alpha, in [0,1].
	Strength float64
	Mode     Mode
}

// Bounds returns the pixel rectangle the deposit can touch.
func (d Deposit) Bounds() image.Rectangle {
	r := d.Radius + 0.5
	return image.Rect(
		int(math.Floor(d.X-r)),
		int(math.Floor(d.Y-r)),
		int(math.Ceil(d.X+r)),
		int(math.Ceil(d.Y+r)),
	)
}

// coverage returns the deposit strength at distance dist from the
// center, before Strength is applied.
func (d Deposit) coverage(dist float64) float64 {
	if d.Core >= 1 {
		// Hard disc: full inside, one pixel ramp across the rim.
		return clamp(d.Radius-dist+0.5, 0, 1)
	}
	if dist >= d.Radius {
		return 0
	}
	inner := d.Radius * d.Core
	if dist <= inner {
		return 1
	}
	return 1 - (dist-inner)/(d.Radius-inner)
}

// Deposit applies d to the surface and returns the changed rectangle.
func (s *Surface) Deposit(d Deposit) image.Rectangle {
	if d.Radius <= 0 || d.Strength <= 0 {
		return image.Rectangle{}
	}
	area := d.Bounds().Intersect(s.img.Rect)
	if area.Empty() {
		return image.Rectangle{}
	}
	strength := clamp(d.Strength, 0, 1)
	pix, stride := s.img.Pix, s.img.Stride
	for y := area.Min.Y; y < area.Max.Y; y++ {
		dy := float64(y) + 0.5 - d.Y
		row := y*stride + area.Min.X*4
		for x := area.Min.X; x < area.Max.X; x++ {
			i := row + (x-area.Min.X)*4
			dx := float64(x) + 0.5 - d.X
			cov := d.coverage(math.Hypot(dx, dy)) * strength
			if cov <= 0 {
				continue
			}
			p := pix[i : i+4 : i+4]
			switch d.Mode {
			case ModeErase:
				p[0], p[1], p[2], p[3] = destinationOut(unit8(cov), p[0], p[1], p[2], p[3])
			default:
				sr, sg, sb, sa := premultiply(d.Color.R, d.Color.G, d.Color.B, d.Color.A, cov)
				if sa == 0 {
					continue
				}
				p[0], p[1], p[2], p[3] = sourceOver(sr, sg, sb, sa, p[0], p[1], p[2], p[3])
			}
		}
	}
	s.markDirty(area)
	return area
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
