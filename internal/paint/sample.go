package paint

import (
	"math"
	"time"
)

// Vec3 is a point on the paper in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Lerp moves v toward o by t.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (o.X-v.X)*t,
		Y: v.Y + (o.Y-v.Y)*t,
		Z: v.Z + (o.Z-v.Z)*t,
	}
}

// UV is a texture coordinate on the paper surface. V grows upward,
// so V=1 is the top row of the raster.
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

// OnPaper reports whether the coordinate lies on the sheet.
func (uv UV) OnPaper() bool {
	return uv.U >= 0 && uv.U <= 1 && uv.V >= 0 && uv.V <= 1 &&
		!math.IsNaN(uv.U) && !math.IsNaN(uv.V)
}

// Dist returns the distance between two coordinates in UV space.
func (uv UV) Dist(o UV) float64 {
	return math.Hypot(o.U-uv.U, o.V-uv.V)
}

// Lerp interpolates between uv and o.
func (uv UV) Lerp(o UV, t float64) UV {
	return UV{
		U: uv.U + (o.U-uv.U)*t,
		V: uv.V + (o.V-uv.V)*t,
	}
}

// Pixel maps the coordinate to raster space for a w x h surface.
func (uv UV) Pixel(w, h int) (x, y float64) {
	return uv.U * float64(w), (1 - uv.V) * float64(h)
}

// Sample is one pointer position reported while dragging over the paper.
type Sample struct {
	Point Vec3      `json:"point"`
	UV    UV        `json:"uv"`
	Time  time.Time `json:"time"`
}
