// Package paint is the raster side of the paper: fixed-size pixel
// surfaces, the soft circular deposits that make up ink and erasure,
// and the rasterizer that turns a stream of pointer samples into
// deposits.
//
// Nothing in this package is safe for concurrent use. A surface is owned
// by one layer and mutated only from the goroutine driving the session.
package paint

import (
	"image"
	"image/color"
)

// Surface is a persistent premultiplied RGBA raster.
type Surface struct {
	img   *image.RGBA
	dirty image.Rectangle
}

// NewSurface returns a fully transparent w x h surface.
func NewSurface(w, h int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Width returns the width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Bounds returns the pixel bounds, always anchored at the origin.
func (s *Surface) Bounds() image.Rectangle { return s.img.Rect }

// Image exposes the backing raster for read-only passes such as
// compositing. Callers must not write to it.
func (s *Surface) Image() *image.RGBA { return s.img }

// Fill paints every pixel with c, replacing what was there.
func (s *Surface) Fill(c color.Color) {
	r, g, b, a := c.RGBA()
	px := [4]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8), byte(a >> 8)}
	pix := s.img.Pix
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
	s.markDirty(s.img.Rect)
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
	s.markDirty(s.img.Rect)
}

// At returns the premultiplied pixel at (x, y). Out of range reads are
// transparent.
func (s *Surface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// NRGBAAt returns the pixel at (x, y) with straight alpha.
func (s *Surface) NRGBAAt(x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(s.img.RGBAAt(x, y)).(color.NRGBA)
}

// Snapshot returns an independent copy of the raster.
func (s *Surface) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Rect)
	copy(cp.Pix, s.img.Pix)
	return cp
}

// Dirty returns the region changed since the last TakeDirty.
func (s *Surface) Dirty() image.Rectangle { return s.dirty }

// TakeDirty returns the changed region and resets it.
func (s *Surface) TakeDirty() image.Rectangle {
	r := s.dirty
	s.dirty = image.Rectangle{}
	return r
}

func (s *Surface) markDirty(r image.Rectangle) {
	r = r.Intersect(s.img.Rect)
	if r.Empty() {
		return
	}
	s.dirty = s.dirty.Union(r)
}
