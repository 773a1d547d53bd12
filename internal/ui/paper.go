package ui

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"PaperPen/internal/paint"
	"PaperPen/internal/state"
)

// Sheet extent in world units. Samples are reported on a sheet this size
// so that stroke speed, and with it the line width, feels the same as on
// the 3D desk.
const (
	sheetWidth  = 10
	sheetHeight = 7
)

var (
	deskColor  = color.NRGBA{R: 214, G: 196, B: 170, A: 255}
	paperColor = color.NRGBA{R: 252, G: 251, B: 247, A: 255}
)

// PaperWidget shows the active layer over the paper and turns mouse input
// into pointer samples.
type PaperWidget struct {
	widget.BaseWidget
	session *state.Session
	image   *canvas.Image
	pressed bool
}

var _ fyne.Widget = (*PaperWidget)(nil)
var _ fyne.Draggable = (*PaperWidget)(nil)
var _ desktop.Mouseable = (*PaperWidget)(nil)

func NewPaperWidget(s *state.Session) *PaperWidget {
	p := &PaperWidget{session: s}
	p.image = canvas.NewImageFromImage(s.Display())
	p.image.FillMode = canvas.ImageFillStretch
	p.ExtendBaseWidget(p)
	return p
}

// Redraw recomposes the display image and uploads it.
func (p *PaperWidget) Redraw() {
	p.image.Image = p.session.Display()
	p.image.Refresh()
}

// paperRect fits the sheet inside size, centered with a margin.
func paperRect(size fyne.Size) (fyne.Position, fyne.Size) {
	const margin = 16
	w, h := size.Width-2*margin, size.Height-2*margin
	if w <= 0 || h <= 0 {
		return fyne.NewPos(size.Width/2, size.Height/2), fyne.NewSize(0, 0)
	}
	scale := min(w/sheetWidth, h/sheetHeight)
	sz := fyne.NewSize(sheetWidth*scale, sheetHeight*scale)
	return fyne.NewPos((size.Width-sz.Width)/2, (size.Height-sz.Height)/2), sz
}

// pointerSample maps a widget position to paper coordinates. Positions
// off the sheet give a UV outside [0,1].
func pointerSample(pos fyne.Position, size fyne.Size, at time.Time) paint.Sample {
	origin, sz := paperRect(size)
	if sz.Width == 0 || sz.Height == 0 {
		return paint.Sample{UV: paint.UV{U: -1, V: -1}, Time: at}
	}
	u := float64((pos.X - origin.X) / sz.Width)
	v := 1 - float64((pos.Y-origin.Y)/sz.Height)
	return paint.Sample{
		Point: paint.Vec3{X: (u - 0.5) * sheetWidth, Z: (0.5 - v) * sheetHeight},
		UV:    paint.UV{U: u, V: v},
		Time:  at,
	}
}

func (p *PaperWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p.pressed = true
	s := pointerSample(e.Position, p.Size(), time.Now())
	hit := state.Hit{Target: state.TargetNone, Point: s.Point, UV: s.UV, Time: s.Time}
	if s.UV.OnPaper() {
		hit.Target, hit.OnPaper = state.TargetPaper, true
	}
	p.session.PointerDown(hit)
}

func (p *PaperWidget) Dragged(e *fyne.DragEvent) {
	if !p.pressed {
		return
	}
	p.session.PointerMove(pointerSample(e.Position, p.Size(), time.Now()))
}

func (p *PaperWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p.release()
}

func (p *PaperWidget) DragEnd() { p.release() }

func (p *PaperWidget) release() {
	p.pressed = false
	p.session.PointerUp()
}

func (p *PaperWidget) CreateRenderer() fyne.WidgetRenderer {
	desk := canvas.NewRectangle(deskColor)
	sheet := canvas.NewRectangle(paperColor)
	sheet.StrokeColor = color.NRGBA{A: 60}
	sheet.StrokeWidth = 1
	return &paperRenderer{paper: p, desk: desk, sheet: sheet}
}

type paperRenderer struct {
	paper *PaperWidget
	desk  *canvas.Rectangle
	sheet *canvas.Rectangle
}

func (r *paperRenderer) Layout(size fyne.Size) {
	r.desk.Resize(size)
	pos, sz := paperRect(size)
	for _, o := range []fyne.CanvasObject{r.sheet, r.paper.image} {
		o.Move(pos)
		o.Resize(sz)
	}
}

func (r *paperRenderer) MinSize() fyne.Size {
	return fyne.NewSize(sheetWidth*40, sheetHeight*40)
}

func (r *paperRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.desk, r.sheet, r.paper.image}
}

func (r *paperRenderer) Refresh() {
	r.paper.image.Refresh()
}

func (r *paperRenderer) Destroy() {}
