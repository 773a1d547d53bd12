package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"PaperPen/internal/state"
)

// --- Pen swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func()

	selected bool
	border   *canvas.Rectangle
}

func newColorSwatch(c color.Color, tapped func()) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	s.border = canvas.NewRectangle(color.Transparent)
	s.paintBorder()
	return widget.NewSimpleRenderer(container.NewStack(rect, s.border))
}

// SetSelected outlines the swatch of the pen in hand.
func (s *colorSwatch) SetSelected(on bool) {
	if s.selected == on {
		return
	}
	s.selected = on
	if s.border != nil {
		s.paintBorder()
		s.border.Refresh()
	}
}

func (s *colorSwatch) paintBorder() {
	s.border.StrokeColor = color.Gray{Y: 150}
	s.border.StrokeWidth = 1
	if s.selected {
		s.border.StrokeColor = theme.Color(theme.ColorNamePrimary)
		s.border.StrokeWidth = 3
	}
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped()
	}
}

// toolbar is the pen holder, the eraser and the sheet actions. Pen and
// eraser taps go through the session as picks so the same rules apply
// as on the 3D desk.
type toolbar struct {
	session  *state.Session
	swatches []*colorSwatch
	status   *widget.Label
	object   fyne.CanvasObject
}

func newToolbar(s *state.Session, onExport func()) *toolbar {
	t := &toolbar{session: s, status: widget.NewLabel("")}

	pens := s.Tools().Pens()
	penBox := container.NewHBox()
	for i, p := range pens {
		sw := newColorSwatch(p.Color, func() {
			s.PointerDown(state.Hit{Target: state.TargetPen, Pen: i})
		})
		t.swatches = append(t.swatches, sw)
		penBox.Add(sw)
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() {
			s.PointerDown(state.Hit{Target: state.TargetHolder})
		}), // Return pen to holder
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			s.PointerDown(state.Hit{Target: state.TargetEraser})
		}), // Eraser
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), s.ClearLayer),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)

	t.object = container.NewHBox(
		widget.NewLabel("Pens:"),
		penBox,
		widget.NewSeparator(),
		tb,
		widget.NewSeparator(),
		t.status,
	)
	t.Update()
	return t
}

// Update reflects the hand in the swatches and the status line.
func (t *toolbar) Update() {
	pen, held, ok := t.session.Tools().Pen()
	for i, sw := range t.swatches {
		sw.SetSelected(ok && i == held)
	}
	t.status.SetText(toolStatus(t.session.Tools().State(), pen))
}

func toolStatus(st state.ToolState, pen state.Pen) string {
	switch st {
	case state.HoldingPen:
		return fmt.Sprintf("Drawing with the %s pen", pen.Name)
	case state.HoldingEraser:
		return "Holding the eraser"
	}
	return "Pick a pen or the eraser"
}
