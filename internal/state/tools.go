package state

import (
	"image/color"

	"PaperPen/internal/paint"
)

// ToolState is what the hand currently holds.
type ToolState uint8

const (
	Idle ToolState = iota
	HoldingPen
	HoldingEraser
)

func (t ToolState) String() string {
	switch t {
	case HoldingPen:
		return "pen"
	case HoldingEraser:
		return "eraser"
	}
	return "idle"
}

// Pen is one pen in the holder.
type Pen struct {
	Name  string
	Color color.NRGBA
}

// Tools tracks which tool is held. At most one tool is held at a time
// and pens and the eraser exclude each other.
type Tools struct {
	state ToolState
	pen   int
	pens  []Pen
}

// NewTools returns an idle hand next to the given pens.
func NewTools(pens []Pen) *Tools {
	return &Tools{pens: pens, pen: -1}
}

// State returns the current state.
func (t *Tools) State() ToolState { return t.state }

// Pens returns the pens in holder order.
func (t *Tools) Pens() []Pen { return t.pens }

// Pen returns the held pen and its index.
func (t *Tools) Pen() (Pen, int, bool) {
	if t.state != HoldingPen {
		return Pen{}, -1, false
	}
	return t.pens[t.pen], t.pen, true
}

// Holding reports whether any tool is in hand.
func (t *Tools) Holding() bool { return t.state != Idle }

// Nib returns the tip of the held tool.
func (t *Tools) Nib() (paint.Nib, bool) {
	switch t.state {
	case HoldingPen:
		return paint.Nib{Color: t.pens[t.pen].Color}, true
	case HoldingEraser:
		return paint.Nib{Eraser: true}, true
	}
	return paint.Nib{}, false
}

// PickPen takes pen i out of the holder. Only an idle hand can pick.
func (t *Tools) PickPen(i int) bool {
	if t.state != Idle || i < 0 || i >= len(t.pens) {
		return false
	}
	t.state, t.pen = HoldingPen, i
	return true
}

// ReturnPen puts the held pen back in the holder.
func (t *Tools) ReturnPen() bool {
	if t.state != HoldingPen {
		return false
	}
	t.state, t.pen = Idle, -1
	return true
}

// ToggleEraser picks the eraser up or puts it back. It is ignored while
// a pen is held.
func (t *Tools) ToggleEraser() bool {
	switch t.state {
	case Idle:
		t.state = HoldingEraser
	case HoldingEraser:
		t.state = Idle
	default:
		return false
	}
	return true
}

// PutDown returns whatever is held.
func (t *Tools) PutDown() bool {
	if t.state == Idle {
		return false
	}
	t.state, t.pen = Idle, -1
	return true
}
