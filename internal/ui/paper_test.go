package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"

	"PaperPen/internal/state"
)

func TestPaperRectKeepsSheetAspect(t *testing.T) {
	pos, sz := paperRect(fyne.NewSize(1032, 1032))
	assert.InDelta(t, 1000, sz.Width, 0.01)
	assert.InDelta(t, 700, sz.Height, 0.01)
	assert.InDelta(t, 16, pos.X, 0.01)
	assert.InDelta(t, 166, pos.Y, 0.01)

	_, sz = paperRect(fyne.NewSize(10, 10))
	assert.Zero(t, sz.Width)
}

func TestPointerSampleMapsCorners(t *testing.T) {
	size := fyne.NewSize(1032, 1032)
	now := time.Unix(5, 0)

	// Top-left corner of the sheet is UV (0,1).
	s := pointerSample(fyne.NewPos(16, 166), size, now)
	assert.InDelta(t, 0, s.UV.U, 1e-6)
	assert.InDelta(t, 1, s.UV.V, 1e-6)
	assert.InDelta(t, -5, s.Point.X, 1e-4)
	assert.InDelta(t, -3.5, s.Point.Z, 1e-4)
	assert.Equal(t, now, s.Time)

	s = pointerSample(fyne.NewPos(516, 516), size, now)
	assert.InDelta(t, 0.5, s.UV.U, 1e-6)
	assert.InDelta(t, 0.5, s.UV.V, 1e-6)
	assert.True(t, s.UV.OnPaper())

	s = pointerSample(fyne.NewPos(516, 100), size, now)
	assert.False(t, s.UV.OnPaper(), "the desk above the sheet")

	s = pointerSample(fyne.NewPos(1, 1), fyne.NewSize(4, 4), now)
	assert.False(t, s.UV.OnPaper())
}

func TestToolStatus(t *testing.T) {
	assert.Equal(t, "Drawing with the blue pen", toolStatus(state.HoldingPen, state.Pen{Name: "blue"}))
	assert.Equal(t, "Holding the eraser", toolStatus(state.HoldingEraser, state.Pen{}))
	assert.Equal(t, "Pick a pen or the eraser", toolStatus(state.Idle, state.Pen{}))
}
