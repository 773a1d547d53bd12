package state

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
)

func uvSample(u, v float64) paint.Sample {
	return paint.Sample{
		Point: paint.Vec3{X: (u - 0.5) * 10, Z: (0.5 - v) * 7},
		UV:    paint.UV{U: u, V: v},
		Time:  time.Unix(0, 0),
	}
}

func paperHit(u, v float64) Hit {
	s := uvSample(u, v)
	return Hit{Target: TargetPaper, OnPaper: true, Point: s.Point, UV: s.UV, Time: s.Time}
}

func newTestSession(t *testing.T, size int) (*Session, *[]Event) {
	t.Helper()
	opts := DefaultOptions()
	opts.Width, opts.Height = size, size
	s := NewSession(opts)
	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })
	return s, &events
}

func stroke(s *Session, from, to paint.UV, moves int) {
	s.PointerDown(paperHit(from.U, from.V))
	for i := 1; i <= moves; i++ {
		p := from.Lerp(to, float64(i)/float64(moves))
		s.PointerMove(uvSample(p.U, p.V))
	}
	s.PointerUp()
}

func TestStrokeLandsOnActiveLayerOnly(t *testing.T) {
	s, _ := newTestSession(t, 1024)
	require.Equal(t, 5, s.Store().Len())
	require.NoError(t, s.SelectLayer(2))

	before := make([]*image.RGBA, 5)
	for i, l := range s.Store().Layers() {
		before[i] = l.Surface.Snapshot()
	}

	require.True(t, s.PickPen(2))
	stroke(s, paint.UV{U: 0.1, V: 0.1}, paint.UV{U: 0.2, V: 0.1}, 10)

	for i, l := range s.Store().Layers() {
		if i == 2 {
			continue
		}
		assert.Equal(t, before[i].Pix, l.Surface.Image().Pix, "layer %d", i)
	}

	// The line runs along y = 0.9*1024 from x = 102 to x = 204.
	painted := s.Store().Active().Surface
	for _, x := range []int{110, 153, 200} {
		px := painted.At(x, 921)
		assert.Zero(t, px.R, "x=%d", x)
		assert.Zero(t, px.G, "x=%d", x)
		assert.Greater(t, px.B, uint8(200), "x=%d", x)
	}
	assert.Equal(t, color.RGBA{}, painted.At(153, 400))
}

func TestNoStrokeWithoutTool(t *testing.T) {
	s, events := newTestSession(t, 64)
	stroke(s, paint.UV{U: 0.2, V: 0.2}, paint.UV{U: 0.8, V: 0.8}, 5)
	assert.False(t, s.Drawing())
	assert.Empty(t, *events)
	for _, l := range s.Store().Layers() {
		assert.True(t, l.Surface.Dirty().Empty())
	}
}

func TestPointerDownPicksTools(t *testing.T) {
	s, _ := newTestSession(t, 64)

	s.PointerDown(Hit{Target: TargetPen, Pen: 0})
	_, pen, ok := s.Tools().Pen()
	require.True(t, ok)
	assert.Equal(t, 0, pen)
	assert.False(t, s.Drawing())

	// The eraser cannot be taken with a pen in hand.
	s.PointerDown(Hit{Target: TargetEraser})
	assert.Equal(t, HoldingPen, s.Tools().State())

	s.PointerDown(Hit{Target: TargetHolder})
	assert.Equal(t, Idle, s.Tools().State())

	s.PointerDown(Hit{Target: TargetEraser})
	assert.Equal(t, HoldingEraser, s.Tools().State())

	// Pens and the holder ignore an eraser-holding hand, even over paper.
	h := paperHit(0.5, 0.5)
	h.Target, h.Pen = TargetPen, 1
	s.PointerDown(h)
	assert.Equal(t, HoldingEraser, s.Tools().State())
	assert.False(t, s.Drawing())

	s.PointerDown(Hit{Target: TargetEraser})
	assert.Equal(t, Idle, s.Tools().State())
}

func TestPenPickedOverPaperStartsStroke(t *testing.T) {
	s, _ := newTestSession(t, 64)
	h := paperHit(0.5, 0.5)
	h.Target, h.Pen = TargetPen, 3
	s.PointerDown(h)
	assert.Equal(t, HoldingPen, s.Tools().State())
	assert.True(t, s.Drawing())
}

func TestToolsLockedMidGesture(t *testing.T) {
	s, events := newTestSession(t, 64)
	require.True(t, s.PickPen(1))
	s.PointerDown(paperHit(0.5, 0.5))
	require.True(t, s.Drawing())

	assert.False(t, s.ReturnPen())
	assert.False(t, s.PickPen(0))
	assert.False(t, s.ToggleEraser())
	_, pen, _ := s.Tools().Pen()
	assert.Equal(t, 1, pen)

	s.PointerUp()
	s.PointerUp()
	assert.False(t, s.Drawing())
	assert.True(t, s.ReturnPen())

	var gestures []bool
	for _, ev := range *events {
		if ev.Kind == EventGesture {
			gestures = append(gestures, ev.Drawing)
		}
	}
	assert.Equal(t, []bool{true, false}, gestures)
}

func TestMoveWithoutGestureIsDropped(t *testing.T) {
	s, events := newTestSession(t, 64)
	require.True(t, s.PickPen(0))
	*events = nil
	s.PointerMove(uvSample(0.5, 0.5))
	assert.Empty(t, *events)
	assert.True(t, s.Store().Active().Surface.Dirty().Empty())
}

func TestOffPaperSamplesDoNotPaint(t *testing.T) {
	s, _ := newTestSession(t, 64)
	require.True(t, s.PickPen(0))
	s.PointerDown(paperHit(0.5, 0.5))
	surf := s.Store().Active().Surface
	surf.TakeDirty()
	s.PointerMove(uvSample(1.5, 0.5))
	assert.True(t, surf.Dirty().Empty())
	s.PointerUp()
}

func TestDirtyEvents(t *testing.T) {
	s, events := newTestSession(t, 64)
	require.True(t, s.PickPen(0))
	s.PointerDown(paperHit(0.25, 0.25))
	s.PointerMove(uvSample(0.3, 0.25))

	var dirty []Event
	for _, ev := range *events {
		if ev.Kind == EventSurfaceDirty {
			dirty = append(dirty, ev)
		}
	}
	require.Len(t, dirty, 1)
	assert.Equal(t, 0, dirty[0].Index)
	assert.Equal(t, s.Store().Active().ID, dirty[0].LayerID)
	assert.True(t, dirty[0].Rect.Overlaps(image.Rect(16, 47, 20, 49)))
}

func TestEventsAreSequenced(t *testing.T) {
	s, events := newTestSession(t, 16)
	s.CreateLayer("")
	require.NoError(t, s.RenameLayer(5, "top"))
	require.NoError(t, s.SelectLayer(5))
	require.NoError(t, s.DeleteLayer(0))
	require.ErrorIs(t, s.DeleteLayer(42), ErrOutOfRange)

	require.Len(t, *events, 4)
	for i, ev := range *events {
		assert.Equal(t, EventLayersChanged, ev.Kind)
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, s.ID(), ev.Session)
	}
	assert.Equal(t, LayerRemoved, (*events)[3].Change)
	assert.Equal(t, 4, s.Store().ActiveIndex())
	assert.Equal(t, "top", s.Store().Active().Name)
}

func TestClearLayer(t *testing.T) {
	s, events := newTestSession(t, 64)
	require.True(t, s.PickPen(3))
	s.PointerDown(paperHit(0.5, 0.5))
	s.PointerMove(uvSample(0.6, 0.5))
	*events = nil

	s.ClearLayer()
	assert.False(t, s.Drawing())
	assert.Equal(t, Idle, s.Tools().State())
	surf := s.Store().Active().Surface
	assert.Equal(t, make([]uint8, len(surf.Image().Pix)), surf.Image().Pix)

	kinds := make([]EventKind, len(*events))
	for i, ev := range *events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []EventKind{EventGesture, EventSurfaceDirty, EventToolChanged}, kinds)
	assert.Equal(t, surf.Bounds(), (*events)[1].Rect)

	// A move after the clear has no gesture to extend.
	s.PointerMove(uvSample(0.7, 0.5))
	assert.Zero(t, surf.Image().Pix[3])
}

func TestEraserEmptiesPaint(t *testing.T) {
	s, _ := newTestSession(t, 64)
	surf := s.Store().Active().Surface
	surf.Fill(color.NRGBA{R: 255, A: 255})

	require.True(t, s.ToggleEraser())
	s.PointerDown(paperHit(0.5, 0.5))
	for range 50 {
		s.PointerMove(uvSample(0.5, 0.5))
	}
	s.PointerUp()
	assert.Equal(t, color.RGBA{}, surf.At(32, 32))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, surf.At(0, 0))
}

func TestDisplayFollowsActiveLayer(t *testing.T) {
	s, _ := newTestSession(t, 32)
	s.Store().Layers()[1].Surface.Fill(color.NRGBA{G: 255, A: 255})

	assert.Equal(t, color.RGBA{}, s.Display().RGBAAt(4, 4))
	require.NoError(t, s.SelectLayer(1))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, s.Display().RGBAAt(4, 4))
}

func TestSessionExport(t *testing.T) {
	s, _ := newTestSession(t, 16)
	s.Store().Layers()[0].Surface.Fill(color.NRGBA{R: 255, A: 255})
	require.NoError(t, s.SelectLayer(1))

	all, err := s.Export(export.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Layer_2.png", all.Filename)

	opts := export.DefaultOptions()
	opts.AllLayers = false
	opts.Scale = 2
	active, err := s.Export(opts)
	require.NoError(t, err)
	assert.Equal(t, 32, active.Width)
	assert.NotEqual(t, all.Data, active.Data)

	opts.Format = "tiff"
	_, err = s.Export(opts)
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
