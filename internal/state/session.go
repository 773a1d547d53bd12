package state

import (
	"image"
	"image/color"
	"log/slog"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
)

// Options configures a session.
type Options struct {
	Width, Height int
	// Layers is the number of layers created up front.
	Layers     int
	EraseMode  paint.EraseMode
	Brush      paint.Brush
	Pens       []Pen
	Background image.Image
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultPens is the stock holder: red, green, blue and black.
func DefaultPens() []Pen {
	return []Pen{
		{Name: "red", Color: color.NRGBA{R: 255, A: 255}},
		{Name: "green", Color: color.NRGBA{G: 128, A: 255}},
		{Name: "blue", Color: color.NRGBA{B: 255, A: 255}},
		{Name: "black", Color: color.NRGBA{A: 255}},
	}
}

// DefaultOptions returns a 1024x1024 sheet with five transparent layers.
func DefaultOptions() Options {
	return Options{
		Width:     1024,
		Height:    1024,
		Layers:    5,
		EraseMode: paint.EraseToTransparent,
		Brush:     paint.DefaultBrush(),
		Pens:      DefaultPens(),
	}
}

// Session is the context object for one sheet of paper: its layers, the
// hand holding tools, the stroke in progress and the compositor. All
// methods must be called from a single goroutine.
type Session struct {
	store   *Store
	tools   *Tools
	raster  *paint.Rasterizer
	comp    *export.Compositor
	events  *emitter
	log     *slog.Logger
	drawing bool
	stale   bool
}

// NewSession builds a session from opts.
func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		tools:  NewTools(opts.Pens),
		raster: paint.NewRasterizer(opts.Brush, opts.EraseMode),
		comp:   export.NewCompositor(opts.Width, opts.Height),
		events: newEmitter(),
		log:    log,
		stale:  true,
	}
	s.comp.SetBackground(opts.Background)
	s.store = NewStore(opts.Width, opts.Height, opts.EraseMode, opts.Layers)
	s.store.OnChange = s.layersChanged
	s.log.Info("[session] ready", "id", s.events.session,
		"size", image.Pt(opts.Width, opts.Height), "layers", s.store.Len(), "erase", opts.EraseMode)
	return s
}

// ID returns the session id stamped on every event.
func (s *Session) ID() string { return s.events.session }

// Store gives read access to the layers. Mutate through the session so
// that notifications fire.
func (s *Session) Store() *Store { return s.store }

// Tools gives read access to the hand.
func (s *Session) Tools() *Tools { return s.tools }

// Drawing reports whether a gesture is in progress.
func (s *Session) Drawing() bool { return s.drawing }

// Subscribe registers l for every future event.
func (s *Session) Subscribe(l Listener) { s.events.subscribe(l) }

// PointerDown handles a pick. Tool actions resolve first; then, when the
// pick also crossed the paper with a tool in hand, a gesture begins.
func (s *Session) PointerDown(hit Hit) {
	s.endGesture()

	eraser := s.tools.State() == HoldingEraser
	switch hit.Target {
	case TargetEraser:
		if s.tools.State() != HoldingPen {
			s.toggleEraser()
			return
		}
	case TargetPen:
		if eraser {
			return
		}
		s.pickPen(hit.Pen)
	case TargetHolder:
		if eraser {
			return
		}
		s.returnPen()
	}

	if !hit.OnPaper || !s.tools.Holding() {
		return
	}
	if !s.raster.Begin(hit.Sample()) {
		return
	}
	s.drawing = true
	s.emit(Event{Kind: EventGesture, Drawing: true, Tool: s.tools.State()})
}

// PointerMove extends the stroke in progress. Samples arriving while no
// gesture is active, or off the paper, are dropped.
func (s *Session) PointerMove(sample paint.Sample) {
	if !s.drawing {
		return
	}
	nib, ok := s.tools.Nib()
	if !ok {
		return
	}
	layer := s.store.Active()
	changed := s.raster.Extend(layer.Surface, nib, sample)
	if changed.Empty() {
		return
	}
	s.stale = true
	s.emit(Event{
		Kind:    EventSurfaceDirty,
		Index:   s.store.ActiveIndex(),
		LayerID: layer.ID,
		Rect:    changed,
	})
}

// PointerUp ends any gesture, wherever the pointer was released.
func (s *Session) PointerUp() {
	s.endGesture()
}

func (s *Session) endGesture() {
	s.raster.End()
	if !s.drawing {
		return
	}
	s.drawing = false
	s.emit(Event{Kind: EventGesture, Drawing: false, Tool: s.tools.State()})
}

// PickPen takes pen i from the holder. Ignored mid-gesture.
func (s *Session) PickPen(i int) bool {
	if s.drawing {
		return false
	}
	return s.pickPen(i)
}

// ReturnPen puts the held pen back. Ignored mid-gesture.
func (s *Session) ReturnPen() bool {
	if s.drawing {
		return false
	}
	return s.returnPen()
}

// ToggleEraser picks up or puts back the eraser. Ignored mid-gesture.
func (s *Session) ToggleEraser() bool {
	if s.drawing {
		return false
	}
	return s.toggleEraser()
}

func (s *Session) pickPen(i int) bool {
	return s.toolChanged(s.tools.PickPen(i))
}

func (s *Session) returnPen() bool {
	return s.toolChanged(s.tools.ReturnPen())
}

func (s *Session) toggleEraser() bool {
	return s.toolChanged(s.tools.ToggleEraser())
}

func (s *Session) toolChanged(ok bool) bool {
	if !ok {
		return false
	}
	_, pen, _ := s.tools.Pen()
	s.log.Debug("[tools] changed", "state", s.tools.State(), "pen", pen)
	s.emit(Event{Kind: EventToolChanged, Tool: s.tools.State(), Pen: pen})
	return true
}

// CreateLayer appends a layer; see Store.Create.
func (s *Session) CreateLayer(name string) int {
	return s.store.Create(name)
}

// DeleteLayer removes a layer; see Store.Delete.
func (s *Session) DeleteLayer(i int) error {
	return s.store.Delete(i)
}

// RenameLayer relabels a layer; see Store.Rename.
func (s *Session) RenameLayer(i int, name string) error {
	return s.store.Rename(i, name)
}

// SelectLayer makes layer i the one strokes paint into.
func (s *Session) SelectLayer(i int) error {
	return s.store.SetActive(i)
}

// ClearLayer blanks the active layer, puts every tool back and drops
// the gesture in progress.
func (s *Session) ClearLayer() {
	s.endGesture()
	i := s.store.ActiveIndex()
	layer := s.store.Active()
	if err := s.store.Clear(i); err != nil {
		s.log.Error("[layers] clear failed", "index", i, "err", err)
		return
	}
	s.stale = true
	s.emit(Event{Kind: EventSurfaceDirty, Index: i, LayerID: layer.ID, Rect: layer.Surface.Bounds()})
	s.toolChanged(s.tools.PutDown())
}

func (s *Session) layersChanged(c Change) {
	s.stale = true
	s.log.Debug("[layers] "+c.Kind.String(), "index", c.Index, "name", c.Layer.Name, "count", s.store.Len())
	s.emit(Event{Kind: EventLayersChanged, Change: c.Kind, Index: c.Index, LayerID: c.Layer.ID})
}

// SetBackground replaces the image shown under the active layer.
func (s *Session) SetBackground(img image.Image) {
	s.comp.SetBackground(img)
	s.stale = true
}

// Display returns the background with the active layer on top. The
// image is rebuilt only when something changed since the last call and
// is reused between calls.
func (s *Session) Display() *image.RGBA {
	if s.stale {
		s.comp.Display(s.store.Active().Surface)
		s.stale = false
	}
	return s.comp.Current()
}

// Export composites and encodes the sheet. Failures are logged and
// returned; the session is unaffected.
func (s *Session) Export(opts export.Options) (export.Artifact, error) {
	layers := []*paint.Surface{s.store.Active().Surface}
	if opts.AllLayers {
		layers = s.store.Surfaces()
	}
	art, err := s.comp.Export(layers, s.store.Active().Name, opts)
	if err != nil {
		s.log.Warn("[export] failed", "format", opts.Format, "scale", opts.Scale, "err", err)
		return export.Artifact{}, err
	}
	s.log.Info("[export] done", "file", art.Filename, "bytes", len(art.Data),
		"size", image.Pt(art.Width, art.Height))
	return art, nil
}

func (s *Session) emit(ev Event) {
	s.events.emit(ev)
}
