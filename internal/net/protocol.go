package net

import (
	"errors"
	"fmt"
	"time"

	"PaperPen/internal/export"
	"PaperPen/internal/paint"
	"PaperPen/internal/state"
)

// ErrUnknownMessage is returned by Apply for a message type it does not
// handle.
var ErrUnknownMessage = errors.New("net: unknown message type")

// Message types sent by remote input devices.
const (
	MsgDown         = "down"
	MsgMove         = "move"
	MsgUp           = "up"
	MsgPickPen      = "pick_pen"
	MsgReturnPen    = "return_pen"
	MsgToggleEraser = "toggle_eraser"
	MsgAddLayer     = "add_layer"
	MsgDeleteLayer  = "delete_layer"
	MsgRenameLayer  = "rename_layer"
	MsgSelectLayer  = "select_layer"
	MsgClearLayer   = "clear_layer"
	MsgExport       = "export"
)

// Notice types sent back to every client.
const (
	NoticeLayers  = "layers"
	NoticeDirty   = "dirty"
	NoticeTool    = "tool"
	NoticeGesture = "gesture"
	NoticeExport  = "export"
	NoticeError   = "error"
)

// Message is one line of remote input. Fields unused by a type are
// ignored.
type Message struct {
	Type string `json:"type"`

	// down: what the pointer landed on. An empty target with a uv means
	// the paper.
	Target string      `json:"target,omitempty"`
	Pen    int         `json:"pen,omitempty"`
	Point  *paint.Vec3 `json:"point,omitempty"`
	UV     *paint.UV   `json:"uv,omitempty"`
	Time   time.Time   `json:"time,omitzero"`

	Layer int    `json:"layer,omitempty"`
	Name  string `json:"name,omitempty"`

	// export overrides; zero values keep the configured defaults.
	Format        string `json:"format,omitempty"`
	Scale         int    `json:"scale,omitempty"`
	Interpolation string `json:"interpolation,omitempty"`
	AllLayers     *bool  `json:"all_layers,omitempty"`
}

// LayerInfo describes one layer in a layers notice.
type LayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Rect is a pixel rectangle, max exclusive.
type Rect struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// Notice is a server to client notification.
type Notice struct {
	Type    string `json:"type"`
	Seq     uint64 `json:"seq,omitempty"`
	Session string `json:"session,omitempty"`

	Change string      `json:"change,omitempty"`
	Index  int         `json:"index"`
	Layer  string      `json:"layer,omitempty"`
	Layers []LayerInfo `json:"layers,omitempty"`
	Active int         `json:"active"`
	Rect   *Rect       `json:"rect,omitempty"`

	Tool    string `json:"tool,omitempty"`
	Pen     int    `json:"pen"`
	Drawing bool   `json:"drawing"`

	File   string `json:"file,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Data   []byte `json:"data,omitempty"`

	Error string `json:"error,omitempty"`
}

func (m Message) sample() (paint.Sample, bool) {
	if m.UV == nil {
		return paint.Sample{}, false
	}
	s := paint.Sample{UV: *m.UV, Time: m.Time}
	if m.Point != nil {
		s.Point = *m.Point
	}
	return s, true
}

func (m Message) hit() (state.Hit, error) {
	h := state.Hit{Pen: m.Pen}
	switch m.Target {
	case "", "paper":
		h.Target = state.TargetPaper
	case "pen":
		h.Target = state.TargetPen
	case "holder":
		h.Target = state.TargetHolder
	case "eraser":
		h.Target = state.TargetEraser
	case "none":
		h.Target = state.TargetNone
	default:
		return h, fmt.Errorf("%w: target %q", ErrUnknownMessage, m.Target)
	}
	if s, ok := m.sample(); ok {
		h.OnPaper = s.UV.OnPaper()
		h.Point, h.UV, h.Time = s.Point, s.UV, s.Time
	}
	return h, nil
}

func (m Message) exportOptions(def export.Options) (export.Options, error) {
	opts := def
	if m.Format != "" {
		f, err := export.ParseFormat(m.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if m.Scale != 0 {
		opts.Scale = m.Scale
	}
	if m.Interpolation != "" {
		i, err := export.ParseInterpolation(m.Interpolation)
		if err != nil {
			return opts, err
		}
		opts.Interpolation = i
	}
	if m.AllLayers != nil {
		opts.AllLayers = *m.AllLayers
	}
	return opts, nil
}

// Apply performs m on s. An export message returns the encoded artifact.
// Must run on the goroutine that owns s.
func Apply(s *state.Session, m Message, exportDefaults export.Options) (*export.Artifact, error) {
	switch m.Type {
	case MsgDown:
		h, err := m.hit()
		if err != nil {
			return nil, err
		}
		s.PointerDown(h)
	case MsgMove:
		if sample, ok := m.sample(); ok {
			s.PointerMove(sample)
		}
	case MsgUp:
		s.PointerUp()
	case MsgPickPen:
		s.PickPen(m.Pen)
	case MsgReturnPen:
		s.ReturnPen()
	case MsgToggleEraser:
		s.ToggleEraser()
	case MsgAddLayer:
		s.CreateLayer(m.Name)
	case MsgDeleteLayer:
		return nil, s.DeleteLayer(m.Layer)
	case MsgRenameLayer:
		return nil, s.RenameLayer(m.Layer, m.Name)
	case MsgSelectLayer:
		return nil, s.SelectLayer(m.Layer)
	case MsgClearLayer:
		s.ClearLayer()
	case MsgExport:
		opts, err := m.exportOptions(exportDefaults)
		if err != nil {
			return nil, err
		}
		art, err := s.Export(opts)
		if err != nil {
			return nil, err
		}
		return &art, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return nil, nil
}

// EventNotice converts a session event for the wire. Layer notices carry
// the full layer list so clients never have to patch their own copy.
func EventNotice(s *state.Session, ev state.Event) Notice {
	n := Notice{
		Type:    ev.Kind.String(),
		Seq:     ev.Seq,
		Session: ev.Session,
		Index:   ev.Index,
		Pen:     -1,
	}
	switch ev.Kind {
	case state.EventLayersChanged:
		n = withLayers(n, s)
		n.Change = ev.Change.String()
		n.Layer = ev.LayerID.String()
	case state.EventSurfaceDirty:
		n.Layer = ev.LayerID.String()
		n.Rect = &Rect{ev.Rect.Min.X, ev.Rect.Min.Y, ev.Rect.Max.X, ev.Rect.Max.Y}
	case state.EventToolChanged, state.EventGesture:
		n.Tool = ev.Tool.String()
		n.Pen = ev.Pen
		n.Drawing = ev.Drawing
		if ev.Kind == state.EventGesture {
			_, n.Pen, _ = s.Tools().Pen()
		}
	}
	return n
}

// LayersNotice describes the current layer list, sent to new clients.
func LayersNotice(s *state.Session) Notice {
	n := withLayers(Notice{Type: NoticeLayers, Session: s.ID(), Pen: -1}, s)
	n.Index = n.Active
	return n
}

func withLayers(n Notice, s *state.Session) Notice {
	layers := s.Store().Layers()
	n.Layers = make([]LayerInfo, len(layers))
	for i, l := range layers {
		n.Layers[i] = LayerInfo{ID: l.ID.String(), Name: l.Name}
	}
	n.Active = s.Store().ActiveIndex()
	return n
}

// ExportNotice carries an export back to the client that asked for it.
func ExportNotice(art *export.Artifact) Notice {
	return Notice{
		Type:   NoticeExport,
		Pen:    -1,
		File:   art.Filename,
		Width:  art.Width,
		Height: art.Height,
		Data:   art.Data,
	}
}

// ErrorNotice reports a failed message to its sender.
func ErrorNotice(err error) Notice {
	return Notice{Type: NoticeError, Pen: -1, Error: err.Error()}
}
