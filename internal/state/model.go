package state

import (
	"image"
	"time"

	"github.com/google/uuid"

	"PaperPen/internal/paint"
)

// Layer is one independently paintable sheet. Layers composite in store
// order, first at the bottom.
type Layer struct {
	ID      uuid.UUID
	Name    string
	Surface *paint.Surface
}

// ChangeKind names a structural mutation of the layer store.
type ChangeKind uint8

const (
	LayerAdded ChangeKind = iota
	LayerRemoved
	LayerRenamed
	LayerSelected
)

func (k ChangeKind) String() string {
	switch k {
	case LayerAdded:
		return "added"
	case LayerRemoved:
		return "removed"
	case LayerRenamed:
		return "renamed"
	case LayerSelected:
		return "selected"
	}
	return "unknown"
}

// Change describes one structural mutation. Index is the position the
// layer had when the change happened.
type Change struct {
	Kind  ChangeKind
	Index int
	Layer *Layer
}

// Target is the logical object a pointer-down landed on, already
// resolved by the picking collaborator.
type Target uint8

const (
	TargetNone Target = iota
	TargetPaper
	TargetPen
	TargetHolder
	TargetEraser
)

// Hit is the pick result delivered on pointer-down. OnPaper reports
// whether the ray also crossed the paper, in which case Point and UV
// locate the crossing.
type Hit struct {
	Target  Target
	Pen     int
	OnPaper bool
	Point   paint.Vec3
	UV      paint.UV
	Time    time.Time
}

// Sample returns the paper crossing of the hit as a pointer sample.
func (h Hit) Sample() paint.Sample {
	return paint.Sample{Point: h.Point, UV: h.UV, Time: h.Time}
}

// EventKind classifies session notifications.
type EventKind uint8

const (
	// EventLayersChanged follows any add, remove, rename or select.
	EventLayersChanged EventKind = iota
	// EventSurfaceDirty asks the renderer to re-upload part of a layer.
	EventSurfaceDirty
	// EventToolChanged follows a pick, return or eraser toggle.
	EventToolChanged
	// EventGesture marks the start or end of a stroke.
	EventGesture
)

func (k EventKind) String() string {
	switch k {
	case EventLayersChanged:
		return "layers"
	case EventSurfaceDirty:
		return "dirty"
	case EventToolChanged:
		return "tool"
	case EventGesture:
		return "gesture"
	}
	return "unknown"
}

// Event is a notification emitted by a session.
type Event struct {
	Kind    EventKind
	Seq     uint64
	Session string

	// Layer events and dirty notifications.
	Change  ChangeKind
	Index   int
	LayerID uuid.UUID
	Rect    image.Rectangle

	// Tool and gesture events.
	Tool    ToolState
	Pen     int
	Drawing bool
}
