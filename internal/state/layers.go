package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"PaperPen/internal/paint"
)

// ErrOutOfRange is returned for a layer index that does not exist.
var ErrOutOfRange = errors.New("state: layer index out of range")

// Store is the ordered collection of layers. It always holds at least
// one layer and its active index always points at an existing one.
type Store struct {
	layers        []*Layer
	active        int
	width, height int
	mode          paint.EraseMode

	// OnChange is called after every structural mutation.
	OnChange func(Change)
}

// NewStore creates a store with count blank layers of w x h pixels.
// A count below one still creates a single layer.
func NewStore(w, h int, mode paint.EraseMode, count int) *Store {
	s := &Store{width: w, height: h, mode: mode}
	for range max(count, 1) {
		s.Create("")
	}
	return s
}

// Create appends a blank layer and returns its index. An empty name
// becomes "Layer n", n being the 1-based position at creation. The
// active layer does not change.
func (s *Store) Create(name string) int {
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(s.layers)+1)
	}
	surface := paint.NewSurface(s.width, s.height)
	s.mode.Blank(surface)
	surface.TakeDirty()

	l := &Layer{ID: uuid.New(), Name: name, Surface: surface}
	s.layers = append(s.layers, l)
	i := len(s.layers) - 1
	s.notify(Change{Kind: LayerAdded, Index: i, Layer: l})
	return i
}

// Delete removes the layer at i. Removing the last remaining layer is
// silently ignored.
func (s *Store) Delete(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	if len(s.layers) == 1 {
		return nil
	}
	l := s.layers[i]
	s.layers = slices.Delete(s.layers, i, i+1)
	s.active = min(s.active, len(s.layers)-1)
	s.notify(Change{Kind: LayerRemoved, Index: i, Layer: l})
	return nil
}

// Rename changes the label of the layer at i.
func (s *Store) Rename(i int, name string) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.layers[i].Name = name
	s.notify(Change{Kind: LayerRenamed, Index: i, Layer: s.layers[i]})
	return nil
}

// SetActive selects the layer strokes go to.
func (s *Store) SetActive(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.active = i
	s.notify(Change{Kind: LayerSelected, Index: i, Layer: s.layers[i]})
	return nil
}

// Clear resets the surface of the layer at i to blank.
func (s *Store) Clear(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.mode.Blank(s.layers[i].Surface)
	return nil
}

// Len returns the number of layers.
func (s *Store) Len() int { return len(s.layers) }

// ActiveIndex returns the index of the active layer.
func (s *Store) ActiveIndex() int { return s.active }

// Active returns the active layer.
func (s *Store) Active() *Layer { return s.layers[s.active] }

// Layer returns the layer at i.
func (s *Store) Layer(i int) (*Layer, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	return s.layers[i], nil
}

// Layers returns the layers in compositing order. The slice is a copy;
// the layers are shared.
func (s *Store) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Surfaces returns every layer surface in compositing order.
func (s *Store) Surfaces() []*paint.Surface {
	out := make([]*paint.Surface, len(s.layers))
	for i, l := range s.layers {
		out[i] = l.Surface
	}
	return out
}

// Index returns the position of the layer with the given id, or -1.
func (s *Store) Index(id uuid.UUID) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) check(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, len(s.layers))
	}
	return nil
}

func (s *Store) notify(c Change) {
	if s.OnChange != nil {
		s.OnChange(c)
	}
}
