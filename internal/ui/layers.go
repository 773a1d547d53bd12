package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"PaperPen/internal/state"
)

// layerPanel lists the layers, top of the stack first, and edits them.
type layerPanel struct {
	session *state.Session
	list    *widget.List
	object  fyne.CanvasObject
}

func newLayerPanel(s *state.Session, win fyne.Window) *layerPanel {
	p := &layerPanel{session: s}
	store := s.Store()

	p.list = widget.NewList(
		store.Len,
		func() fyne.CanvasObject { return widget.NewLabel("Layer 00") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if l, err := store.Layer(p.layerAt(id)); err == nil {
				o.(*widget.Label).SetText(l.Name)
			}
		},
	)
	p.list.OnSelected = func(id widget.ListItemID) {
		if i := p.layerAt(id); i != store.ActiveIndex() {
			_ = s.SelectLayer(i)
		}
	}

	add := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() {
		s.CreateLayer("")
	})
	remove := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() {
		_ = s.DeleteLayer(store.ActiveIndex())
	})
	rename := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		p.showRename(win)
	})

	p.object = container.NewBorder(
		widget.NewLabel("Layers"),
		container.NewHBox(add, remove, rename),
		nil, nil,
		p.list,
	)
	p.Update()
	return p
}

// layerAt maps a list row to a store index; the list shows the top layer
// first.
func (p *layerPanel) layerAt(id widget.ListItemID) int {
	return p.session.Store().Len() - 1 - id
}

// Update redraws the rows and highlights the active layer.
func (p *layerPanel) Update() {
	p.list.Refresh()
	p.list.Select(p.layerAt(p.session.Store().ActiveIndex()))
}

func (p *layerPanel) showRename(win fyne.Window) {
	store := p.session.Store()
	i := store.ActiveIndex()
	entry := widget.NewEntry()
	entry.SetText(store.Active().Name)
	dialog.ShowForm("Rename layer", "Rename", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if ok && entry.Text != "" {
				_ = p.session.RenameLayer(i, entry.Text)
			}
		}, win)
}
