// Package ui is the desktop front-end: the paper, the pen holder and the
// layer list in one window.
package ui

import (
	"context"
	"image"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"PaperPen/internal/export"
	"PaperPen/internal/state"
)

// Options configures the window.
type Options struct {
	Title string
	// ShareLink, when set, is shown so remote pads can connect.
	ShareLink string
	Export    export.Options
	// Background is a texture file to follow for changes.
	Background string
	Logger     *slog.Logger
	// Started runs on the UI goroutine once the window is up. exec
	// schedules work on that goroutine from any other; the session must
	// only be touched through it.
	Started func(ctx context.Context, exec func(func()))
}

// RunApp shows the window and blocks until it is closed.
func RunApp(s *state.Session, opts Options) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Title == "" {
		opts.Title = "Paper & Pen"
	}

	myApp := app.NewWithID("io.paperpen")
	myWindow := myApp.NewWindow(opts.Title)
	myWindow.Resize(fyne.NewSize(1100, 800))

	paper := NewPaperWidget(s)
	layers := newLayerPanel(s, myWindow)
	tools := newToolbar(s, func() {
		showExportDialog(myWindow, s, opts.Export, log)
	})

	s.Subscribe(func(ev state.Event) {
		switch ev.Kind {
		case state.EventSurfaceDirty:
			paper.Redraw()
		case state.EventLayersChanged:
			layers.Update()
			paper.Redraw()
		case state.EventToolChanged:
			tools.Update()
		}
	})

	var bottom fyne.CanvasObject
	if opts.ShareLink != "" {
		link := widget.NewEntry()
		link.SetText(opts.ShareLink)
		link.Disable()
		bottom = container.NewBorder(nil, nil, widget.NewLabel("Remote:"), nil, link)
	}
	content := container.NewBorder(tools.object, bottom, nil, layers.object, paper)
	myWindow.SetContent(content)

	ctx, cancel := context.WithCancel(context.Background())
	myApp.Lifecycle().SetOnStarted(func() {
		if opts.Background != "" {
			go watchBackground(ctx, s, paper, opts.Background, log)
		}
		if opts.Started != nil {
			opts.Started(ctx, fyne.Do)
		}
	})
	myApp.Lifecycle().SetOnStopped(cancel)

	myWindow.ShowAndRun()
	cancel()
}

func watchBackground(ctx context.Context, s *state.Session, paper *PaperWidget, path string, log *slog.Logger) {
	err := export.WatchBackground(ctx, path, func(img image.Image, err error) {
		if err != nil {
			log.Warn("[background] reload failed", "path", path, "err", err)
			return
		}
		fyne.Do(func() {
			s.SetBackground(img)
			paper.Redraw()
		})
		log.Info("[background] reloaded", "path", path)
	})
	if err != nil {
		log.Warn("[background] not watching", "path", path, "err", err)
	}
}
