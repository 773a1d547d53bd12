package ui

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"PaperPen/internal/export"
	"PaperPen/internal/state"
)

const formatPDF = "PDF"

// showExportDialog asks for the export settings, then for a file, and
// writes the export there.
func showExportDialog(win fyne.Window, s *state.Session, defaults export.Options, log *slog.Logger) {
	format := widget.NewSelect([]string{"PNG", "JPEG", formatPDF}, nil)
	format.SetSelected(strings.ToUpper(string(defaults.Format)))

	scales := make([]string, export.MaxScale)
	for i := range scales {
		scales[i] = strconv.Itoa(i+1) + "x"
	}
	scale := widget.NewSelect(scales, nil)
	scale.SetSelectedIndex(max(defaults.Scale, 1) - 1)

	smooth := widget.NewCheck("Smooth upscaling", nil)
	smooth.SetChecked(defaults.Interpolation == export.Bilinear)
	all := widget.NewCheck("All layers", nil)
	all.SetChecked(defaults.AllLayers)

	items := []*widget.FormItem{
		widget.NewFormItem("Format", format),
		widget.NewFormItem("Scale", scale),
		widget.NewFormItem("", smooth),
		widget.NewFormItem("", all),
	}
	dialog.ShowForm("Export", "Export", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		opts := defaults
		opts.Scale = scale.SelectedIndex() + 1
		opts.AllLayers = all.Checked
		opts.Interpolation = export.Nearest
		if smooth.Checked {
			opts.Interpolation = export.Bilinear
		}
		pdf := format.Selected == formatPDF
		opts.Format = export.PNG
		if format.Selected == "JPEG" {
			opts.Format = export.JPEG
		}

		art, err := s.Export(opts)
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		saveArtifact(win, s, art, pdf, log)
	}, win)
}

func saveArtifact(win fyne.Window, s *state.Session, art export.Artifact, pdf bool, log *slog.Logger) {
	name := art.Filename
	if pdf {
		name = strings.TrimSuffix(name, art.Format.Ext()) + ".pdf"
	}
	save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if w == nil {
			return // cancelled
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Warn("[export] close failed", "uri", w.URI(), "err", err)
			}
		}()

		if pdf {
			err = export.WritePDF(w, art, s.Store().Active().Name)
		} else {
			_, err = w.Write(art.Data)
		}
		if err != nil {
			log.Error("[export] save failed", "uri", w.URI(), "err", err)
			dialog.ShowError(fmt.Errorf("saving %s: %w", w.URI().Name(), err), win)
			return
		}
		log.Info("[export] saved", "uri", w.URI())
	}, win)
	save.SetFileName(name)
	save.Show()
}
