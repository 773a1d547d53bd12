package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF lays an encoded export out on a single A4 page, fitted inside
// the margins and centered, and writes the document to w.
func WritePDF(w io.Writer, art Artifact, title string) error {
	imageType := "PNG"
	if art.Format == JPEG {
		imageType = "JPG"
	}

	orientation := "P"
	if art.Width > art.Height {
		orientation = "L"
	}
	p := gofpdf.New(orientation, "mm", "A4", "")
	p.SetTitle(title, true)
	p.SetCreator("PaperPen", true)
	p.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := p.RegisterImageOptionsReader(art.Filename, opts, bytes.NewReader(art.Data))
	if p.Err() {
		return fmt.Errorf("export: pdf image: %w", p.Error())
	}

	pageW, pageH := p.GetPageSize()
	left, top, right, bottom := p.GetMargins()
	boxW, boxH := pageW-left-right, pageH-top-bottom
	imgW, imgH := info.Extent()
	scale := min(boxW/imgW, boxH/imgH)
	drawW, drawH := imgW*scale, imgH*scale
	x := left + (boxW-drawW)/2
	y := top + (boxH-drawH)/2

	p.ImageOptions(art.Filename, x, y, drawW, drawH, false, opts, 0, "")
	if err := p.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}
