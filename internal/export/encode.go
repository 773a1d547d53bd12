package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"unicode"

	"PaperPen/internal/paint"
)

// Format is an export file format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts png, jpg and jpeg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

// Options controls an export.
type Options struct {
	Format        Format
	Scale         int
	Interpolation Interpolation
	// AllLayers composites every layer; otherwise only the active one.
	AllLayers bool
	// Quality is the JPEG quality, 1..100.
	Quality int
}

// DefaultOptions exports every layer as a native-size PNG.
func DefaultOptions() Options {
	return Options{Format: PNG, Scale: 1, AllLayers: true, Quality: 90}
}

// Artifact is an encoded export ready to be saved.
type Artifact struct {
	Data          []byte
	Filename      string
	Format        Format
	Width, Height int
}

// Export composes layers and encodes the result. name seeds the
// suggested filename.
func (c *Compositor) Export(layers []*paint.Surface, name string, opts Options) (Artifact, error) {
	// Check the format first so a bad request costs no compositing.
	if opts.Format != PNG && opts.Format != JPEG {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	img, err := c.Compose(layers, opts.Scale, opts.Interpolation)
	if err != nil {
		return Artifact{}, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, opts.Format, opts.Quality); err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Data:     buf.Bytes(),
		Filename: SuggestFilename(name, opts.Format),
		Format:   opts.Format,
		Width:    img.Rect.Dx(),
		Height:   img.Rect.Dy(),
	}, nil
}

// Encode writes img in the given format. PNG keeps alpha; JPEG is
// flattened onto white first.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("export: encode png: %w", err)
		}
		return nil
	case JPEG:
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("export: encode jpeg: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// SuggestFilename turns a layer name into a file name: runs of
// whitespace become one underscore and the format extension is added.
func SuggestFilename(name string, f Format) string {
	base := strings.Join(strings.FieldsFunc(name, unicode.IsSpace), "_")
	if base == "" {
		base = "paper"
	}
	return base + f.Ext()
}
