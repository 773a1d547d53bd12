package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when a background file is not a raster image.
var ErrNotImage = errors.New("export: not an image")

// LoadBackground reads a paper texture. The file type is sniffed from
// its content, not its name.
func LoadBackground(path string) (image.Image, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("export: read background: %w", err)
	}
	return DecodeBackground(data)
}

// DecodeBackground decodes a paper texture held in memory.
func DecodeBackground(data []byte) (image.Image, error) {
	if !filetype.IsImage(data) {
		return nil, ErrNotImage
	}
	kind, _ := filetype.Match(data)
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("export: decode %s background: %w", kind.Extension, err)
	}
	return img, nil
}

// WatchBackground calls fn with the freshly decoded texture every time
// the file at path is written or replaced, until ctx is done. Decode
// failures are passed to fn as well; a texture caught half written is
// simply followed by another event.
func WatchBackground(ctx context.Context, path string, fn func(image.Image, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("export: watch background: %w", err)
	}
	defer w.Close()

	// Watch the directory so editors that replace the file by rename are
	// still seen.
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("export: watch background: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			fn(LoadBackground(path))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(nil, err)
		}
	}
}
