package paint

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned for a color string that is neither a CSS
// color name nor a hex triplet.
var ErrUnknownColor = errors.New("paint: unknown color")

// ParseColor accepts CSS color names ("blue", "rebeccapurple") and hex
// colors ("#36c", "#3366cc"). The result is opaque.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w %q: %v", ErrUnknownColor, s, err)
		}
		r, g, b := c.Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	}
	nc, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w %q", ErrUnknownColor, s)
	}
	return color.NRGBA{R: nc.R, G: nc.G, B: nc.B, A: 255}, nil
}
