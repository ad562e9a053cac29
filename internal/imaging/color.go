package imaging

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a validated, opaque draw colour.
//
// Colours are parsed once (typically while loading configuration) so that drawing
// code never has to interpret text. The zero value is black.
type Color struct {
	c colorful.Color
}

// Common overlay colours.
var (
	Black = RGB(0, 0, 0)
	White = RGB(255, 255, 255)
	Green = RGB(0, 255, 0)
	Red   = RGB(255, 0, 0)
)

// RGB builds a Color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return Color{c: colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}}
}

// ParseColor parses a hex colour such as "#00FF00" or "00ff00".
//
// Three-digit shorthand ("#0F0") is accepted. Any other input returns an error;
// nothing is ever evaluated.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("empty color string")
	}
	if s[0] != '#' {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return Color{}, fmt.Errorf("invalid color %q: want #rgb or #rrggbb", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{c: c}, nil
}

// RGBA returns the colour as an opaque color.RGBA.
func (c Color) RGBA() color.RGBA {
	r, g, b := c.c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Hex returns the "#rrggbb" form of the colour.
func (c Color) Hex() string {
	return c.c.Clamped().Hex()
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
