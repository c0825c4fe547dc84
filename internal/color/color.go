package color

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// ErrInvalidColor is returned for any color spec that cannot be normalized to RGB.
var ErrInvalidColor = errors.New("invalid color")

// RGB is one pixel: three 8-bit channel intensities.
type RGB struct {
	R, G, B uint8
}

var Off = RGB{}

// Palette holds the two colors the animations are drawn with.
type Palette struct {
	Primary   RGB
	Secondary RGB
}

// DefaultPalette matches the stock ring colors (0x0080FF / 0x007A37).
var DefaultPalette = Palette{
	Primary:   FromInt(0x0080FF),
	Secondary: FromInt(0x007A37),
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

// FromInt unpacks a 0xRRGGBB integer. Bits above 24 are ignored.
func FromInt(c uint32) RGB {
	return RGB{
		R: getcolor(c, RED_OFFSET),
		G: getcolor(c, GREEN_OFFSET),
		B: getcolor(c, BLUE_OFFSET),
	}
}

// FromTuple builds a color from three channel values, clamping each to [0,255].
func FromTuple(r, g, b int) RGB {
	return RGB{R: clamp255(r), G: clamp255(g), B: clamp255(b)}
}

// Int packs the color back into 0xRRGGBB.
func (c RGB) Int() uint32 {
	return uint32(c.R)<<RED_OFFSET | uint32(c.G)<<GREEN_OFFSET | uint32(c.B)<<BLUE_OFFSET
}

// Scale multiplies each channel by factor and truncates. factor is clamped to [0,1].
func (c RGB) Scale(factor float64) RGB {
	if factor <= 0 {
		return Off
	}
	if factor >= 1 {
		return c
	}
	return RGB{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
	}
}

func (c RGB) IsOff() bool { return c == Off }

func (c RGB) String() string { return fmt.Sprintf("#%06X", c.Int()) }

// Fill returns n copies of c.
func Fill(n int, c RGB) []RGB {
	out := make([]RGB, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// ParseHex accepts "0xRRGGBB", "#RRGGBB", "#RGB" and bare "RRGGBB".
func ParseHex(s string) (RGB, error) {
	v := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(v, "0x"), strings.HasPrefix(v, "0X"):
		v = "#" + v[2:]
	case !strings.HasPrefix(v, "#"):
		v = "#" + v
	}
	if len(v) != 7 && len(v) != 4 {
		return Off, fmt.Errorf("%w: %q is not a hex color", ErrInvalidColor, s)
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return Off, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func clamp255(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}
