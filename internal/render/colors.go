package render

import (
	"fmt"
	"image/color"
	"strings"
)

// ParseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return color.Black, fmt.Errorf("hex color must start with #: %q", s)
	}
	h := s[1:]

	var r, g, b uint8
	a := uint8(255)
	var err error
	switch len(h) {
	case 3:
		_, err = fmt.Sscanf(h, "%1x%1x%1x", &r, &g, &b)
		r, g, b = r*17, g*17, b*17
	case 6:
		_, err = fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b)
	case 8:
		_, err = fmt.Sscanf(h, "%02x%02x%02x%02x", &r, &g, &b, &a)
	default:
		return color.Black, fmt.Errorf("hex color must be #RGB, #RRGGBB or #RRGGBBAA: %q", s)
	}
	if err != nil {
		return color.Black, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

func mustColor(s string, fallback color.Color) color.Color {
	c, err := ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func withAlpha(c color.Color, a uint8) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}
