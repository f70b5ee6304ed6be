package data

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBA color with float components. Values are usually in [0,1] but mixing may push them above 1.
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

var White = Color{R: 1, G: 1, B: 1, A: 1}

func NewColor(r, g, b, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Parses a "#rrggbb" string into an opaque color
func ParseHexColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, err
	}
	return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

func (c Color) Hex() string {
	return c.colorful().Clamped().Hex()
}

func (c Color) Scale(f float64) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A * f}
}

func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

// Simple average of the three color channels
func (c Color) Intensity() float64 {
	return (c.R + c.G + c.B) / 3.0
}

// Euclidean RGB distance, alpha ignored
func (c Color) DistanceRgb(o Color) float64 {
	return c.colorful().DistanceRgb(o.colorful())
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}
