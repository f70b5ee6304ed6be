package data

import (
	"github.com/golang/geo/r3"
)

// A single placed vegetation billboard. Position is relative to the scattering offset.
// Instances are never modified once created.
type Instance struct {
	Position     r3.Vector
	Width        float64
	Height       float64
	Color        Color
	TextureIndex int
}

// Builds a new Instance from the given placement values
func NewInstance(position r3.Vector, width, height float64, color Color, textureIndex int) *Instance {
	return &Instance{
		Position:     position,
		Width:        width,
		Height:       height,
		Color:        color,
		TextureIndex: textureIndex,
	}
}
