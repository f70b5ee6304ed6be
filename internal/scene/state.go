package scene

import (
	"github.com/golang/geo/r3"
)

const (
	DefaultTextureSize    = 512
	DefaultAlphaThreshold = 0.05
	RenderBinTransparent  = "transparent"
)

// Template geometry drawn once per instance
type Geometry struct {
	Vertices  []r3.Vector  `json:"vertices"`
	TexCoords [][2]float64 `json:"texCoords"`
}

// Rendering state shared by all the batches of a scattering run
type StateSet struct {
	Textures       []string  `json:"textures"`
	TextureSize    int       `json:"textureSize"`
	AlphaThreshold float64   `json:"alphaThreshold"`
	Blend          bool      `json:"blend"`
	Lighting       bool      `json:"lighting"`
	RenderBin      string    `json:"renderBin"`
	Template       *Geometry `json:"template,omitempty"`
}

// Returns the state used for alpha tested, unlit billboards sampling a texture array
func NewStateSet(textures []string, template *Geometry) *StateSet {
	return &StateSet{
		Textures:       textures,
		TextureSize:    DefaultTextureSize,
		AlphaThreshold: DefaultAlphaThreshold,
		Blend:          true,
		Lighting:       false,
		RenderBin:      RenderBinTransparent,
		Template:       template,
	}
}
