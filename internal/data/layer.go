package data

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var ErrInvalidLayer = errors.New("invalid vegetation layer")

// Closed interval of float values
type Range struct {
	Min float64
	Max float64
}

func NewRange(min, max float64) Range {
	return Range{Min: min, Max: max}
}

func (r Range) IsValid() bool {
	return r.Min <= r.Max
}

func (r Range) IsFinite() bool {
	return isFinite(r.Min) && isFinite(r.Max)
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Draws a uniform value inside the range
func (r Range) Sample(rnd *rand.Rand) float64 {
	return r.Min + (r.Max-r.Min)*rnd.Float64()
}

// Terrain material color accepted by a layer, with the max RGB distance still considered a match
type MaterialColor struct {
	Color     Color
	Tolerance float64
}

// A vegetation category scattered over the terrain.
// TextureIndex and ActivationDepth are derived values, filled during a scattering run.
type Layer struct {
	Name            string
	TextureName     string
	ViewDistance    float64 // max distance at which the layer has to be visible
	Density         float64 // instances per square unit
	Width           Range
	Height          Range
	Scale           Range
	ColorIntensity  Range
	MixInColorRatio float64
	MixInIntensity  bool
	Materials       []MaterialColor // empty means every material is accepted

	TextureIndex    int
	ActivationDepth int
}

// Reports whether an instance of the layer may be placed on the given terrain material
func (l *Layer) AcceptsMaterial(material Color) bool {
	if len(l.Materials) == 0 {
		return true
	}
	for _, m := range l.Materials {
		if m.Color.DistanceRgb(material) <= m.Tolerance {
			return true
		}
	}
	return false
}

// Checks the layer definition, reporting every problem found
func (l *Layer) Validate() error {
	var err error
	fail := func(format string, args ...interface{}) {
		err = multierr.Append(err, errors.Wrapf(ErrInvalidLayer, "layer %q: "+format, append([]interface{}{l.Name}, args...)...))
	}

	if !(l.ViewDistance > 0) || !isFinite(l.ViewDistance) {
		fail("view distance must be positive and finite, got %v", l.ViewDistance)
	}
	if !(l.Density >= 0) || !isFinite(l.Density) {
		fail("density must not be negative and must be finite, got %v", l.Density)
	}
	for _, named := range []struct {
		name string
		r    Range
	}{
		{"width", l.Width},
		{"height", l.Height},
		{"scale", l.Scale},
		{"color intensity", l.ColorIntensity},
	} {
		name, r := named.name, named.r
		if !r.IsFinite() {
			fail("%s range must be finite [%v, %v]", name, r.Min, r.Max)
			continue
		}
		if !r.IsValid() {
			fail("%s range is inverted [%v, %v]", name, r.Min, r.Max)
		}
		if r.Min < 0 {
			fail("%s range must not be negative [%v, %v]", name, r.Min, r.Max)
		}
	}
	if !(l.MixInColorRatio >= 0) || !isFinite(l.MixInColorRatio) {
		fail("color mix ratio must not be negative and must be finite, got %v", l.MixInColorRatio)
	}
	for i, m := range l.Materials {
		if !(m.Tolerance >= 0) {
			fail("material %d tolerance must not be negative, got %v", i, m.Tolerance)
		}
	}

	return err
}

// Sorts the layers by view distance, farthest first
func SortLayersByViewDistance(layers []*Layer) {
	sort.Slice(layers, func(i, j int) bool {
		return layers[i].ViewDistance > layers[j].ViewDistance
	})
}
