package sampler

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/terrain"
)

// Generates the instances of one layer inside one tile
type Sampler interface {
	Populate(layer *data.Layer, tile *geometry.BoundingBox, rnd *rand.Rand) []*data.Instance
}

// Scatters instances uniformly with the layer density, keeping those that hit the terrain on an
// accepted material
type DensitySampler struct {
	initialBounds *geometry.BoundingBox
	offset        r3.Vector
	terrain       terrain.Query
}

// initialBounds is the scattering area in local (offset) coordinates, offset maps local to world
// coordinates.
func NewDensitySampler(initialBounds *geometry.BoundingBox, offset r3.Vector, query terrain.Query) Sampler {
	return &DensitySampler{
		initialBounds: initialBounds,
		offset:        offset,
		terrain:       query,
	}
}

// Upper bound of the candidates drawn in a single tile
const MaxCandidates = math.MaxInt32

// Number of candidates for the tile: the integer part of area*density, plus one with a
// probability equal to the fractional part. Capped to MaxCandidates.
func CandidateCount(layer *data.Layer, tile *geometry.BoundingBox, rnd *rand.Rand) int {
	expected := tile.Area() * layer.Density
	if !(expected > 0) {
		return 0
	}
	if expected >= MaxCandidates {
		return MaxCandidates
	}
	count := math.Floor(expected)
	if frac := expected - count; frac > 0 && rnd.Float64() < frac {
		count++
	}
	return int(count)
}

func (s *DensitySampler) Populate(layer *data.Layer, tile *geometry.BoundingBox, rnd *rand.Rand) []*data.Instance {
	count := CandidateCount(layer, tile, rnd)
	instances := make([]*data.Instance, 0, min(count, 1024))

	for i := 0; i < count; i++ {
		local := r3.Vector{
			X: tile.Xmin + rnd.Float64()*tile.Width(),
			Y: tile.Ymin + rnd.Float64()*tile.Height(),
			Z: tile.Zmax,
		}
		if !s.initialBounds.ContainsXY(local) {
			continue
		}

		hit, ok := s.terrain.Query(local.Add(s.offset))
		if !ok || !layer.AcceptsMaterial(hit.MaterialColor) {
			continue
		}

		scale := layer.Scale.Sample(rnd)
		width := layer.Width.Sample(rnd) * scale
		height := layer.Height.Sample(rnd) * scale

		terrainColor := hit.TerrainColor
		if layer.MixInIntensity {
			intensity := terrainColor.Intensity()
			terrainColor = data.NewColor(intensity, intensity, intensity, terrainColor.A)
		}
		color := terrainColor.Scale(layer.MixInColorRatio).Add(data.White.Scale(layer.ColorIntensity.Sample(rnd)))
		color.A = 1

		instances = append(instances, data.NewInstance(
			hit.Point.Sub(s.offset),
			width,
			height,
			color,
			layer.TextureIndex,
		))
	}

	return instances
}
