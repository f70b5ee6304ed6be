package batch

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
)

// Turns the instances of a tile into a single renderable node
type Builder interface {
	Build(instances []*data.Instance, bounds *geometry.BoundingBox) (scene.Node, error)

	// Rendering state shared by every batch produced by the builder
	StateSet() *scene.StateSet
}

// Packs every instance in a per-instance parameter buffer drawn with one instanced call of the
// crossed quad template
type ShaderInstancingBuilder struct {
	state *scene.StateSet
}

// Builds a new instancing builder for the given texture array
func NewShaderInstancingBuilder(textures []string) Builder {
	return &ShaderInstancingBuilder{
		state: scene.NewStateSet(textures, CrossedQuadTemplate()),
	}
}

func (b *ShaderInstancingBuilder) StateSet() *scene.StateSet {
	return b.state
}

func (b *ShaderInstancingBuilder) Build(instances []*data.Instance, bounds *geometry.BoundingBox) (scene.Node, error) {
	return &scene.BatchNode{
		Bounds:        bounds,
		InstanceCount: len(instances),
		Params:        PackInstances(instances),
	}, nil
}

// Packs the instances as three vec4 each: (x, y, z, 1), (r, g, b, 1), (width, height, texture, 1)
func PackInstances(instances []*data.Instance) []float32 {
	return lo.FlatMap(instances, func(inst *data.Instance, _ int) []float32 {
		return []float32{
			float32(inst.Position.X), float32(inst.Position.Y), float32(inst.Position.Z), 1,
			float32(inst.Color.R), float32(inst.Color.G), float32(inst.Color.B), 1,
			float32(inst.Width), float32(inst.Height), float32(inst.TextureIndex), 1,
		}
	})
}

// Reads back the instance at the given index of a packed buffer
func UnpackInstance(params []float32, index int) *data.Instance {
	p := params[index*scene.ParamsPerInstance : (index+1)*scene.ParamsPerInstance]
	return data.NewInstance(
		r3.Vector{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])},
		float64(p[8]),
		float64(p[9]),
		data.NewColor(float64(p[4]), float64(p[5]), float64(p[6]), 1),
		int(p[10]),
	)
}

// Two unit quads crossed at right angles around the vertical axis, base at the origin
func CrossedQuadTemplate() *scene.Geometry {
	return &scene.Geometry{
		Vertices: []r3.Vector{
			{X: -0.5, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 1}, {X: -0.5, Y: 0, Z: 1},
			{X: 0, Y: -0.5, Z: 0}, {X: 0, Y: 0.5, Z: 0}, {X: 0, Y: 0.5, Z: 1}, {X: 0, Y: -0.5, Z: 1},
		},
		TexCoords: [][2]float64{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
	}
}

// De-duplicates the layer textures in layer order and stores on every layer the index of its
// texture in the returned array
func ResolveTextures(layers []*data.Layer) []string {
	textures := lo.Uniq(lo.Map(layers, func(l *data.Layer, _ int) string {
		return l.TextureName
	}))
	for _, l := range layers {
		l.TextureIndex = lo.IndexOf(textures, l.TextureName)
	}
	return textures
}
