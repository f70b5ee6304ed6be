package config

import (
	"io/ioutil"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// Job describes one scattering run: the area to populate, the terrain it lies on and the
// vegetation layers to scatter.
type Job struct {
	Bounds  BoundsConfig  `yaml:"bounds"`
	Seed    int64         `yaml:"seed"`
	Srid    int           `yaml:"srid"`    // EPSG code of the world coordinates, 0 when not geo-referenced
	ZOffset float64       `yaml:"zOffset"` // added to the elevation of every terrain hit
	Terrain TerrainConfig `yaml:"terrain"`
	Layers  []LayerConfig `yaml:"layers"`
}

type BoundsConfig struct {
	Min Vector `yaml:"min"`
	Max Vector `yaml:"max"`
}

type Vector struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type TerrainConfig struct {
	HeightMap       string        `yaml:"heightMap"`
	HeightScale     float64       `yaml:"heightScale"`
	Extent          *BoundsConfig `yaml:"extent,omitempty"` // defaults to the job bounds
	ColorTexture    string        `yaml:"colorTexture,omitempty"`
	MaterialTexture string        `yaml:"materialTexture,omitempty"`
}

type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type MaterialConfig struct {
	Color     string  `yaml:"color"` // "#rrggbb"
	Tolerance float64 `yaml:"tolerance"`
}

type LayerConfig struct {
	Name            string           `yaml:"name"`
	Texture         string           `yaml:"texture"`
	ViewDistance    float64          `yaml:"viewDistance"`
	Density         float64          `yaml:"density"`
	Width           RangeConfig      `yaml:"width"`
	Height          RangeConfig      `yaml:"height"`
	Scale           RangeConfig      `yaml:"scale"`
	ColorIntensity  RangeConfig      `yaml:"colorIntensity"`
	MixInColorRatio float64          `yaml:"mixInColorRatio"`
	MixInIntensity  bool             `yaml:"mixInIntensity"`
	Materials       []MaterialConfig `yaml:"materials,omitempty"`
}

// Reads the job from a YAML file. Values missing from the file keep their default.
func Load(path string) (*Job, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(content)
}

func Parse(content []byte) (*Job, error) {
	job := Default()
	if err := yaml.Unmarshal(content, job); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

func Default() *Job {
	return &Job{
		Bounds: BoundsConfig{
			Min: Vector{X: 0, Y: 0, Z: 0},
			Max: Vector{X: 1000, Y: 1000, Z: 100},
		},
		Seed: 1337,
		Terrain: TerrainConfig{
			HeightScale: 100,
		},
	}
}

// Checks the whole job, reporting every problem found
func (j *Job) Validate() error {
	var err error
	fail := func(e error) {
		err = multierr.Append(err, errors.Wrap(ErrInvalidConfiguration, e.Error()))
	}

	if !j.Bounds.Box().IsValid() || !(j.Bounds.Box().Area() > 0) || !j.Bounds.isFinite() {
		fail(errors.New("bounds must be finite with max > min"))
	}
	if j.Terrain.HeightMap == "" {
		fail(errors.New("terrain.heightMap must be set"))
	}
	if j.Terrain.Extent != nil && !(j.Terrain.Extent.Box().Area() > 0) {
		fail(errors.New("terrain.extent must have a positive area"))
	}
	if len(j.Layers) == 0 {
		fail(errors.New("at least one layer must be defined"))
	}
	for i, l := range j.Layers {
		if l.Name == "" {
			fail(errors.Errorf("layers[%d].name must be set", i))
		}
		if l.Texture == "" {
			fail(errors.Errorf("layers[%d].texture must be set", i))
		}
		layer, parseErr := l.toLayer()
		if parseErr != nil {
			fail(errors.Wrapf(parseErr, "layers[%d]", i))
			continue
		}
		for _, e := range multierr.Errors(layer.Validate()) {
			fail(e)
		}
	}

	return err
}

// Builds the vegetation layers of the job
func (j *Job) ToLayers() ([]*data.Layer, error) {
	layers := make([]*data.Layer, 0, len(j.Layers))
	for i, l := range j.Layers {
		layer, err := l.toLayer()
		if err != nil {
			return nil, errors.Wrap(ErrInvalidConfiguration, errors.Wrapf(err, "layers[%d]", i).Error())
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func (l LayerConfig) toLayer() (*data.Layer, error) {
	materials := make([]data.MaterialColor, 0, len(l.Materials))
	for _, m := range l.Materials {
		c, err := data.ParseHexColor(m.Color)
		if err != nil {
			return nil, errors.Wrapf(err, "material color %q", m.Color)
		}
		materials = append(materials, data.MaterialColor{Color: c, Tolerance: m.Tolerance})
	}
	return &data.Layer{
		Name:            l.Name,
		TextureName:     l.Texture,
		ViewDistance:    l.ViewDistance,
		Density:         l.Density,
		Width:           l.Width.toRange(),
		Height:          l.Height.toRange(),
		Scale:           l.Scale.toRange(),
		ColorIntensity:  l.ColorIntensity.toRange(),
		MixInColorRatio: l.MixInColorRatio,
		MixInIntensity:  l.MixInIntensity,
		Materials:       materials,
	}, nil
}

func (r RangeConfig) toRange() data.Range {
	return data.NewRange(r.Min, r.Max)
}

func (b BoundsConfig) Box() *geometry.BoundingBox {
	return geometry.NewBoundingBox(b.Min.X, b.Max.X, b.Min.Y, b.Max.Y, b.Min.Z, b.Max.Z)
}

func (b BoundsConfig) isFinite() bool {
	for _, v := range []float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Extent covered by the terrain images
func (j *Job) TerrainExtent() *geometry.BoundingBox {
	if j.Terrain.Extent != nil {
		return j.Terrain.Extent.Box()
	}
	return j.Bounds.Box()
}
