package config

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"
	"gopkg.in/yaml.v3"

	"github.com/ecopia-map/vegetation_tiler/internal/data"
)

const forestJob = `
bounds:
  min: {x: -500, y: 1200, z: 0}
  max: {x: 500, y: 1800, z: 300}
seed: 42
srid: 32632
zOffset: 0.5
terrain:
  heightMap: terrain/heights.png
  heightScale: 250
  colorTexture: terrain/ground.dds
  materialTexture: terrain/materials.png
layers:
  - name: grass
    texture: billboards/grass.png
    viewDistance: 60
    density: 0.2
    width: {min: 0.8, max: 1.2}
    height: {min: 0.5, max: 0.9}
    scale: {min: 1, max: 1.5}
    colorIntensity: {min: 0.2, max: 0.4}
    mixInColorRatio: 0.6
    mixInIntensity: true
    materials:
      - color: "#00ff00"
        tolerance: 0.3
  - name: spruce
    texture: billboards/spruce.png
    viewDistance: 800
    density: 0.001
    width: {min: 3, max: 5}
    height: {min: 8, max: 14}
    scale: {min: 0.9, max: 1.1}
    colorIntensity: {min: 0.1, max: 0.2}
    mixInColorRatio: 0.2
`

func TestParseJob(t *testing.T) {
	job, err := Parse([]byte(forestJob))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, job.Seed, test.ShouldEqual, 42)
	test.That(t, job.Srid, test.ShouldEqual, 32632)
	test.That(t, job.Bounds.Box().GetAsArray(), test.ShouldResemble, []float64{-500, 1200, 0, 500, 1800, 300})
	test.That(t, job.TerrainExtent().GetAsArray(), test.ShouldResemble, job.Bounds.Box().GetAsArray())
	test.That(t, job.Terrain.HeightScale, test.ShouldEqual, 250)

	layers, err := job.ToLayers()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(layers), test.ShouldEqual, 2)
	test.That(t, layers[0].Name, test.ShouldEqual, "grass")
	test.That(t, layers[0].TextureName, test.ShouldEqual, "billboards/grass.png")
	test.That(t, layers[0].Width, test.ShouldResemble, data.NewRange(0.8, 1.2))
	test.That(t, layers[0].MixInIntensity, test.ShouldBeTrue)
	test.That(t, layers[0].Materials, test.ShouldResemble, []data.MaterialColor{{Color: data.NewColor(0, 1, 0, 1), Tolerance: 0.3}})
	test.That(t, layers[1].Materials, test.ShouldBeEmpty)
	test.That(t, layers[1].AcceptsMaterial(data.NewColor(1, 0, 0, 1)), test.ShouldBeTrue)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	content := "terrain:\n  heightMap: h.png\nlayers:\n  - {name: a, texture: a.png, viewDistance: 10, density: 1}\n"
	test.That(t, ioutil.WriteFile(path, []byte(content), 0666), test.ShouldBeNil)

	job, err := Load(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, job.Seed, test.ShouldEqual, Default().Seed)
	test.That(t, job.Bounds, test.ShouldResemble, Default().Bounds)
	test.That(t, job.Terrain.HeightScale, test.ShouldEqual, 100)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	job := Default()
	job.Bounds.Max.X = -10
	job.Layers = []LayerConfig{
		{Name: "bad", Texture: "t.png", ViewDistance: 10, Density: -1, Width: RangeConfig{Min: 2, Max: 1}},
		{Name: "", Texture: "t.png", ViewDistance: 10, Materials: []MaterialConfig{{Color: "green"}}},
	}

	err := job.Validate()
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	// bounds, heightmap, density, width, missing name, bad material color
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 6)
	for _, e := range multierr.Errors(err) {
		test.That(t, errors.Is(e, ErrInvalidConfiguration), test.ShouldBeTrue)
	}

	_, err = job.ToLayers()
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
}

func TestValidateRequiresLayers(t *testing.T) {
	job := Default()
	job.Terrain.HeightMap = "h.png"
	err := job.Validate()
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 1)
}

func TestParseRejectsNonFiniteLayerValues(t *testing.T) {
	job := strings.NewReplacer(
		"viewDistance: 60", "viewDistance: .inf",
		"density: 0.2", "density: .inf",
		"mixInColorRatio: 0.6", "mixInColorRatio: .nan",
	).Replace(forestJob)

	_, err := Parse([]byte(job))
	test.That(t, errors.Is(err, ErrInvalidConfiguration), test.ShouldBeTrue)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 3)
	test.That(t, err.Error(), test.ShouldContainSubstring, "view distance")
	test.That(t, err.Error(), test.ShouldContainSubstring, "color mix ratio")
}

func TestParseRejectsMalformedYaml(t *testing.T) {
	_, err := Parse([]byte("layers: [\n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestJobRoundTripThroughYaml(t *testing.T) {
	job, err := Parse([]byte(forestJob))
	test.That(t, err, test.ShouldBeNil)

	out, err := yaml.Marshal(job)
	test.That(t, err, test.ShouldBeNil)
	again, err := Parse(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, job)
}
