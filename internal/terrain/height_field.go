package terrain

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
)

type HeightFieldOptions struct {
	HeightMap       string
	ColorTexture    string // optional, white terrain when empty
	MaterialTexture string // optional, the terrain color is used as material when empty
	Extent          *geometry.BoundingBox
	HeightScale     float64 // elevation of a white heightmap pixel above Extent.Zmin
}

// Terrain described by a grayscale heightmap stretched over a world extent. The top row of the
// images maps to Extent.Ymax.
type HeightField struct {
	heights         image.Image
	extent          *geometry.BoundingBox
	heightScale     float64
	colorTexture    string
	materialTexture string
	cache           *ImageCache
}

func NewHeightField(opts HeightFieldOptions, cache *ImageCache) (*HeightField, error) {
	if opts.Extent == nil || !(opts.Extent.Width() > 0) || !(opts.Extent.Height() > 0) {
		return nil, errors.New("height field extent must have a positive area")
	}

	heights, err := cache.Load(opts.HeightMap)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load heightmap")
	}

	// the textures are sampled lazily through the cache, loading them here only checks they exist
	for _, texture := range []string{opts.ColorTexture, opts.MaterialTexture} {
		if texture == "" {
			continue
		}
		if _, err := cache.Load(texture); err != nil {
			return nil, errors.Wrap(err, "cannot load terrain texture")
		}
	}

	return &HeightField{
		heights:         imaging.Grayscale(heights),
		extent:          opts.Extent,
		heightScale:     opts.HeightScale,
		colorTexture:    opts.ColorTexture,
		materialTexture: opts.MaterialTexture,
		cache:           cache,
	}, nil
}

func (h *HeightField) Query(point r3.Vector) (Hit, bool) {
	if !h.extent.ContainsXY(point) {
		return Hit{}, false
	}

	u := (point.X - h.extent.Xmin) / h.extent.Width()
	v := (point.Y - h.extent.Ymin) / h.extent.Height()

	hit := Hit{
		TerrainColor: data.White,
		Point: r3.Vector{
			X: point.X,
			Y: point.Y,
			Z: h.extent.Zmin + h.heightScale*sampleBilinear(h.heights, u, v),
		},
	}
	if h.colorTexture != "" {
		if img, err := h.cache.Load(h.colorTexture); err == nil {
			hit.TerrainColor = sampleNearest(img, u, v)
		}
	}
	hit.MaterialColor = hit.TerrainColor
	if h.materialTexture != "" {
		if img, err := h.cache.Load(h.materialTexture); err == nil {
			hit.MaterialColor = sampleNearest(img, u, v)
		}
	}

	return hit, true
}

func pixelCoordinates(img image.Image, u, v float64) (float64, float64) {
	b := img.Bounds()
	px := u * float64(b.Dx()-1)
	py := (1 - v) * float64(b.Dy()-1)
	return px + float64(b.Min.X), py + float64(b.Min.Y)
}

func colorAt(img image.Image, x, y int) data.Color {
	r, g, b, a := img.At(x, y).RGBA()
	return data.NewColor(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff, float64(a)/0xffff)
}

// Color of the texel nearest to the texture coordinate
func sampleNearest(img image.Image, u, v float64) data.Color {
	px, py := pixelCoordinates(img, u, v)
	return colorAt(img, int(math.Round(px)), int(math.Round(py)))
}

// Bilinear interpolation of the red channel, in [0,1]
func sampleBilinear(img image.Image, u, v float64) float64 {
	px, py := pixelCoordinates(img, u, v)
	b := img.Bounds()
	x0 := int(math.Floor(px))
	y0 := int(math.Floor(py))
	x1 := minInt(x0+1, b.Max.X-1)
	y1 := minInt(y0+1, b.Max.Y-1)
	fx := px - float64(x0)
	fy := py - float64(y0)

	top := colorAt(img, x0, y0).R*(1-fx) + colorAt(img, x1, y0).R*fx
	bottom := colorAt(img, x0, y1).R*(1-fx) + colorAt(img, x1, y1).R*fx
	return top*(1-fy) + bottom*fy
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
