package pkg

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/ecopia-map/vegetation_tiler/internal/batch"
	"github.com/ecopia-map/vegetation_tiler/internal/config"
	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/quadtree"
	"github.com/ecopia-map/vegetation_tiler/internal/sampler"
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
	"github.com/ecopia-map/vegetation_tiler/internal/tiler"
	"github.com/ecopia-map/vegetation_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

// Scatters vegetation layers over an area and organizes the instances in a quadtree of LOD tiles
type Scatterer struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewScatterer(algorithmManager algorithm_manager.AlgorithmManager) *Scatterer {
	return &Scatterer{
		algorithmManager: algorithmManager,
	}
}

// Generates the scene of the given world space area. The returned transform moves the tile
// hierarchy, built around the local origin, back to the world position of the area.
// When paging is enabled every refinement is written under opts.Output and the transform is
// also saved as the master file.
func (s *Scatterer) Generate(bounds *geometry.BoundingBox, layers []*data.Layer, opts *tiler.ScatterOptions) (*scene.TransformNode, error) {
	if err := validateScatterInput(bounds, layers, opts); err != nil {
		return nil, err
	}

	// the run annotates layers with derived values, the caller's ones are left untouched
	runLayers := lo.Map(layers, func(l *data.Layer, _ int) *data.Layer {
		layer := *l
		return &layer
	})
	data.SortLayersByViewDistance(runLayers)

	maxExtent := math.Max(bounds.Width(), bounds.Height())
	for _, l := range runLayers {
		maxExtent = math.Max(maxExtent, l.ViewDistance)
	}

	offset := bounds.Min()
	initial := bounds.Translate(offset.Mul(-1))

	finalDepth := 0
	for _, l := range runLayers {
		l.ActivationDepth = quadtree.ActivationDepth(maxExtent, l.ViewDistance)
		if l.ActivationDepth > finalDepth {
			finalDepth = l.ActivationDepth
		}
	}

	textures := batch.ResolveTextures(runLayers)
	for _, l := range runLayers {
		glog.Infof("layer %s: view distance %v, activation depth %d, texture %d", l.Name, l.ViewDistance, l.ActivationDepth, l.TextureIndex)
	}
	builder := s.algorithmManager.GetBatchBuilder(textures)

	rootTile := geometry.NewBoundingBox(0, maxExtent, 0, maxExtent, initial.Zmin, initial.Zmax)
	ctx := &quadtree.ScatteringContext{
		Layers:         runLayers,
		InitialBounds:  initial,
		Offset:         offset,
		FinalDepth:     finalDepth,
		SplitMode:      opts.SplitMode,
		Seed:           opts.Seed,
		Paged:          opts.Paged,
		FilenamePrefix: opts.FilenamePrefix,
		Extension:      opts.TileExtension(),
		Sampler:        sampler.NewDensitySampler(initial, offset, s.algorithmManager.GetTerrainQuery()),
		Builder:        builder,
		TotalTiles:     quadtree.TotalTileCount(finalDepth),
	}

	var store io.TileStore
	if opts.Paged {
		store = s.algorithmManager.GetTileStore(opts.PagingPath())
		ctx.Store = store
	}

	tools.LogOutputf("Building %d levels over %s x %s, %d tiles expected", finalDepth+1,
		tools.FormatFixed(bounds.Width(), 2), tools.FormatFixed(bounds.Height(), 2), ctx.TotalTiles+1)

	tree := quadtree.NewQuadTree(ctx, rootTile)
	if err := tree.Build(); err != nil {
		if store != nil {
			err = multierr.Append(err, store.Close())
		}
		return nil, err
	}

	root := tree.GetRootNode()
	root.SetStateSet(builder.StateSet())

	transform := scene.NewTransformNode(offset, root)
	if opts.Srid != 0 {
		geoReference, err := s.geoReference(offset, opts.Srid)
		if err != nil {
			if store != nil {
				err = multierr.Append(err, store.Close())
			}
			return nil, err
		}
		transform.GeoReference = geoReference
	}

	if store != nil {
		masterFileName := io.MasterFileName(opts.FilenamePrefix, ctx.Extension)
		err := store.Save(masterFileName, transform)
		if err != nil {
			err = errors.Wrapf(err, "cannot save master file %s", masterFileName)
		}
		if err = multierr.Append(err, store.Close()); err != nil {
			return nil, err
		}
	}

	return transform, nil
}

// Position of the local origin in WGS84
func (s *Scatterer) geoReference(offset r3.Vector, srid int) (*scene.GeoReference, error) {
	converted, err := s.algorithmManager.GetCoordinateConverterAlgorithm().ConvertToWGS84(offset, srid)
	if err != nil {
		return nil, errors.Wrap(err, "cannot geo reference the scene")
	}
	return &scene.GeoReference{
		Srid:      srid,
		Longitude: converted.X,
		Latitude:  converted.Y,
		Height:    converted.Z,
	}, nil
}

// Checks every input of a run, reporting all the problems found before any tile is built
func validateScatterInput(bounds *geometry.BoundingBox, layers []*data.Layer, opts *tiler.ScatterOptions) error {
	var err error
	fail := func(e error) {
		err = multierr.Append(err, errors.Wrap(config.ErrInvalidConfiguration, e.Error()))
	}

	if bounds == nil {
		fail(errors.New("bounds must be set"))
	} else if !isFinite(bounds) || !(bounds.Width() > 0) || !(bounds.Height() > 0) || !(bounds.Depth() >= 0) {
		fail(errors.Errorf("bounds must be finite with max > min, got %v", bounds.GetAsArray()))
	}

	if len(layers) == 0 {
		fail(errors.New("at least one layer must be defined"))
	}
	for i, l := range layers {
		if l == nil {
			fail(errors.Errorf("layers[%d] is nil", i))
			continue
		}
		for _, e := range multierr.Errors(l.Validate()) {
			fail(e)
		}
	}

	if opts == nil {
		fail(errors.New("options must be set"))
		return err
	}
	if opts.Paged && opts.PagingPath() == "" {
		fail(errors.New("paging requires an output folder"))
	}
	if opts.SplitMode != geometry.SplitBisect && opts.SplitMode != geometry.SplitXExtent {
		fail(errors.Errorf("unknown split mode %q", opts.SplitMode))
	}
	if opts.Workers < 0 {
		fail(errors.Errorf("workers must not be negative, got %d", opts.Workers))
	}

	return err
}

func isFinite(bounds *geometry.BoundingBox) bool {
	for _, v := range bounds.GetAsArray() {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
