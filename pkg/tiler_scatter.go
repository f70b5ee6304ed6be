package pkg

import (
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ecopia-map/vegetation_tiler/internal/config"
	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/terrain"
	"github.com/ecopia-map/vegetation_tiler/internal/tiler"
	"github.com/ecopia-map/vegetation_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

type TilerScatter struct {
	fileFinder     tools.FileFinder
	managerFactory algorithm_manager.Factory
}

func NewTilerScatter(fileFinder tools.FileFinder, managerFactory algorithm_manager.Factory) tiler.ITiler {
	return &TilerScatter{
		fileFinder:     fileFinder,
		managerFactory: managerFactory,
	}
}

// Runs the scattering job described by opts.Config
func (tilerScatter *TilerScatter) RunTiler(opts *tiler.ScatterOptions) error {
	glog.Infoln("Loading scatter job", opts.Config)
	job, err := config.Load(opts.Config)
	if err != nil {
		return err
	}
	layers, err := job.ToLayers()
	if err != nil {
		return err
	}
	runOpts := mergeJobOptions(opts, job)

	glog.Infoln("> loading terrain...", job.Terrain.HeightMap)
	cache := terrain.NewImageCache(tilerScatter.fileFinder)
	heightField, err := terrain.NewHeightField(terrain.HeightFieldOptions{
		HeightMap:       job.Terrain.HeightMap,
		ColorTexture:    job.Terrain.ColorTexture,
		MaterialTexture: job.Terrain.MaterialTexture,
		Extent:          job.TerrainExtent(),
		HeightScale:     job.Terrain.HeightScale,
	}, cache)
	if err != nil {
		return err
	}

	algorithmManager := tilerScatter.managerFactory(runOpts, heightField)
	defer algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	glog.Infoln("> scattering layers...")
	transform, err := NewScatterer(algorithmManager).Generate(job.Bounds.Box(), layers, runOpts)
	if err != nil {
		return err
	}
	glog.Infof("terrain images decoded: %d", cache.Len())

	if runOpts.Paged {
		glog.Infoln("> done, master file", filepath.Join(runOpts.Output, io.MasterFileName(runOpts.FilenamePrefix, runOpts.TileExtension())))
		return nil
	}

	sceneFileName := io.SceneFileName(runOpts.FilenamePrefix, runOpts.TileExtension())
	if err := io.NewFileStore(runOpts.Output).Save(sceneFileName, transform); err != nil {
		return errors.Wrapf(err, "cannot save scene file %s", sceneFileName)
	}
	glog.Infoln("> done, scene file", filepath.Join(runOpts.Output, sceneFileName))
	return nil
}

// Values not given on the command line are taken from the job file
func mergeJobOptions(opts *tiler.ScatterOptions, job *config.Job) *tiler.ScatterOptions {
	runOpts := opts.Copy()
	if runOpts.Seed == 0 {
		runOpts.Seed = job.Seed
	}
	if runOpts.Srid == 0 {
		runOpts.Srid = job.Srid
	}
	if runOpts.ZOffset == 0 {
		runOpts.ZOffset = job.ZOffset
	}
	return runOpts
}
