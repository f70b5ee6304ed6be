package algorithm_manager

import (
	"github.com/ecopia-map/vegetation_tiler/internal/batch"
	"github.com/ecopia-map/vegetation_tiler/internal/converters"
	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/terrain"
	"github.com/ecopia-map/vegetation_tiler/internal/tiler"
)

type AlgorithmManager interface {
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter

	// Terrain the vegetation is scattered on, with the elevation correction applied
	GetTerrainQuery() terrain.Query
	GetBatchBuilder(textures []string) batch.Builder
	GetTileStore(basePath string) io.TileStore
}

// Builds the manager of a run once its terrain is known
type Factory func(opts *tiler.ScatterOptions, query terrain.Query) AlgorithmManager
