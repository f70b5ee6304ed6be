package std_algorithm_manager

import (
	"github.com/ecopia-map/vegetation_tiler/internal/batch"
	"github.com/ecopia-map/vegetation_tiler/internal/converters"
	"github.com/ecopia-map/vegetation_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/vegetation_tiler/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/terrain"
	"github.com/ecopia-map/vegetation_tiler/internal/tiler"
	"github.com/ecopia-map/vegetation_tiler/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options             *tiler.ScatterOptions
	query               terrain.Query
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
}

func NewAlgorithmManager(opts *tiler.ScatterOptions, query terrain.Query) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		options:             opts,
		query:               query,
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(),
		elevationCorrector:  evaluateElevationCorrectionAlgorithm(opts),
	}
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}

func (m *StandardAlgorithmManager) GetTerrainQuery() terrain.Query {
	return terrain.NewElevationCorrectedQuery(m.query, m.elevationCorrector)
}

func (m *StandardAlgorithmManager) GetBatchBuilder(textures []string) batch.Builder {
	return batch.NewShaderInstancingBuilder(textures)
}

// Paged tiles are written by a consumer pool when more than one worker is configured
func (m *StandardAlgorithmManager) GetTileStore(basePath string) io.TileStore {
	if m.options.Workers > 1 {
		return io.NewAsyncFileStore(basePath, m.options.Workers)
	}
	return io.NewFileStore(basePath)
}

func evaluateElevationCorrectionAlgorithm(opts *tiler.ScatterOptions) converters.ElevationCorrector {
	if opts.ZOffset == 0 {
		return nil
	}
	return offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset)
}
