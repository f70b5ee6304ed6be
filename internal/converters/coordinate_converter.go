package converters

import (
	"github.com/golang/geo/r3"
)

const WGS84Srid = 4326

type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error)

	// Returns longitude and latitude in degrees and the height unchanged
	ConvertToWGS84(coord r3.Vector, sourceSrid int) (r3.Vector, error)
	Cleanup()
}

type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
