package offset_elevation_corrector

import "github.com/ecopia-map/vegetation_tiler/internal/converters"

// Shifts every terrain hit by a constant vertical offset, e.g. to lift billboards above a
// terrain mesh rendered with a different datum
type OffsetElevationCorrector struct {
	Offset float64
}

func NewOffsetElevationCorrector(offset float64) converters.ElevationCorrector {
	return &OffsetElevationCorrector{
		Offset: offset,
	}
}

func (c *OffsetElevationCorrector) CorrectElevation(x, y, z float64) float64 {
	return z + c.Offset
}
