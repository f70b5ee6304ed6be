package terrain

import (
	"github.com/golang/geo/r3"

	"github.com/ecopia-map/vegetation_tiler/internal/converters"
	"github.com/ecopia-map/vegetation_tiler/internal/data"
)

// Result of a successful terrain query
type Hit struct {
	TerrainColor  data.Color
	MaterialColor data.Color
	Point         r3.Vector
}

// Probes the terrain along the vertical line through a world space point. The boolean is false
// when the terrain is not hit, which is a normal outcome and not an error.
type Query interface {
	Query(point r3.Vector) (Hit, bool)
}

type QueryFunc func(point r3.Vector) (Hit, bool)

func (f QueryFunc) Query(point r3.Vector) (Hit, bool) {
	return f(point)
}

// Wraps the query so that the elevation of every hit point is corrected
func NewElevationCorrectedQuery(query Query, corrector converters.ElevationCorrector) Query {
	if corrector == nil {
		return query
	}
	return QueryFunc(func(point r3.Vector) (Hit, bool) {
		hit, ok := query.Query(point)
		if !ok {
			return hit, false
		}
		hit.Point.Z = corrector.CorrectElevation(hit.Point.X, hit.Point.Y, hit.Point.Z)
		return hit, true
	})
}
