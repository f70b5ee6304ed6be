package proj4_coordinate_converter

import (
	"fmt"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/xeonx/proj4"

	"github.com/ecopia-map/vegetation_tiler/internal/converters"
)

var ErrUnknownSrid = errors.New("unknown srid")

var baseDefinitions = map[int]string{
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	4978: "+proj=geocent +datum=WGS84 +units=m +no_defs",
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs",
	3395: "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
}

type proj4CoordinateConverter struct {
	definitions map[int]string
	projections map[int]*proj4.Proj
	sync.Mutex
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	definitions := make(map[int]string, len(baseDefinitions))
	for srid, def := range baseDefinitions {
		definitions[srid] = def
	}
	return &proj4CoordinateConverter{
		definitions: definitions,
		projections: make(map[int]*proj4.Proj),
	}
}

// Returns the proj4 definition of the srid. WGS84 UTM zones (326xx north, 327xx south) are
// generated on the fly.
func (cc *proj4CoordinateConverter) definition(srid int) (string, error) {
	if def, ok := cc.definitions[srid]; ok {
		return def, nil
	}
	if srid > 32600 && srid <= 32660 {
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", srid-32600), nil
	}
	if srid > 32700 && srid <= 32760 {
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", srid-32700), nil
	}
	return "", errors.Wrapf(ErrUnknownSrid, "EPSG:%d", srid)
}

// Converts the given coordinate from the given source Srid to the given target srid.
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord r3.Vector) (r3.Vector, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.getProjection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := cc.getProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	x, y, z := []float64{coord.X}, []float64{coord.Y}, []float64{coord.Z}
	if src.IsLatLong() {
		x[0] = proj4.DegToRad(x[0])
		y[0] = proj4.DegToRad(y[0])
	}

	if err := proj4.Transform3(src, dst, x, y, z); err != nil {
		return coord, errors.Wrapf(err, "cannot convert from EPSG:%d to EPSG:%d", sourceSrid, targetSrid)
	}

	if dst.IsLatLong() {
		x[0] = proj4.RadToDeg(x[0])
		y[0] = proj4.RadToDeg(y[0])
	}

	return r3.Vector{X: x[0], Y: y[0], Z: z[0]}, nil
}

func (cc *proj4CoordinateConverter) ConvertToWGS84(coord r3.Vector, sourceSrid int) (r3.Vector, error) {
	return cc.ConvertCoordinateSrid(sourceSrid, converters.WGS84Srid, coord)
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()

	for _, p := range cc.projections {
		p.Close()
	}
	cc.projections = make(map[int]*proj4.Proj)
}

// Returns the projection corresponding to the given EPSG code, storing it in the cache if not already present.
// Callers must hold the lock.
func (cc *proj4CoordinateConverter) getProjection(srid int) (*proj4.Proj, error) {
	if p, ok := cc.projections[srid]; ok {
		return p, nil
	}

	def, err := cc.definition(srid)
	if err != nil {
		return nil, err
	}
	p, err := proj4.InitPlus(def)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot initialize projection EPSG:%d", srid)
	}
	cc.projections[srid] = p

	return p, nil
}
