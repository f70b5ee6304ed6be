package proj4_coordinate_converter

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestConvertUtmToWGS84(t *testing.T) {
	cc := NewProj4CoordinateConverter()
	defer cc.Cleanup()

	// false easting of zone 32N lies on its central meridian (9E)
	out, err := cc.ConvertToWGS84(r3.Vector{X: 500000, Y: 0, Z: 120}, 32632)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.X, test.ShouldAlmostEqual, 9, 1e-6)
	test.That(t, out.Y, test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, out.Z, test.ShouldAlmostEqual, 120, 1e-6)
}

func TestConvertRoundTrip(t *testing.T) {
	cc := NewProj4CoordinateConverter()
	defer cc.Cleanup()

	in := r3.Vector{X: 12.4924, Y: 41.8902, Z: 35}
	merc, err := cc.ConvertCoordinateSrid(4326, 3857, in)
	test.That(t, err, test.ShouldBeNil)
	back, err := cc.ConvertCoordinateSrid(3857, 4326, merc)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.X, test.ShouldAlmostEqual, in.X, 1e-7)
	test.That(t, back.Y, test.ShouldAlmostEqual, in.Y, 1e-7)
}

func TestSameSridIsIdentity(t *testing.T) {
	cc := NewProj4CoordinateConverter()
	in := r3.Vector{X: 1, Y: 2, Z: 3}
	out, err := cc.ConvertCoordinateSrid(32632, 32632, in)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, in)
}

func TestUnknownSrid(t *testing.T) {
	cc := NewProj4CoordinateConverter()
	_, err := cc.ConvertToWGS84(r3.Vector{}, 999999)
	test.That(t, errors.Is(err, ErrUnknownSrid), test.ShouldBeTrue)
}
