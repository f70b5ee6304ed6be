package geometry

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
)

type SplitMode string

const (
	// Both axes are bisected at their own midpoint. Children always tile the parent exactly.
	SplitBisect SplitMode = "BISECT"

	// Half of the X extent is used as the step on both axes. Identical to SplitBisect on square
	// tiles; on non-square tiles the upper quadrants absorb the remaining Y extent.
	SplitXExtent SplitMode = "XEXTENT"
)

func (m SplitMode) String() string {
	return string(m)
}

func ParseSplitMode(value string) SplitMode {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "" || normalizedValue == "BISECT" {
		return SplitBisect
	} else if normalizedValue == "XEXTENT" || normalizedValue == "X" {
		return SplitXExtent
	}
	return ""
}

// Quadrant cell offsets in split order: bottom-left, bottom-right, top-right, top-left,
// i.e. counter-clockwise starting from the minimum corner.
var QuadrantOffsets = [4][2]int{
	{0, 0},
	{1, 0},
	{1, 1},
	{0, 1},
}

// Axis aligned box. The Z range of a tile is inherited from the top level extent.
type BoundingBox struct {
	Xmin float64
	Xmax float64
	Ymin float64
	Ymax float64
	Zmin float64
	Zmax float64
	Xmid float64
	Ymid float64
	Zmid float64
}

// Builds a new bounding box from the given min/max values per axis
func NewBoundingBox(minX, maxX, minY, maxY, minZ, maxZ float64) *BoundingBox {
	return &BoundingBox{
		Xmin: minX,
		Xmax: maxX,
		Ymin: minY,
		Ymax: maxY,
		Zmin: minZ,
		Zmax: maxZ,
		Xmid: (minX + maxX) / 2,
		Ymid: (minY + maxY) / 2,
		Zmid: (minZ + maxZ) / 2,
	}
}

func NewBoundingBoxFromCorners(min, max r3.Vector) *BoundingBox {
	return NewBoundingBox(min.X, max.X, min.Y, max.Y, min.Z, max.Z)
}

// Returns the box covering the given quadrant (0..3, see QuadrantOffsets) of the parent box
func NewBoundingBoxFromParent(parent *BoundingBox, quadrant uint8, mode SplitMode) *BoundingBox {
	sx := (parent.Xmax - parent.Xmin) * 0.5
	sy := (parent.Ymax - parent.Ymin) * 0.5
	if mode == SplitXExtent {
		sy = sx
	}

	switch quadrant {
	case 0:
		return NewBoundingBox(parent.Xmin, parent.Xmin+sx, parent.Ymin, parent.Ymin+sy, parent.Zmin, parent.Zmax)
	case 1:
		return NewBoundingBox(parent.Xmin+sx, parent.Xmax, parent.Ymin, parent.Ymin+sy, parent.Zmin, parent.Zmax)
	case 2:
		return NewBoundingBox(parent.Xmin+sx, parent.Xmax, parent.Ymin+sy, parent.Ymax, parent.Zmin, parent.Zmax)
	default:
		return NewBoundingBox(parent.Xmin, parent.Xmin+sx, parent.Ymin+sy, parent.Ymax, parent.Zmin, parent.Zmax)
	}
}

// Splits the box in its four quadrants, in QuadrantOffsets order
func (b *BoundingBox) Quadrants(mode SplitMode) [4]*BoundingBox {
	var quadrants [4]*BoundingBox
	for i := uint8(0); i < 4; i++ {
		quadrants[i] = NewBoundingBoxFromParent(b, i, mode)
	}
	return quadrants
}

func (b *BoundingBox) Min() r3.Vector {
	return r3.Vector{X: b.Xmin, Y: b.Ymin, Z: b.Zmin}
}

func (b *BoundingBox) Max() r3.Vector {
	return r3.Vector{X: b.Xmax, Y: b.Ymax, Z: b.Zmax}
}

func (b *BoundingBox) Center() r3.Vector {
	return r3.Vector{X: b.Xmid, Y: b.Ymid, Z: b.Zmid}
}

func (b *BoundingBox) Width() float64 {
	return b.Xmax - b.Xmin
}

func (b *BoundingBox) Height() float64 {
	return b.Ymax - b.Ymin
}

func (b *BoundingBox) Depth() float64 {
	return b.Zmax - b.Zmin
}

// Area of the XY footprint
func (b *BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Reports whether the XY footprints of the two boxes overlap. Touching edges count as overlap,
// so a quadrant sharing only an edge with the scattering area is still built.
func (b *BoundingBox) Intersects(other *BoundingBox) bool {
	return math.Max(b.Xmin, other.Xmin) <= math.Min(b.Xmax, other.Xmax) &&
		math.Max(b.Ymin, other.Ymin) <= math.Min(b.Ymax, other.Ymax)
}

// Reports whether the point lies inside the XY footprint of the box, borders included
func (b *BoundingBox) ContainsXY(p r3.Vector) bool {
	return p.X >= b.Xmin && p.X <= b.Xmax && p.Y >= b.Ymin && p.Y <= b.Ymax
}

func (b *BoundingBox) IsValid() bool {
	return b.Xmax >= b.Xmin && b.Ymax >= b.Ymin && b.Zmax >= b.Zmin
}

// Returns a copy of the box moved by the given vector
func (b *BoundingBox) Translate(offset r3.Vector) *BoundingBox {
	return NewBoundingBoxFromCorners(b.Min().Add(offset), b.Max().Add(offset))
}

func (b *BoundingBox) GetAsArray() []float64 {
	return []float64{b.Xmin, b.Ymin, b.Zmin, b.Xmax, b.Ymax, b.Zmax}
}

func NewBoundingBoxFromArray(values []float64) *BoundingBox {
	if len(values) != 6 {
		return nil
	}
	return NewBoundingBox(values[0], values[3], values[1], values[4], values[2], values[5])
}
