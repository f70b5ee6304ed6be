package quadtree

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/ecopia-map/vegetation_tiler/internal/batch"
	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/sampler"
)

// Progress is logged only for the top levels of the tree
const progressMaxDepth = 6

// Run scoped state threaded through the tile recursion. A new context is created for every run.
type ScatteringContext struct {
	// Layers sorted by decreasing view distance, with their activation depth resolved
	Layers []*data.Layer

	// Scattering area and the offset mapping local coordinates to world coordinates
	InitialBounds *geometry.BoundingBox
	Offset        r3.Vector

	FinalDepth int
	SplitMode  geometry.SplitMode
	Seed       int64

	// Paging. Store is required when Paged is set.
	Paged          bool
	FilenamePrefix string
	Extension      string
	Store          io.TileStore

	Sampler sampler.Sampler
	Builder batch.Builder

	TotalTiles  int
	CurrentTile int
}

// Smallest depth d such that maxExtent / 2^d <= viewDistance
func ActivationDepth(maxExtent, viewDistance float64) int {
	depth := 0
	for extent := maxExtent; extent > viewDistance; extent *= 0.5 {
		depth++
	}
	return depth
}

// Expected number of tiles below the root of a tree of the given final depth
func TotalTileCount(finalDepth int) int {
	total := 0
	for depth := 0; depth < finalDepth; depth++ {
		side := 2 << uint(depth)
		total += side * side
	}
	return total
}

// Random source of tile (depth, x, y). Independent of the order in which tiles are visited.
func TileRandom(seed int64, depth, x, y int) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range []int64{seed, int64(depth), int64(x), int64(y)} {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// Layers generated at the given depth
func (ctx *ScatteringContext) activeLayers(depth int) []*data.Layer {
	var active []*data.Layer
	for _, l := range ctx.Layers {
		if l.ActivationDepth == depth {
			active = append(active, l)
		}
	}
	return active
}
