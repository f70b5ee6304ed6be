package quadtree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/ecopia-map/vegetation_tiler/internal/batch"
	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/sampler"
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
	"github.com/ecopia-map/vegetation_tiler/internal/terrain"
)

type memoryStore struct {
	files map[string]scene.Node
	fail  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: map[string]scene.Node{}}
}

func (s *memoryStore) Save(fileName string, node scene.Node) error {
	if s.fail != nil {
		return s.fail
	}
	s.files[fileName] = node
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

func flatTerrain() terrain.Query {
	return terrain.QueryFunc(func(point r3.Vector) (terrain.Hit, bool) {
		return terrain.Hit{
			TerrainColor:  data.NewColor(0.3, 0.5, 0.2, 1),
			MaterialColor: data.NewColor(0, 1, 0, 1),
			Point:         r3.Vector{X: point.X, Y: point.Y, Z: 2},
		}, true
	})
}

func newTestLayer(name string, viewDistance, density float64) *data.Layer {
	return &data.Layer{
		Name:            name,
		TextureName:     name + ".png",
		ViewDistance:    viewDistance,
		Density:         density,
		Width:           data.NewRange(1, 2),
		Height:          data.NewRange(2, 3),
		Scale:           data.NewRange(0.8, 1.2),
		ColorIntensity:  data.NewRange(0.1, 0.3),
		MixInColorRatio: 0.5,
	}
}

// Builds a context the way the scattering facade does, for a scattering area anchored at the origin
func newTestContext(initial *geometry.BoundingBox, layers []*data.Layer, seed int64) (*ScatteringContext, *geometry.BoundingBox) {
	maxExtent := math.Max(initial.Width(), initial.Height())
	for _, l := range layers {
		maxExtent = math.Max(maxExtent, l.ViewDistance)
	}
	finalDepth := 0
	for _, l := range layers {
		l.ActivationDepth = ActivationDepth(maxExtent, l.ViewDistance)
		if l.ActivationDepth > finalDepth {
			finalDepth = l.ActivationDepth
		}
	}
	textures := batch.ResolveTextures(layers)
	ctx := &ScatteringContext{
		Layers:         layers,
		InitialBounds:  initial,
		FinalDepth:     finalDepth,
		SplitMode:      geometry.SplitBisect,
		Seed:           seed,
		FilenamePrefix: "quadtree_",
		Extension:      "vtile",
		Sampler:        sampler.NewDensitySampler(initial, r3.Vector{}, flatTerrain()),
		Builder:        batch.NewShaderInstancingBuilder(textures),
		TotalTiles:     TotalTileCount(finalDepth),
	}
	return ctx, geometry.NewBoundingBox(0, maxExtent, 0, maxExtent, initial.Zmin, initial.Zmax)
}

func TestActivationDepthIsSmallestSufficientDepth(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	for i := 0; i < 1000; i++ {
		maxExtent := 1 + rnd.Float64()*100000
		viewDistance := 0.5 + rnd.Float64()*maxExtent

		d := ActivationDepth(maxExtent, viewDistance)
		test.That(t, math.Ldexp(maxExtent, -d), test.ShouldBeLessThanOrEqualTo, viewDistance)
		if d > 0 {
			test.That(t, math.Ldexp(maxExtent, -(d-1)), test.ShouldBeGreaterThan, viewDistance)
		}
	}
}

func TestActivationDepthExamples(t *testing.T) {
	test.That(t, ActivationDepth(100, 50), test.ShouldEqual, 1)
	test.That(t, ActivationDepth(120, 30), test.ShouldEqual, 2)
	test.That(t, ActivationDepth(120, 120), test.ShouldEqual, 0)
	test.That(t, ActivationDepth(120, 500), test.ShouldEqual, 0)
	test.That(t, ActivationDepth(1000, 1), test.ShouldEqual, 10)

	// shorter view distances never activate earlier
	prev := 0
	for vd := 1000.0; vd > 1; vd *= 0.9 {
		d := ActivationDepth(1000, vd)
		test.That(t, d, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = d
	}
}

func TestTotalTileCount(t *testing.T) {
	test.That(t, TotalTileCount(0), test.ShouldEqual, 0)
	test.That(t, TotalTileCount(1), test.ShouldEqual, 4)
	test.That(t, TotalTileCount(2), test.ShouldEqual, 20)
	test.That(t, TotalTileCount(3), test.ShouldEqual, 84)
}

func TestTileRandomIsPerTile(t *testing.T) {
	a := TileRandom(7, 2, 1, 3).Int63()
	test.That(t, TileRandom(7, 2, 1, 3).Int63(), test.ShouldEqual, a)
	test.That(t, TileRandom(7, 2, 3, 1).Int63(), test.ShouldNotEqual, a)
	test.That(t, TileRandom(8, 2, 1, 3).Int63(), test.ShouldNotEqual, a)
	test.That(t, TileRandom(7, 1, 1, 3).Int63(), test.ShouldNotEqual, a)
}

func TestBuildFinalDepthZeroReturnsSingleBatch(t *testing.T) {
	initial := geometry.NewBoundingBox(0, 100, 0, 100, 0, 10)
	ctx, root := newTestContext(initial, []*data.Layer{newTestLayer("tree", 150, 0.01)}, 1)
	test.That(t, ctx.FinalDepth, test.ShouldEqual, 0)

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)
	test.That(t, tree.IsBuilt(), test.ShouldBeTrue)

	node, ok := tree.GetRootNode().(*scene.BatchNode)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, node.InstanceCount, test.ShouldBeGreaterThan, 0)
	test.That(t, node.Bounds.GetAsArray(), test.ShouldResemble, []float64{0, 0, 0, 150, 150, 10})
	test.That(t, ctx.CurrentTile, test.ShouldEqual, 1)

	test.That(t, tree.Build(), test.ShouldNotBeNil)
}

func TestBuildSplitsIntoQuadrants(t *testing.T) {
	initial := geometry.NewBoundingBox(0, 100, 0, 100, 0, 10)
	ctx, root := newTestContext(initial, []*data.Layer{newTestLayer("grass", 50, 0.01)}, 1)
	test.That(t, ctx.FinalDepth, test.ShouldEqual, 1)

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)

	lod, ok := tree.GetRootNode().(*scene.LODNode)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, lod.Coarse, test.ShouldBeNil)
	test.That(t, lod.Center, test.ShouldResemble, r3.Vector{X: 50, Y: 50, Z: 5})
	test.That(t, lod.Radius, test.ShouldAlmostEqual, 50*math.Sqrt2)
	test.That(t, lod.Cutoff, test.ShouldAlmostEqual, 100*math.Sqrt2)

	group := lod.Refined.(*scene.GroupNode)
	test.That(t, group.NumChildren(), test.ShouldEqual, 4)
	expected := [][]float64{
		{0, 0, 0, 50, 50, 10},
		{50, 0, 0, 100, 50, 10},
		{50, 50, 0, 100, 100, 10},
		{0, 50, 0, 50, 100, 10},
	}
	total := 0
	for i, child := range group.Children {
		b := child.(*scene.BatchNode)
		test.That(t, b.Bounds.GetAsArray(), test.ShouldResemble, expected[i])
		total += b.InstanceCount
	}
	// 25 candidates per quadrant, all accepted by the flat terrain
	test.That(t, total, test.ShouldEqual, 100)
	test.That(t, ctx.CurrentTile, test.ShouldEqual, 5)
	test.That(t, ctx.TotalTiles, test.ShouldEqual, 4)
}

func TestBuildSkipsQuadrantsOutsideInitialBounds(t *testing.T) {
	// the square root tile is 120 wide, the scattering area covers only its lower strip
	initial := geometry.NewBoundingBox(0, 120, 0, 20, 0, 10)
	ctx, root := newTestContext(initial, []*data.Layer{newTestLayer("grass", 30, 0.01)}, 3)
	test.That(t, ctx.FinalDepth, test.ShouldEqual, 2)

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)

	maxDepth := 0
	scene.Walk(tree.GetRootNode(), func(n scene.Node, depth int) bool {
		if b, ok := n.(*scene.BatchNode); ok {
			test.That(t, b.Bounds.Ymin, test.ShouldBeLessThanOrEqualTo, initial.Ymax)
			test.That(t, b.Bounds.Width(), test.ShouldEqual, 30)
			for i := 0; i < b.InstanceCount; i++ {
				test.That(t, initial.ContainsXY(batch.UnpackInstance(b.Params, i).Position), test.ShouldBeTrue)
			}
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		return true
	})

	top := tree.GetRootNode().(*scene.LODNode).Refined.(*scene.GroupNode)
	test.That(t, top.NumChildren(), test.ShouldEqual, 2)
	for _, child := range top.Children {
		// each lower quadrant keeps only its two lower children
		test.That(t, child.(*scene.LODNode).Refined.(*scene.GroupNode).NumChildren(), test.ShouldEqual, 2)
	}
	// root lod, group, lod, group, batch
	test.That(t, maxDepth, test.ShouldEqual, 4)
	test.That(t, ctx.CurrentTile, test.ShouldEqual, 1+2+4)
}

func TestBuildKeepsQuadrantsTouchingInitialBounds(t *testing.T) {
	// the upper quadrants share only the y=50 edge with the scattering area
	initial := geometry.NewBoundingBox(0, 100, 0, 50, 0, 10)
	ctx, root := newTestContext(initial, []*data.Layer{newTestLayer("grass", 50, 0.01)}, 5)
	test.That(t, ctx.FinalDepth, test.ShouldEqual, 1)

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)
	test.That(t, ctx.CurrentTile, test.ShouldEqual, 1+4)

	top := tree.GetRootNode().(*scene.LODNode).Refined.(*scene.GroupNode)
	test.That(t, top.NumChildren(), test.ShouldEqual, 4)
	test.That(t, top.Children[0].(*scene.BatchNode).InstanceCount, test.ShouldEqual, 25)
	test.That(t, top.Children[1].(*scene.BatchNode).InstanceCount, test.ShouldEqual, 25)
	for _, child := range top.Children[2:] {
		test.That(t, child.(*scene.GroupNode).NumChildren(), test.ShouldEqual, 0)
	}
}

func TestBuildPoolsLayersAndKeepsCoarseBatches(t *testing.T) {
	initial := geometry.NewBoundingBox(0, 100, 0, 100, 0, 10)
	layers := []*data.Layer{
		newTestLayer("tree", 100, 0.001),
		newTestLayer("bush", 50, 0.002),
		newTestLayer("grass", 50, 0.004),
	}
	ctx, root := newTestContext(initial, layers, 5)

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)

	lod := tree.GetRootNode().(*scene.LODNode)
	coarse := lod.Coarse.(*scene.BatchNode)
	test.That(t, coarse.InstanceCount, test.ShouldEqual, 10)
	for i := 0; i < coarse.InstanceCount; i++ {
		test.That(t, batch.UnpackInstance(coarse.Params, i).TextureIndex, test.ShouldEqual, 0)
	}

	textures := map[int]int{}
	for _, child := range lod.Refined.(*scene.GroupNode).Children {
		b := child.(*scene.BatchNode)
		test.That(t, b.InstanceCount, test.ShouldEqual, 5+10)
		for i := 0; i < b.InstanceCount; i++ {
			textures[batch.UnpackInstance(b.Params, i).TextureIndex]++
		}
	}
	test.That(t, textures, test.ShouldResemble, map[int]int{1: 20, 2: 40})
}

func TestBuildIsDeterministic(t *testing.T) {
	build := func() scene.Node {
		initial := geometry.NewBoundingBox(0, 200, 0, 140, 0, 10)
		layers := []*data.Layer{newTestLayer("tree", 200, 0.001), newTestLayer("grass", 25, 0.01)}
		ctx, root := newTestContext(initial, layers, 2024)
		tree := NewQuadTree(ctx, root)
		test.That(t, tree.Build(), test.ShouldBeNil)
		return tree.GetRootNode()
	}
	test.That(t, build(), test.ShouldResemble, build())
}

func TestBuildPaged(t *testing.T) {
	initial := geometry.NewBoundingBox(0, 100, 0, 100, 0, 10)
	layers := []*data.Layer{newTestLayer("tree", 100, 0.001), newTestLayer("grass", 25, 0.01)}
	ctx, root := newTestContext(initial, layers, 9)
	store := newMemoryStore()
	ctx.Paged = true
	ctx.Store = store

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)

	paged := tree.GetRootNode().(*scene.PagedLODNode)
	test.That(t, paged.FileName, test.ShouldEqual, "quadtree_0_X0_Y0.vtile")
	test.That(t, paged.Coarse, test.ShouldNotBeNil)
	test.That(t, paged.Cutoff, test.ShouldAlmostEqual, 100*math.Sqrt2)

	var names []string
	for name := range store.files {
		names = append(names, name)
	}
	sort.Strings(names)
	test.That(t, names, test.ShouldResemble, []string{
		"quadtree_0_X0_Y0.vtile",
		"quadtree_1_X0_Y0.vtile",
		"quadtree_1_X0_Y1.vtile",
		"quadtree_1_X1_Y0.vtile",
		"quadtree_1_X1_Y1.vtile",
	})

	// depth 1 tiles have no layer of their own: the paged node holds no coarse batch
	top := store.files["quadtree_0_X0_Y0.vtile"].(*scene.GroupNode)
	test.That(t, top.NumChildren(), test.ShouldEqual, 4)
	second := top.Children[1].(*scene.PagedLODNode)
	test.That(t, second.Coarse, test.ShouldBeNil)
	test.That(t, second.FileName, test.ShouldEqual, "quadtree_1_X1_Y0.vtile")
	test.That(t, second.Center, test.ShouldResemble, r3.Vector{X: 75, Y: 25, Z: 5})

	leaves := store.files["quadtree_1_X1_Y0.vtile"].(*scene.GroupNode)
	test.That(t, leaves.NumChildren(), test.ShouldEqual, 4)
	for _, leaf := range leaves.Children {
		b := leaf.(*scene.BatchNode)
		test.That(t, b.Bounds.Xmin, test.ShouldBeGreaterThanOrEqualTo, 50)
		test.That(t, b.Bounds.Ymax, test.ShouldBeLessThanOrEqualTo, 50)
	}
}

func TestBuildPagedPropagatesStoreErrors(t *testing.T) {
	initial := geometry.NewBoundingBox(0, 100, 0, 100, 0, 10)
	ctx, root := newTestContext(initial, []*data.Layer{newTestLayer("grass", 50, 0.01)}, 1)
	store := newMemoryStore()
	store.fail = errors.New("disk full")
	ctx.Paged = true
	ctx.Store = store

	err := NewQuadTree(ctx, root).Build()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Cause(err).Error(), test.ShouldEqual, "disk full")

	ctx.Store = nil
	test.That(t, NewQuadTree(ctx, root).Build(), test.ShouldNotBeNil)
}

func TestBuildEmptyTileIsValidNode(t *testing.T) {
	initial := geometry.NewBoundingBox(0, 100, 0, 100, 0, 10)
	layer := newTestLayer("grass", 50, 0.01)
	layer.Materials = []data.MaterialColor{{Color: data.NewColor(1, 0, 0, 1), Tolerance: 0.01}}
	ctx, root := newTestContext(initial, []*data.Layer{layer}, 1)

	tree := NewQuadTree(ctx, root)
	test.That(t, tree.Build(), test.ShouldBeNil)
	lod := tree.GetRootNode().(*scene.LODNode)
	for _, child := range lod.Refined.(*scene.GroupNode).Children {
		group, ok := child.(*scene.GroupNode)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, group.NumChildren(), test.ShouldEqual, 0)
	}
	_, instances := scene.CountInstances(lod)
	test.That(t, instances, test.ShouldEqual, 0)
}
