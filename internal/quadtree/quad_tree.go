package quadtree

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ecopia-map/vegetation_tiler/internal/data"
	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

// Quadtree of vegetation tiles rooted at a square tile anchored at the local origin
type QuadTree struct {
	ctx      *ScatteringContext
	rootTile *geometry.BoundingBox
	rootNode scene.Node
	built    bool
}

func NewQuadTree(ctx *ScatteringContext, rootTile *geometry.BoundingBox) ITree {
	return &QuadTree{
		ctx:      ctx,
		rootTile: rootTile,
	}
}

func (tree *QuadTree) Build() error {
	if tree.built {
		return errors.New("quadtree already built")
	}
	if tree.ctx.Paged && tree.ctx.Store == nil {
		return errors.New("paged quadtree requires a tile store")
	}

	root, err := tree.buildTile(0, 0, 0, tree.rootTile)
	if err != nil {
		return err
	}
	tree.rootNode = root
	tree.built = true
	return nil
}

func (tree *QuadTree) GetRootNode() scene.Node {
	return tree.rootNode
}

func (tree *QuadTree) IsBuilt() bool {
	return tree.built
}

// Builds the node of tile (depth, x, y). Never returns a nil node: an empty tile yields an empty group.
func (tree *QuadTree) buildTile(depth, x, y int, tile *geometry.BoundingBox) (scene.Node, error) {
	ctx := tree.ctx
	tree.reportProgress(depth)

	near, err := tree.buildBatch(depth, x, y, tile)
	if err != nil {
		return nil, err
	}

	if depth >= ctx.FinalDepth {
		if near == nil {
			return scene.NewGroupNode(), nil
		}
		return near, nil
	}

	children := scene.NewGroupNode()
	for quadrant, childTile := range tile.Quadrants(ctx.SplitMode) {
		if !childTile.IsValid() || !childTile.Intersects(ctx.InitialBounds) {
			continue
		}
		offset := geometry.QuadrantOffsets[quadrant]
		child, err := tree.buildTile(depth+1, x*2+offset[0], y*2+offset[1], childTile)
		if err != nil {
			return nil, err
		}
		children.AddChild(child)
	}

	side := math.Max(tile.Width(), tile.Height())
	center := tile.Center()
	radius := scene.TileRadius(side)
	cutoff := scene.TileCutoff(side)

	if !ctx.Paged {
		return &scene.LODNode{
			Center:  center,
			Radius:  radius,
			Cutoff:  cutoff,
			Coarse:  near,
			Refined: children,
		}, nil
	}

	fileName := io.TileFileName(ctx.FilenamePrefix, depth, x, y, ctx.Extension)
	if err := ctx.Store.Save(fileName, children); err != nil {
		return nil, errors.Wrapf(err, "cannot save tile %s", fileName)
	}
	return &scene.PagedLODNode{
		Center:   center,
		Radius:   radius,
		Cutoff:   cutoff,
		Coarse:   near,
		FileName: fileName,
	}, nil
}

// Scatters the layers active at the tile depth and batches their instances. Returns nil when
// the tile holds no instances.
func (tree *QuadTree) buildBatch(depth, x, y int, tile *geometry.BoundingBox) (scene.Node, error) {
	ctx := tree.ctx
	active := ctx.activeLayers(depth)
	if len(active) == 0 {
		return nil, nil
	}

	rnd := TileRandom(ctx.Seed, depth, x, y)
	var instances []*data.Instance
	for _, layer := range active {
		instances = append(instances, ctx.Sampler.Populate(layer, tile, rnd)...)
	}
	if len(instances) == 0 {
		return nil, nil
	}

	node, err := ctx.Builder.Build(instances, tile)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build batch of tile %d_X%d_Y%d", depth, x, y)
	}
	return node, nil
}

func (tree *QuadTree) reportProgress(depth int) {
	ctx := tree.ctx
	current := ctx.CurrentTile
	ctx.CurrentTile++
	if depth < progressMaxDepth && ctx.TotalTiles > 0 {
		tools.LogOutputf("Progress: %s%% tile %d of %d", tools.FormatPercentage(current, ctx.TotalTiles), current, ctx.TotalTiles)
	}
}
