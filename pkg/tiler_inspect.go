package pkg

import (
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ecopia-map/vegetation_tiler/internal/io"
	"github.com/ecopia-map/vegetation_tiler/internal/scene"
	"github.com/ecopia-map/vegetation_tiler/internal/tiler"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

var ErrDanglingReference = errors.New("dangling tile reference")

// Statistics of the tiles found at one quadtree depth
type LevelReport struct {
	Depth     int
	Tiles     int
	Batches   int
	Instances int
}

type InspectReport struct {
	Files        int
	Levels       []*LevelReport
	GeoReference *scene.GeoReference
	State        *scene.StateSet
}

func (r *InspectReport) TotalInstances() int {
	total := 0
	for _, l := range r.Levels {
		total += l.Instances
	}
	return total
}

func (r *InspectReport) TotalBatches() int {
	total := 0
	for _, l := range r.Levels {
		total += l.Batches
	}
	return total
}

func (r *InspectReport) level(depth int) *LevelReport {
	for len(r.Levels) <= depth {
		r.Levels = append(r.Levels, &LevelReport{Depth: len(r.Levels)})
	}
	return r.Levels[depth]
}

type TilerInspect struct{}

func NewTilerInspect() tiler.ITiler {
	return &TilerInspect{}
}

// Loads the master or scene file given in opts.InspectOptions and logs its statistics
func (tilerInspect *TilerInspect) RunTiler(opts *tiler.ScatterOptions) error {
	if opts.InspectOptions == nil || opts.InspectOptions.Input == "" {
		return errors.New("no input file to inspect")
	}
	input := opts.InspectOptions.Input

	glog.Infoln("> inspecting", input)
	report, err := Inspect(io.NewFileStore(filepath.Dir(input)), filepath.Base(input))
	if err != nil {
		return err
	}

	if report.GeoReference != nil {
		tools.LogOutputf("geo reference EPSG:%d lon %s lat %s height %s", report.GeoReference.Srid,
			tools.FormatFixed(report.GeoReference.Longitude, 8),
			tools.FormatFixed(report.GeoReference.Latitude, 8),
			tools.FormatFixed(report.GeoReference.Height, 3))
	}
	if report.State != nil {
		tools.LogOutputf("textures: %v", report.State.Textures)
	}
	for _, l := range report.Levels {
		tools.LogOutputf("depth %d: %d tiles, %d batches, %d instances", l.Depth, l.Tiles, l.Batches, l.Instances)
	}
	mean := 0.0
	if batches := report.TotalBatches(); batches > 0 {
		mean = float64(report.TotalInstances()) / float64(batches)
	}
	tools.LogOutputf("%d files, %d batches, %d instances, %s instances per batch",
		report.Files, report.TotalBatches(), report.TotalInstances(), tools.FormatFixed(mean, 1))
	return nil
}

// Reads the scene stored in fileName and every paged tile it references, directly or not
func Inspect(loader io.TileLoader, fileName string) (*InspectReport, error) {
	inspector := &sceneInspector{
		loader:  loader,
		visited: map[string]bool{},
		report:  &InspectReport{},
	}

	root, err := inspector.load(fileName)
	if err != nil {
		return nil, err
	}
	inspector.report.State = root.StateSet()

	tiles := []scene.Node{root}
	if transform, ok := root.(*scene.TransformNode); ok {
		inspector.report.GeoReference = transform.GeoReference
		tiles = transform.Children
	}
	for _, tile := range tiles {
		if inspector.report.State == nil {
			inspector.report.State = tile.StateSet()
		}
		if err := inspector.visitTile(tile, 0); err != nil {
			return nil, err
		}
	}
	return inspector.report, nil
}

type sceneInspector struct {
	loader  io.TileLoader
	visited map[string]bool
	report  *InspectReport
}

func (i *sceneInspector) load(fileName string) (scene.Node, error) {
	if i.visited[fileName] {
		return nil, errors.Errorf("tile file %s referenced more than once", fileName)
	}
	i.visited[fileName] = true

	node, err := i.loader.Load(fileName)
	if err != nil {
		return nil, errors.Wrapf(ErrDanglingReference, "%s: %v", fileName, err)
	}
	i.report.Files++
	return node, nil
}

// Visits the node built for a tile at the given depth
func (i *sceneInspector) visitTile(node scene.Node, depth int) error {
	i.report.level(depth).Tiles++

	switch n := node.(type) {
	case *scene.LODNode:
		i.countBatches(n.Coarse, depth)
		return i.visitRefinement(n.Refined, depth+1)
	case *scene.PagedLODNode:
		i.countBatches(n.Coarse, depth)
		refined, err := i.load(n.FileName)
		if err != nil {
			return err
		}
		return i.visitRefinement(refined, depth+1)
	default:
		i.countBatches(node, depth)
	}
	return nil
}

func (i *sceneInspector) visitRefinement(node scene.Node, depth int) error {
	if node == nil {
		return nil
	}
	tiles := []scene.Node{node}
	if group, ok := node.(*scene.GroupNode); ok {
		tiles = group.Children
	}
	for _, tile := range tiles {
		if err := i.visitTile(tile, depth); err != nil {
			return err
		}
	}
	return nil
}

func (i *sceneInspector) countBatches(node scene.Node, depth int) {
	if node == nil {
		return
	}
	batches, instances := scene.CountInstances(node)
	level := i.report.level(depth)
	level.Batches += batches
	level.Instances += instances
}
