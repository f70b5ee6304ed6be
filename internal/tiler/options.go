package tiler

import (
	"strings"

	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
)

const (
	DefaultFilenamePrefix = "quadtree_"
	DefaultExtension      = "vtile"
)

// Contains the options needed for a scattering run
type ScatterOptions struct {
	Config         string             // Scatter job yaml file
	Output         string             // Output folder
	Paged          bool               // if true subtrees are written to separate files and paged on demand
	FilenamePrefix string             // Prefix of every generated tile file
	Extension      string             // Extension of every generated tile file, without dot
	Seed           int64              // Seed of the random streams, combined with the tile coordinates
	SplitMode      geometry.SplitMode // How tiles are bisected
	Workers        int                // Number of goroutines writing paged tiles, 0 writes synchronously
	Srid           int                // EPSG code of the scattering bounds, 0 disables geo referencing
	ZOffset        float64            // Vertical offset in meters applied to terrain hits
	DataPaths      []string           // Folders searched for textures and heightmaps

	Command        string
	InspectOptions *InspectOptions
}

type InspectOptions struct {
	Input string // Master or scene tile file to inspect
}

// Returns the folder where paged tiles are saved, or an empty string when paging is disabled
func (opt *ScatterOptions) PagingPath() string {
	if !opt.Paged {
		return ""
	}
	return opt.Output
}

// Returns the extension to use for tile files, normalized without leading dot
func (opt *ScatterOptions) TileExtension() string {
	ext := strings.TrimPrefix(strings.TrimSpace(opt.Extension), ".")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

func (opt *ScatterOptions) Copy() *ScatterOptions {
	newOpt := &ScatterOptions{
		Config:         opt.Config,
		Output:         opt.Output,
		Paged:          opt.Paged,
		FilenamePrefix: opt.FilenamePrefix,
		Extension:      opt.Extension,
		Seed:           opt.Seed,
		SplitMode:      opt.SplitMode,
		Workers:        opt.Workers,
		Srid:           opt.Srid,
		ZOffset:        opt.ZOffset,
		DataPaths:      append([]string(nil), opt.DataPaths...),
		Command:        opt.Command,
		InspectOptions: nil,
	}

	if opt.InspectOptions != nil {
		inspectOpt := *opt.InspectOptions
		newOpt.InspectOptions = &inspectOpt
	}

	return newOpt
}
