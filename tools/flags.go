package tools

import (
	"flag"
	"strings"

	"github.com/golang/glog"
)

const (
	CommandScatter = "scatter"
	CommandInspect = "inspect"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type FlagsForCommandScatter struct {
	Config    *string `json:"config"`
	Output    *string `json:"output"`
	Paged     *bool   `json:"paged"`
	Prefix    *string `json:"prefix"`
	Extension *string `json:"extension"`
	Seed      *int64  `json:"seed"`
	Workers   *int    `json:"workers"`
	Split     *string `json:"split"`
	Srid      *int    `json:"srid"`
	ZOffset   *float64
	DataPaths *string `json:"data"`
	Silent    *bool
	Help      *bool
}

type FlagsForCommandInspect struct {
	Input  *string `json:"input"`
	Silent *bool
	Help   *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of vegetation_tiler.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandScatter(args []string) (FlagsForCommandScatter, *flag.FlagSet) {
	glog.V(1).Infoln("scatter args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-scatter", flag.ExitOnError)

	config := defineStringFlagCommand(flagCommand, "config", "c", "", "Specifies the yaml scatter job.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the tiles.")
	paged := defineBoolFlagCommand(flagCommand, "paged", "p", false, "Writes every refinement to its own file, loaded on demand by the viewer.")
	prefix := defineStringFlagCommand(flagCommand, "prefix", "", "quadtree_", "Prefix of the generated tile files.")
	extension := defineStringFlagCommand(flagCommand, "extension", "", "vtile", "Extension of the generated tile files.")
	seed := defineInt64FlagCommand(flagCommand, "seed", "", 0, "Seed of the random placement. 0 uses the seed of the job.")
	workers := defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of goroutines writing paged tiles. 0 or 1 writes them synchronously.")
	split := defineStringFlagCommand(flagCommand, "split", "", "BISECT", "Quadrant split, can be 'BISECT' or 'XEXTENT'. 'XEXTENT' uses half of the X extent as step on both axes.")
	srid := defineIntFlagCommand(flagCommand, "srid", "e", 0, "EPSG srid code of the job bounds. 0 uses the srid of the job.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to terrain hits, in meters. 0 uses the offset of the job.")
	dataPaths := defineStringFlagCommand(flagCommand, "data", "d", "", "Comma separated folders searched for heightmaps and textures.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandScatter{
		Config:    config,
		Output:    output,
		Paged:     paged,
		Prefix:    prefix,
		Extension: extension,
		Seed:      seed,
		Workers:   workers,
		Split:     split,
		Srid:      srid,
		ZOffset:   zOffset,
		DataPaths: dataPaths,
		Silent:    silent,
		Help:      help,
	}, flagCommand
}

func ParseFlagsForCommandInspect(args []string) (FlagsForCommandInspect, *flag.FlagSet) {
	glog.V(1).Infoln("inspect args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-inspect", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the master or scene tile file to inspect.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandInspect{
		Input:  input,
		Silent: silent,
		Help:   help,
	}, flagCommand
}

// Splits a comma separated list, dropping empty entries
func SplitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineInt64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int64, usage string) *int64 {
	var output int64
	flagCommand.Int64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Int64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
