/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/internal/tiler"
	"github.com/ecopia-map/vegetation_tiler/pkg"
	"github.com/ecopia-map/vegetation_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

const VERSION = "0.3.0"

const logo = `
                       _        _   _               _   _ _
__   _____  __ _  ___| |_ __ _| |_(_) ___  _ __   | |_(_) | ___ _ __
\ \ / / _ \/ _  |/ _ \ __/ _  | __| |/ _ \| '_ \  | __| | |/ _ \ '__|
 \ V /  __/ (_| |  __/ || (_| | |_| | (_) | | | | | |_| | |  __/ |
  \_/ \___|\__, |\___|\__\__,_|\__|_|\___/|_| |_|  \__|_|_|\___|_|
           |___/  Quadtree vegetation scattering, YYYY
`

func main() {
	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()

	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 || *flagsGlobal.Help {
		showHelp()
		if len(args) == 0 && !*flagsGlobal.Help {
			glog.Fatal("Please specify a subcommand [scatter|inspect].")
		}
		return
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandScatter:
		mainCommandScatter(args)
	case tools.CommandInspect:
		mainCommandInspect(args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of [scatter|inspect]", cmd)
	}
}

func mainCommandScatter(args []string) {
	// Retrieve command line args
	flags, flagSet := tools.ParseFlagsForCommandScatter(args)

	if *flags.Help {
		printLogo()
		flagSet.SetOutput(os.Stdout)
		flagSet.PrintDefaults()
		return
	}

	// set logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	glog.Infoln("flags", tools.FmtJSONString(flags))

	// Put args inside a ScatterOptions struct
	opts := tiler.ScatterOptions{
		Config:         *flags.Config,
		Output:         *flags.Output,
		Paged:          *flags.Paged,
		FilenamePrefix: *flags.Prefix,
		Extension:      *flags.Extension,
		Seed:           *flags.Seed,
		SplitMode:      geometry.ParseSplitMode(*flags.Split),
		Workers:        *flags.Workers,
		Srid:           *flags.Srid,
		ZOffset:        *flags.ZOffset,
		DataPaths:      tools.SplitList(*flags.DataPaths),
		Command:        tools.CommandScatter,
	}

	// Validate ScatterOptions
	if msg, res := validateOptionsForCommandScatter(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	// Starts the scattering
	defer timeTrack(time.Now(), "scatter")
	finder := tools.NewStandardFileFinder(opts.DataPaths)
	err := pkg.NewTilerScatter(finder, std_algorithm_manager.NewAlgorithmManager).RunTiler(&opts)

	if err != nil {
		glog.Fatal("Error while scattering: ", err)
	} else {
		tools.LogOutput("Scattering Completed")
	}
}

// Validates the input options provided to the command line tool checking
// that the job file exists and the output folder can be created
func validateOptionsForCommandScatter(opts *tiler.ScatterOptions) (string, bool) {
	if _, err := os.Stat(opts.Config); os.IsNotExist(err) {
		return "Scatter job file not found", false
	}
	if opts.Output == "" {
		return "Output folder must be specified", false
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return "Output folder cannot be created: " + err.Error(), false
	}
	if opts.SplitMode == "" {
		return "split should be either BISECT or XEXTENT", false
	}
	if opts.Workers < 0 {
		return "workers cannot be negative", false
	}

	return "", true
}

func mainCommandInspect(args []string) {
	flags, flagSet := tools.ParseFlagsForCommandInspect(args)

	if *flags.Help {
		flagSet.SetOutput(os.Stdout)
		flagSet.PrintDefaults()
		return
	}
	if *flags.Silent {
		tools.DisableLogger()
	}

	opts := tiler.ScatterOptions{
		Command: tools.CommandInspect,
		InspectOptions: &tiler.InspectOptions{
			Input: *flags.Input,
		},
	}
	if _, err := os.Stat(opts.InspectOptions.Input); os.IsNotExist(err) {
		glog.Fatal("Error parsing input parameters: input tile file not found")
	}

	if err := pkg.NewTilerInspect().RunTiler(&opts); err != nil {
		glog.Fatal("Error while inspecting: ", err)
	} else {
		tools.LogOutput("Inspection Completed")
	}
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("vegetation_tiler scatters vegetation billboards over a terrain and stores them in a quadtree of LOD tiles")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Subcommands: scatter, inspect. Use -h after a subcommand to list its flags.")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
