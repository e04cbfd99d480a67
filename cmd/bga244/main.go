// Command bga244 talks to a BGA244 binary gas analyzer over a serial port.
//
// Usage:
//
//	bga244 [flags] command [arguments]
//
// Commands:
//
//	gases                    List the gases of the gas table
//	info                     Print identification, setup, units, telemetry and heater state
//	setup PRIMARY SECONDARY  Set the mode, the concentration type and the gas pair
//	poll                     Read the binary gas ratio every poll interval
//	script FILE.lua          Run a Lua script against the analyzer
//	home                     Return the display to the home screen
//	lasterror                Read and clear the instrument error
//	config                   Print the effective configuration
//
// Flags:
//
//	-config string   Configuration file (default "config.yaml" next to the executable)
//	-port string     Serial port, overrides the configuration
//	-mode string     setup: operating mode (default "Binary Gas Analyzer")
//	-conc string     setup: concentration type, mole or mass (default "mole")
//	-journal         poll: save measurements to the sqlite journal
//	-count int       poll: number of samples, 0 for no limit
//	-logfile         poll: also append the output to the daily log file
//
// Examples:
//
//	# Measure argon in air
//	bga244 -port COM4 setup Argon N2-O2-Ar
//	bga244 -port COM4 -journal poll
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/fpawel/bga244/internal/config"
	"github.com/fpawel/bga244/internal/pkg"
	"github.com/powerman/structlog"
)

func main() {
	pkg.InitLog()

	var (
		configFile = flag.String("config", config.DefaultFilename, "configuration file")
		port       = flag.String("port", "", "serial port, overrides the configuration")
		opts       options
	)
	flag.StringVar(&opts.mode, "mode", "Binary Gas Analyzer", "setup: operating mode")
	flag.StringVar(&opts.conc, "conc", "mole", "setup: concentration type, mole or mass")
	flag.BoolVar(&opts.journal, "journal", false, "poll: save measurements to the sqlite journal")
	flag.IntVar(&opts.count, "count", 0, "poll: number of samples, 0 for no limit")
	flag.BoolVar(&opts.logfile, "logfile", false, "poll: also append the output to the daily log file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] gases|info|setup|poll|script|home|lasterror|config [arguments]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		exitErr(err)
	}
	if *port != "" {
		cfg.Comport.Name = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(cfg, os.Stdout)
	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:], opts); err != nil {
		stop()
		exitErr(err)
	}
}

func exitErr(err error) {
	log.PrintErr(err)
	pkg.PrintMerryStacktrace(log, err)
	os.Exit(1)
}

var log = structlog.New()
