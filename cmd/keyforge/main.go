// Command keyforge is the process entry point for every KeyForge role:
// the Hive coordinator, a Node worker, and the forensic/benchmarking CLI
// surface from spec §6. Grounded on the teacher's root main.go: a
// banner/usage pair and a mode dispatch, adapted from one global
// flag.FlagSet switched by -mode into one flag.FlagSet per subcommand,
// since spec §6 gives benchmark and validate their own flags rather than
// sharing a global set.
package main

import (
	"fmt"
	"os"
	"time"

	logger "github.com/kamalyes/go-logger"

	"github.com/infodungeon/keyforge/internal/cli"
	"github.com/infodungeon/keyforge/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return cli.ExitUserInput
	}

	verbose := false
	filtered := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		if a == "-v" || a == "--verbose" {
			verbose = true
			continue
		}
		filtered = append(filtered, a)
	}

	log := initLogger(verbose)

	switch args[0] {
	case "hive":
		return cli.ServeHive(filtered, log)
	case "node":
		return cli.ServeNode(filtered, log)
	case "benchmark":
		return cli.Benchmark(filtered, log)
	case "validate":
		return cli.Validate(filtered, log)
	case "version", "-version", "--version":
		fmt.Println("keyforge version 0.1.0")
		return cli.ExitSuccess
	case "help", "-h", "--help":
		printUsage()
		return cli.ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "keyforge: unknown command %q\n\n", args[0])
		printUsage()
		return cli.ExitUserInput
	}
}

func initLogger(verbose bool) logging.ILogger {
	cfg := logger.DefaultConfig().
		WithPrefix("[KEYFORGE] ").
		WithColorful(true).
		WithTimeFormat(time.DateTime)
	if verbose {
		cfg = cfg.WithLevel(logger.DEBUG).WithShowCaller(true)
	} else {
		cfg = cfg.WithLevel(logger.INFO).WithShowCaller(false)
	}
	return logger.NewLogger(cfg)
}

func printUsage() {
	fmt.Println(`keyforge - distributed evolutionary keyboard layout search

Usage:
  keyforge hive     [-addr :8420] [-data-dir data] [-db hive.db]
  keyforge node     [-hive http://127.0.0.1:8420] [-data-dir node-data]
  keyforge benchmark [-iterations 10000] [-json]
  keyforge validate [-keyboard NAME] [-corpus NAME] <layout-string>
  keyforge version
  keyforge help

Environment:
  KEYFORGE_DATA_DIR   overrides the default data directory
  HIVE_SECRET         shared auth token for Hive <-> Node calls
  KEYFORGE_NODE_ID    overrides the persisted node identifier

Exit codes:
  0 success, 1 user input error, 2 semantic/validation error,
  64 configuration error, 69 network error, 70 internal error.`)
}
