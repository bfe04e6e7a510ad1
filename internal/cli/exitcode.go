// Package cli implements the forensic/benchmarking CLI surface from spec
// §6: the benchmark and validate subcommands, plus the hive/node server
// launchers that front internal/hive and internal/node. Grounded on the
// teacher's root main.go: flag-driven subcommands, a dedicated
// initLogger-style setup, and banner/usage printers, adapted from a
// single global flag.FlagSet to one FlagSet per subcommand since spec §6
// names per-subcommand flags (benchmark's --iterations) rather than a
// mode switch over shared global flags.
package cli

// Exit codes from spec §6.
const (
	ExitSuccess       = 0
	ExitUserInput     = 1
	ExitSemantic      = 2
	ExitConfiguration = 64
	ExitNetwork       = 69
	ExitInternal      = 70
)
