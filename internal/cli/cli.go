package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve  *ServeCommand
	Add    *AddCommand
	Status *StatusCommand
	Stats  *StatsCommand
	Team   *TeamCommand
	Reset  *ResetCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "driftwatch"
	parser.LongDescription = "Local distraction tracking for browser extensions: classification, daily stats, and team sync."

	cmds := &commands{
		Serve:  &ServeCommand{globals: &globals, version: version},
		Add:    &AddCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
		Stats:  &StatsCommand{globals: &globals, version: version},
		Team:   &TeamCommand{globals: &globals, version: version},
		Reset:  &ResetCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Run the DriftWatch daemon", "Run the DriftWatch daemon (local HTTP service the extension talks to).", cmds.Serve)
	parser.AddCommand("add", "Manually record a page visit", "Manually classify and record a page visit.", cmds.Add)
	parser.AddCommand("status", "Show daemon and storage status", "Show daemon health, storage counts, and configuration summary.", cmds.Status)
	parser.AddCommand("stats", "Show a day's analytics snapshot", "Show productivity score, peak hours, and top distractions for a day.", cmds.Stats)
	parser.AddCommand("team", "Show the team dashboard", "Fetch and render the team dashboard from the backend.", cmds.Team)
	parser.AddCommand("reset", "Delete ALL tracking data", "Delete ALL tracking data. Destructive operation with safety prompt.", cmds.Reset)

	return parser, &globals, cmds
}

// Run is the main entry point for the DriftWatch CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("driftwatch %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
