// Command opentron-node is the node's entrypoint (spec §6 "CLI ... A main
// binary takes --config <path.toml> and subcommands check, fix, dev, else
// runs the node"). Grounded on kaspad.go's lifecycle struct (start/shutdown
// atomics, ordered subsystem bring-up) and go-flags's command pattern, the
// same library the teacher uses for every one of its own cmd/ tools.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/opentron/opentron-sub001/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.MAIN)

// options is the flag surface spec §6 names, plus a log level knob every
// one of the teacher's own daemons exposes.
type options struct {
	ConfigPath string `short:"c" long:"config" description:"Path to config.toml" required:"true"`
	LogLevel   string `long:"loglevel" description:"Log level for every subsystem (trace, debug, info, warn, error)" default:"info"`

	Check checkCommand `command:"check" description:"Validate config and databases, then exit"`
	Fix   fixCommand   `command:"fix" description:"Rebuild derived on-disk indexes, then exit"`
	Dev   devCommand   `command:"dev" description:"Run a single-node development chain with the producer forced on"`
}

var opts = &options{}

func main() {
	parser := flags.NewParser(opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.SetLogLevels(opts.LogLevel)

	if parser.Active != nil {
		// A subcommand's Execute already ran and succeeded; a failing one
		// made Parse return its error above.
		return
	}

	if err := runNode(opts.ConfigPath, false); err != nil {
		log.Errorf("%+v", err)
		os.Exit(1)
	}
}

type checkCommand struct{}

func (c *checkCommand) Execute(args []string) error {
	logger.SetLogLevels(opts.LogLevel)
	return runCheck(opts.ConfigPath)
}

type fixCommand struct{}

func (c *fixCommand) Execute(args []string) error {
	logger.SetLogLevels(opts.LogLevel)
	return runFix(opts.ConfigPath)
}

type devCommand struct{}

func (c *devCommand) Execute(args []string) error {
	logger.SetLogLevels(opts.LogLevel)
	return runNode(opts.ConfigPath, true)
}
