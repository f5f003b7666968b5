// hl7lens is a CLI tool for parsing, validating and comparing HL7 v2.x
// messages.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hl7lens/hl7lens-go/cmd/hl7lens/commands"
	"github.com/hl7lens/hl7lens-go/cmd/hl7lens/interactive"
	"github.com/hl7lens/hl7lens-go/pkg/version"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "parse":
		exitCode = commands.RunParse(args, os.Stdout, os.Stderr)
	case "validate":
		exitCode = commands.RunValidate(args, os.Stdout, os.Stderr)
	case "diff":
		exitCode = commands.RunDiff(args, os.Stdout, os.Stderr)
	case "export":
		exitCode = commands.RunExport(args, os.Stdout, os.Stderr)
	case "defs":
		exitCode = commands.RunDefs(args, os.Stdout, os.Stderr)
	case "events":
		exitCode = commands.RunEvents(args, os.Stdout, os.Stderr)
	case "discover":
		exitCode = commands.RunDiscover(args, os.Stdout, os.Stderr)
	case "shell":
		exitCode = runShell(args, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "-v", "--version":
		fmt.Printf("hl7lens version %s (API %s)\n", version.Release, version.Current)
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func runShell(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts commands.CommonOptions
	commands.AddCommonFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitSuccess
		}
		return exitCommandError
	}

	env, err := commands.NewEnv(opts, os.Stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer env.Close()

	sh, err := interactive.New(env)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	sh.Run(ctx)
	return exitSuccess
}

func printUsage() {
	fmt.Println(`hl7lens - HL7 v2.x message parser, validator and diff tool

Usage:
  hl7lens <command> [options] [files...]

Commands:
  parse      Parse a message and show its annotated structure
  validate   Validate one or more messages against the definitions
  diff       Compare two messages segment by segment
  export     Export a parsed message (json, yaml, cbor, msgpack, csv, xml, txt)
  defs       Browse segment and field definitions
  events     View, filter or summarise a capture log
  discover   Find hl7lens-web instances on the local network
  shell      Start the interactive shell

Options:
  -h, --help     Show this help message
  -v, --version  Show version information

Examples:
  hl7lens parse adt.hl7
  hl7lens validate --strict inbox/*.hl7
  hl7lens diff before.hl7 after.hl7
  hl7lens export --format xml -o exports/ adt.hl7
  hl7lens defs PID 5

For command-specific help, run:
  hl7lens <command> --help`)
}
