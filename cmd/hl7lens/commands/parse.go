package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/hl7lens/hl7lens-go/pkg/log"
)

// ParseOptions configures the parse command.
type ParseOptions struct {
	CommonOptions
	JSON   bool
	Strict bool
	Empty  bool
	Get    string
	File   string
}

// RunParse parses one message and prints its annotated tree and diagnostics.
func RunParse(args []string, stdout, stderr io.Writer) int {
	opts, err := parseParseArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printParseUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no file specified")
		printParseUsage(stderr)
		return exitCommandError
	}

	env, err := NewEnv(opts.CommonOptions, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer env.Close()

	res, _, err := env.ParseInput(log.SourceCLI, opts.File)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	switch {
	case opts.Get != "":
		if res.Message == nil {
			fmt.Fprint(stderr, env.Formatter().FormatDiagnostics(res.Diagnostics))
			return exitValidation
		}
		v, ok := res.Message.Get(opts.Get)
		if !ok {
			fmt.Fprintf(stderr, "Error: %s not present\n", opts.Get)
			return exitValidation
		}
		fmt.Fprintln(stdout, v)
		return exitSuccess

	case opts.JSON:
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintln(stdout, string(out))

	default:
		f := env.Formatter()
		f.ShowEmpty = opts.Empty
		if res.Message != nil {
			fmt.Fprint(stdout, env.Inspector.FormatMessageTree(env.Inspector.InspectMessage(res.Message), f))
			fmt.Fprintln(stdout, "---")
		}
		fmt.Fprint(stdout, f.FormatDiagnostics(res.Diagnostics))
	}

	if failed(res, opts.Strict) {
		return exitValidation
	}
	return exitSuccess
}

func parseParseArgs(args []string) (ParseOptions, error) {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	opts := ParseOptions{}

	AddCommonFlags(fs, &opts.CommonOptions)
	fs.BoolVar(&opts.JSON, "json", false, "Output the parse result as JSON")
	fs.BoolVar(&opts.Strict, "strict", false, "Fail on warnings too")
	fs.BoolVar(&opts.Empty, "empty", false, "Show empty fields")
	fs.StringVar(&opts.Get, "get", "", "Print one value, e.g. PID-5.1")

	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		opts.File = fs.Arg(0)
	}
	return opts, nil
}

func printParseUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: hl7lens parse [options] <file|->

Options:
  --json         Output the parse result as JSON
  --strict       Fail on warnings too
  --empty        Show empty fields
  --get PATH     Print one value, e.g. PID-5.1 or NK1(2)-2
  --defs LIST    Extra definition files or directories
  --event-log F  Append capture events to F
  --color MODE   auto, always or never

Examples:
  hl7lens parse adt.hl7
  cat adt.hl7 | hl7lens parse --json -
  hl7lens parse --get PID-5.1 adt.hl7`)
}
