package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/log"
)

// DiffOptions configures the diff command.
type DiffOptions struct {
	CommonOptions
	JSON  bool
	All   bool
	FileA string
	FileB string
}

// DiffOutput is the JSON form of a comparison.
type DiffOutput struct {
	Diff    diff.Result      `json:"diff"`
	Summary diff.Summary     `json:"summary"`
	ErrorsA []hl7.Diagnostic `json:"errorsA"`
	ErrorsB []hl7.Diagnostic `json:"errorsB"`
}

// RunDiff compares two messages. It exits with exitValidation when they
// differ.
func RunDiff(args []string, stdout, stderr io.Writer) int {
	opts, err := parseDiffArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printDiffUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if opts.FileA == "" || opts.FileB == "" {
		fmt.Fprintln(stderr, "Error: two files required")
		printDiffUsage(stderr)
		return exitCommandError
	}
	if opts.FileA == "-" && opts.FileB == "-" {
		fmt.Fprintln(stderr, "Error: only one side can be read from stdin")
		return exitCommandError
	}

	env, err := NewEnv(opts.CommonOptions, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer env.Close()

	resA, _, err := env.ParseInput(log.SourceCLI, opts.FileA)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	resB, _, err := env.ParseInput(log.SourceCLI, opts.FileB)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	start := time.Now()
	res := diff.Compare(resA.Message, resB.Message)
	env.Capture.Log(log.NewDiffEvent(log.SourceCLI, resA.Message, resB.Message, res, time.Since(start)))

	if opts.JSON {
		out, err := json.MarshalIndent(DiffOutput{
			Diff:    res,
			Summary: res.Summary(),
			ErrorsA: nonNil(resA.Diagnostics),
			ErrorsB: nonNil(resB.Diagnostics),
		}, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintln(stdout, string(out))
	} else {
		f := env.Formatter()
		for _, side := range []struct {
			name string
			res  hl7.Result
		}{{opts.FileA, resA}, {opts.FileB, resB}} {
			if side.res.HasCritical() {
				fmt.Fprintf(stderr, "%s:\n%s", side.name, f.FormatDiagnostics(side.res.Filter(hl7.SeverityCritical)))
			}
		}
		fmt.Fprint(stdout, env.Inspector.FormatDiff(res, versionOf(resA), versionOf(resB), f, opts.All))
	}

	if !res.Identical() {
		return exitValidation
	}
	return exitSuccess
}

func versionOf(res hl7.Result) string {
	if res.Message == nil {
		return hl7.DefaultVersion
	}
	return res.Message.Version
}

func nonNil(d []hl7.Diagnostic) []hl7.Diagnostic {
	if d == nil {
		return []hl7.Diagnostic{}
	}
	return d
}

func parseDiffArgs(args []string) (DiffOptions, error) {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	opts := DiffOptions{}

	AddCommonFlags(fs, &opts.CommonOptions)
	fs.BoolVar(&opts.JSON, "json", false, "Output the diff as JSON")
	fs.BoolVar(&opts.All, "all", false, "Show common segments and fields too")

	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		opts.FileA = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		opts.FileB = fs.Arg(1)
	}
	return opts, nil
}

func printDiffUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: hl7lens diff [options] <a> <b>

Options:
  --json   Output the diff as JSON
  --all    Show common segments and fields too

Exit status is 2 when the messages differ.

Examples:
  hl7lens diff before.hl7 after.hl7
  hl7lens diff --json --all a.hl7 b.hl7`)
}
