package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hl7lens/hl7lens-go/pkg/export"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/log"
)

// ExportOptions configures the export command.
type ExportOptions struct {
	CommonOptions
	Format string
	NoRaw  bool
	Output string
	File   string
}

// RunExport renders a parsed message in one of the export formats.
func RunExport(args []string, stdout, stderr io.Writer) int {
	opts, err := parseExportArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printExportUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: no file specified")
		printExportUsage(stderr)
		return exitCommandError
	}

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	env, err := NewEnv(opts.CommonOptions, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer env.Close()

	res, data, err := env.ParseInput(log.SourceCLI, opts.File)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if res.Message == nil {
		fmt.Fprint(stderr, env.Formatter().FormatDiagnostics(res.Diagnostics))
		return exitValidation
	}

	var w io.Writer = stdout
	if opts.Output != "" {
		path := opts.Output
		if info, err := os.Stat(path); err == nil && info.IsDir() || strings.HasSuffix(path, string(os.PathSeparator)) {
			path = filepath.Join(path, export.Filename(format, time.Now()))
		}
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		defer f.Close()
		w = f
		fmt.Fprintf(stderr, "Writing %s\n", path)
	}

	err = export.Write(w, format, res.Message, export.Options{
		IncludeRaw: !opts.NoRaw,
		Raw:        strings.TrimRight(hl7.Unframe(data), "\n"),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	return exitSuccess
}

func parseExportArgs(args []string) (ExportOptions, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	opts := ExportOptions{}

	AddCommonFlags(fs, &opts.CommonOptions)
	fs.StringVar(&opts.Format, "format", string(export.FormatJSON), "Output format")
	fs.BoolVar(&opts.NoRaw, "no-raw", false, "Leave the raw message out of the export")
	fs.StringVar(&opts.Output, "o", "", "Output file or directory (default: stdout)")

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

func printExportUsage(w io.Writer) {
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	fmt.Fprintf(w, `
Usage: hl7lens export [options] <file|->

Options:
  --format F   Output format: %s
  --no-raw     Leave the raw message out of the export
  -o PATH      Output file, or directory for a generated file name

Examples:
  hl7lens export --format xml adt.hl7
  hl7lens export --format csv -o exports/ adt.hl7
`, strings.Join(names, ", "))
}
