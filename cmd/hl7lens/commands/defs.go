package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/inspect"
)

// DefsOptions configures the defs command.
type DefsOptions struct {
	CommonOptions
	Version string
	JSON    bool
	Segment string
	Field   int
}

// RunDefs browses the definition registry: versions, a segment's fields,
// or one field.
func RunDefs(args []string, stdout, stderr io.Writer) int {
	opts, err := parseDefsArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printDefsUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	env, err := NewEnv(opts.CommonOptions, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer env.Close()

	reg := env.Registry
	p := env.Palette

	switch {
	case opts.Segment == "":
		for _, v := range reg.Versions() {
			fmt.Fprintf(stdout, "%s  %s\n", p.Header.Sprint(v), reg.Description(v))
			fmt.Fprintf(stdout, "  %s\n", strings.Join(reg.Segments(v), " "))
		}

	case opts.Field < 0:
		sd := reg.SegmentDefinition(opts.Segment, opts.Version)
		if sd == nil {
			fmt.Fprintf(stderr, "Error: segment %s is not defined\n", opts.Segment)
			return exitCommandError
		}
		if opts.JSON {
			return writeJSON(stdout, stderr, sd)
		}
		rows, _ := env.Inspector.DefinitionRows(opts.Segment, opts.Version)
		fmt.Fprintf(stdout, "%s %s (version %s)\n", p.Segment.Sprint(opts.Segment), sd.Name,
			reg.ResolvedVersion(opts.Segment, opts.Version))
		if sd.Description != "" {
			fmt.Fprintf(stdout, "  %s\n", sd.Description)
		}
		fmt.Fprint(stdout, env.Formatter().FormatDefinitionTable(rows))

	default:
		fd, err := env.Inspector.FieldDefinition(opts.Segment, opts.Field, opts.Version)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		if opts.JSON {
			return writeJSON(stdout, stderr, fd)
		}
		fmt.Fprintf(stdout, "%s %s\n", p.Name.Sprint(inspect.FieldLabel(opts.Segment, opts.Field)), fd.Name)
		printAttr(stdout, "Description", fd.Description)
		printAttr(stdout, "Data type", fd.DataType)
		if fd.HasMaxLength() {
			printAttr(stdout, "Max length", strconv.Itoa(fd.MaxLength))
		} else {
			printAttr(stdout, "Max length", "unbounded")
		}
		printAttr(stdout, "Required", strconv.FormatBool(fd.Required))
		printAttr(stdout, "Repeatable", strconv.FormatBool(fd.Repeatable))
		printAttr(stdout, "Table", fd.Table)
		printAttr(stdout, "Usage", fd.Usage)
		printAttr(stdout, "Example", fd.Example)
	}
	return exitSuccess
}

func printAttr(w io.Writer, name, value string) {
	if value != "" {
		fmt.Fprintf(w, "  %-12s %s\n", name+":", value)
	}
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	fmt.Fprintln(stdout, string(out))
	return exitSuccess
}

func parseDefsArgs(args []string) (DefsOptions, error) {
	fs := flag.NewFlagSet("defs", flag.ContinueOnError)
	opts := DefsOptions{Field: -1}

	AddCommonFlags(fs, &opts.CommonOptions)
	fs.StringVar(&opts.Version, "version", hl7.DefaultVersion, "HL7 version to look up")
	fs.BoolVar(&opts.JSON, "json", false, "Output definitions as JSON")

	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		opts.Segment = strings.ToUpper(fs.Arg(0))
	}
	if fs.NArg() > 1 {
		n, err := strconv.Atoi(fs.Arg(1))
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid field index %q", fs.Arg(1))
		}
		opts.Field = n
	}
	return opts, nil
}

func printDefsUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: hl7lens defs [options] [SEGMENT [FIELD]]

Options:
  --version V   HL7 version to look up (default 2.5)
  --json        Output definitions as JSON

Examples:
  hl7lens defs
  hl7lens defs PID
  hl7lens defs --version 2.3 PID 3`)
}
