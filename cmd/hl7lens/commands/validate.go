package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/log"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	CommonOptions
	JSON    bool
	Strict  bool
	Verbose bool
	Jobs    int
	Files   []string
}

// ValidationOutput is the validation result for one file.
type ValidationOutput struct {
	Valid       bool             `json:"valid"`
	MessageType string           `json:"messageType,omitempty"`
	ControlID   string           `json:"controlId,omitempty"`
	Critical    int              `json:"critical"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	ReadError   string           `json:"readError,omitempty"`
	Diagnostics []hl7.Diagnostic `json:"diagnostics,omitempty"`
}

// RunValidate validates many files concurrently.
func RunValidate(args []string, stdout, stderr io.Writer) int {
	opts, err := parseValidateArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printValidateUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if len(opts.Files) == 0 {
		fmt.Fprintln(stderr, "Error: no files specified")
		printValidateUsage(stderr)
		return exitCommandError
	}

	env, err := NewEnv(opts.CommonOptions, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	defer env.Close()

	results := validateFiles(env, opts)

	hasErrors := false
	for _, r := range results {
		if !r.Valid {
			hasErrors = true
		}
	}

	if opts.JSON {
		byFile := make(map[string]*ValidationOutput, len(results))
		for i, f := range opts.Files {
			byFile[f] = results[i]
		}
		output, _ := json.MarshalIndent(byFile, "", "  ")
		fmt.Fprintln(stdout, string(output))
	} else {
		for i, f := range opts.Files {
			printValidationResult(stdout, env, f, results[i], opts.Verbose)
		}
	}

	if hasErrors {
		return exitValidation
	}
	return exitSuccess
}

// validateFiles returns one result per file in input order.
func validateFiles(env *Env, opts ValidateOptions) []*ValidationOutput {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*ValidationOutput, len(opts.Files))

	var g errgroup.Group
	g.SetLimit(max(1, min(jobs, len(opts.Files))))

	// Read failures are recorded per file, so no job returns an error.
	for i, path := range opts.Files {
		g.Go(func() error {
			results[i] = validateFile(env, path, opts.Strict)
			return nil
		})
	}
	g.Wait()
	return results
}

func validateFile(env *Env, path string, strict bool) *ValidationOutput {
	res, _, err := env.ParseInput(log.SourceCLI, path)
	if err != nil {
		return &ValidationOutput{ReadError: err.Error()}
	}

	out := &ValidationOutput{
		Valid:       !failed(res, strict),
		Critical:    res.Count(hl7.SeverityCritical),
		Errors:      res.Count(hl7.SeverityError),
		Warnings:    res.Count(hl7.SeverityWarning),
		Diagnostics: res.Diagnostics,
	}
	if res.Message != nil {
		out.MessageType = res.Message.MessageType
		out.ControlID = res.Message.ControlID
	}
	return out
}

func printValidationResult(w io.Writer, env *Env, file string, result *ValidationOutput, verbose bool) {
	p := env.Palette
	switch {
	case result.ReadError != "":
		fmt.Fprintf(w, "%s: %s\n", file, p.Critical.Sprint("FAILED"))
		fmt.Fprintf(w, "  %s\n", result.ReadError)
		return
	case result.Valid && len(result.Diagnostics) == 0:
		fmt.Fprintf(w, "%s: %s\n", file, p.OK.Sprint("OK"))
		return
	case result.Valid:
		fmt.Fprintf(w, "%s: %s (with %d warnings)\n", file, p.OK.Sprint("OK"), result.Warnings)
	default:
		fmt.Fprintf(w, "%s: %s (%d errors, %d warnings)\n", file, p.Error.Sprint("FAILED"),
			result.Critical+result.Errors, result.Warnings)
	}

	if verbose || !result.Valid {
		diags := result.Diagnostics
		if !verbose {
			diags = nil
			for _, d := range result.Diagnostics {
				if d.Severity != hl7.SeverityWarning {
					diags = append(diags, d)
				}
			}
		}
		fmt.Fprint(w, env.Formatter().FormatDiagnostics(diags))
	}
}

func parseValidateArgs(args []string) (ValidateOptions, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	opts := ValidateOptions{}

	AddCommonFlags(fs, &opts.CommonOptions)
	fs.BoolVar(&opts.Strict, "strict", false, "Fail on warnings too")
	fs.BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Show all warnings")
	fs.BoolVar(&opts.Verbose, "v", false, "Show all warnings (shorthand)")
	fs.IntVar(&opts.Jobs, "jobs", 0, "Files validated in parallel (default GOMAXPROCS)")

	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Files = fs.Args()
	return opts, nil
}

func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: hl7lens validate [options] <files...>

Options:
  --strict       Fail on warnings too
  --json         Output results as JSON
  --jobs N       Files validated in parallel
  -v, --verbose  Show all warnings

Examples:
  hl7lens validate inbound/*.hl7
  hl7lens validate --strict --json --jobs 4 *.hl7`)
}
