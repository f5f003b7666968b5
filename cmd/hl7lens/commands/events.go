package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/hl7lens/hl7lens-go/pkg/log"
)

// EventsOptions configures the events command.
type EventsOptions struct {
	Category  string
	Source    string
	ControlID string
	RequestID string
	Problems  bool
	Since     time.Duration
	Stats     bool
	JSONL     bool
	Output    string
	File      string
}

// RunEvents views, summarises or filters a capture log.
func RunEvents(args []string, stdout, stderr io.Writer) int {
	opts, err := parseEventsArgs(args)
	if err != nil {
		if err == flag.ErrHelp {
			printEventsUsage(stdout)
			return exitSuccess
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: log file path required")
		printEventsUsage(stderr)
		return exitCommandError
	}

	filter, err := buildFilter(opts, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	reader, err := log.NewFilteredReader(opts.File, filter)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to open log file: %v\n", err)
		return exitCommandError
	}
	defer reader.Close()

	events, err := reader.ReadAll()
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to read event: %v\n", err)
		return exitCommandError
	}

	switch {
	case opts.Output != "":
		out, err := log.NewFileLogger(opts.Output)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		for _, e := range events {
			out.Log(e)
		}
		if err := out.Close(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintf(stderr, "Wrote %d events to %s\n", out.Written(), opts.Output)

	case opts.Stats:
		printStats(stdout, computeStats(events))

	case opts.JSONL:
		enc := json.NewEncoder(stdout)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return exitCommandError
			}
		}

	default:
		for _, e := range events {
			formatEvent(stdout, e)
		}
	}
	return exitSuccess
}

func buildFilter(opts EventsOptions, now time.Time) (log.Filter, error) {
	var f log.Filter
	if opts.Category != "" {
		c, ok := log.ParseCategory(opts.Category)
		if !ok {
			return f, fmt.Errorf("invalid category %q (want parse, diff or error)", opts.Category)
		}
		f.Category = &c
	}
	if opts.Source != "" {
		s, err := parseSource(opts.Source)
		if err != nil {
			return f, err
		}
		f.Source = &s
	}
	f.ControlID = opts.ControlID
	f.RequestID = opts.RequestID
	f.ProblemsOnly = opts.Problems
	if opts.Since > 0 {
		start := now.Add(-opts.Since)
		f.TimeStart = &start
	}
	return f, nil
}

func parseSource(s string) (log.Source, error) {
	for _, src := range []log.Source{log.SourceCLI, log.SourceWeb, log.SourceShell} {
		if strings.EqualFold(s, src.String()) {
			return src, nil
		}
	}
	return 0, fmt.Errorf("invalid source %q (want cli, web or shell)", s)
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	header := fmt.Sprintf("%s %-5s %-5s", ts, event.Source, event.Category)
	if event.RequestID != "" {
		header += " [req:" + shortID(event.RequestID) + "]"
	}
	if event.Input != "" {
		header += " " + event.Input
	}
	fmt.Fprintln(w, header)

	switch {
	case event.Parse != nil:
		p := event.Parse
		if p.OK {
			fmt.Fprintf(w, "  %s %s v%s, %d segments, %d bytes in %s\n",
				p.MessageType, p.ControlID, p.Version, p.Segments, p.Size, formatDuration(p.Duration))
		} else {
			fmt.Fprintf(w, "  no message, %d bytes\n", p.Size)
		}
		fmt.Fprintf(w, "  critical=%d errors=%d warnings=%d\n", p.Critical, p.Errors, p.Warnings)
		if p.FirstProblem != "" {
			fmt.Fprintf(w, "  first: %s\n", p.FirstProblem)
		}
	case event.Diff != nil:
		d := event.Diff
		fmt.Fprintf(w, "  %s vs %s: +%d -%d ~%d =%d (%d field changes) in %s\n",
			orDash(d.ControlIDA), orDash(d.ControlIDB), d.Added, d.Removed, d.Modified, d.Common,
			d.ChangedFields, formatDuration(d.Duration))
	case event.Error != nil:
		fmt.Fprintf(w, "  error: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  context: %s\n", event.Error.Context)
		}
		if event.Error.Code != nil {
			fmt.Fprintf(w, "  code: %d\n", *event.Error.Code)
		}
	}
	fmt.Fprintln(w)
}

func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration formats a duration with appropriate precision.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	default:
		return d.Round(time.Millisecond).String()
	}
}

// Stats holds aggregate statistics about a capture log.
type Stats struct {
	TotalEvents      int
	EventsBySource   map[log.Source]int
	EventsByCategory map[log.Category]int
	MessageTypes     map[string]int
	FailedParses     int
	Diagnostics      struct{ Critical, Errors, Warnings int }
	DiffsWithChanges int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

func computeStats(events []log.Event) *Stats {
	stats := &Stats{
		EventsBySource:   make(map[log.Source]int),
		EventsByCategory: make(map[log.Category]int),
		MessageTypes:     make(map[string]int),
	}
	for _, e := range events {
		stats.TotalEvents++
		stats.EventsBySource[e.Source]++
		stats.EventsByCategory[e.Category]++

		if stats.TimeRange.Start.IsZero() || e.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = e.Timestamp
		}
		if e.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = e.Timestamp
		}

		if p := e.Parse; p != nil {
			if p.OK {
				stats.MessageTypes[p.MessageType]++
			} else {
				stats.FailedParses++
			}
			stats.Diagnostics.Critical += p.Critical
			stats.Diagnostics.Errors += p.Errors
			stats.Diagnostics.Warnings += p.Warnings
		}
		if d := e.Diff; d != nil && d.Added+d.Removed+d.Modified > 0 {
			stats.DiffsWithChanges++
		}
	}
	return stats
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== hl7lens Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Source:")
	for _, s := range []log.Source{log.SourceCLI, log.SourceWeb, log.SourceShell} {
		if count := stats.EventsBySource[s]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", s.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, c := range []log.Category{log.CategoryParse, log.CategoryDiff, log.CategoryError} {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}

	if len(stats.MessageTypes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Message Types:")
		for _, t := range sortedKeys(stats.MessageTypes) {
			fmt.Fprintf(w, "  %-12s %d\n", t+":", stats.MessageTypes[t])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Diagnostics: %d critical, %d errors, %d warnings\n",
		stats.Diagnostics.Critical, stats.Diagnostics.Errors, stats.Diagnostics.Warnings)
	if stats.FailedParses > 0 {
		fmt.Fprintf(w, "Failed Parses: %d\n", stats.FailedParses)
	}
	if stats.DiffsWithChanges > 0 {
		fmt.Fprintf(w, "Diffs With Changes: %d\n", stats.DiffsWithChanges)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func parseEventsArgs(args []string) (EventsOptions, error) {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	opts := EventsOptions{}

	fs.StringVar(&opts.Category, "category", "", "Filter by category (parse, diff, error)")
	fs.StringVar(&opts.Source, "source", "", "Filter by source (cli, web, shell)")
	fs.StringVar(&opts.ControlID, "control-id", "", "Filter by message control ID")
	fs.StringVar(&opts.RequestID, "request-id", "", "Filter by HTTP request ID")
	fs.BoolVar(&opts.Problems, "problems", false, "Only events with errors or differences")
	fs.DurationVar(&opts.Since, "since", 0, "Only events newer than this duration")
	fs.BoolVar(&opts.Stats, "stats", false, "Show statistics instead of events")
	fs.BoolVar(&opts.JSONL, "jsonl", false, "Output events as JSON lines")
	fs.StringVar(&opts.Output, "o", "", "Write matching events to a new .hlog file")

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

func printEventsUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: hl7lens events [options] <file.hlog>

Options:
  --category C     Filter by category (parse, diff, error)
  --source S       Filter by source (cli, web, shell)
  --control-id ID  Filter by message control ID
  --request-id ID  Filter by HTTP request ID
  --problems       Only events with errors or differences
  --since D        Only events newer than D, e.g. 1h
  --stats          Show statistics instead of events
  --jsonl          Output events as JSON lines
  -o FILE          Write matching events to a new .hlog file

Examples:
  hl7lens events capture.hlog
  hl7lens events --problems --category parse capture.hlog
  hl7lens events --stats capture.hlog`)
}
