// Package interactive provides the hl7lens interactive shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/hl7lens/hl7lens-go/cmd/hl7lens/commands"
	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/export"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/inspect"
	"github.com/hl7lens/hl7lens-go/pkg/log"
)

const defaultPrompt = "hl7> "

// LineReader is the input side of the shell. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// slot holds one side of a comparison.
type slot struct {
	input  string
	raw    string
	result hl7.Result
}

// Shell handles interactive mode for hl7lens. It keeps two message slots,
// "a" and "b", that can be loaded, inspected and compared.
type Shell struct {
	env       *commands.Env
	rl        LineReader
	out       io.Writer
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	slots     map[string]*slot
}

// New creates a shell reading from the terminal.
func New(env *commands.Env) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultPrompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return NewWithReader(env, rl, rl.Stdout()), nil
}

// NewWithReader creates a shell on an arbitrary line source.
func NewWithReader(env *commands.Env, rl LineReader, out io.Writer) *Shell {
	return &Shell{
		env:       env,
		rl:        rl,
		out:       out,
		inspector: env.Inspector,
		formatter: env.Formatter(),
		slots:     make(map[string]*slot),
	}
}

// Run starts the interactive command loop. It returns when the user exits,
// input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
		if !s.Exec(line) {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// Exec runs a single command line. It returns false when the shell should
// exit.
func (s *Shell) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "load", "l":
		s.cmdLoad(args)

	case "paste", "p":
		s.cmdPaste(args)

	case "show", "s":
		s.cmdShow(args)

	case "errors", "e":
		s.cmdErrors(args)

	case "get", "g":
		s.cmdGet(args)

	case "diff", "d":
		s.cmdDiff(args)

	case "export", "x":
		s.cmdExport(args)

	case "defs":
		s.cmdDefs(args)

	case "status":
		s.cmdStatus()

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
hl7lens Shell Commands:
  Messages:
    load <a|b> <file>          - Parse a file into slot a or b
    paste <a|b>                - Paste a message, end with an empty line
    status                     - Show what is loaded

  Inspection:
    show <a|b>                 - Show the annotated segment tree
    errors <a|b>               - Show all diagnostics
    get <a|b> <path>           - Print one value, e.g. PID-5.1
    defs <SEG> [field]         - Look up definitions for the loaded version

  Comparison:
    diff [all]                 - Compare slot a with slot b
    export <a|b> <fmt> [file]  - Export a message (json, yaml, csv, xml, ...)

  General:
    help                       - Show this help
    quit                       - Exit the shell`)
}

// slotName validates a slot argument.
func (s *Shell) slotName(args []string, usage string) (string, bool) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: "+usage)
		return "", false
	}
	name := strings.ToLower(args[0])
	if name != "a" && name != "b" {
		fmt.Fprintf(s.out, "Invalid slot %q (use a or b)\n", args[0])
		return "", false
	}
	return name, true
}

// loaded returns the slot, printing a hint when it is empty.
func (s *Shell) loaded(name string) (*slot, bool) {
	sl := s.slots[name]
	if sl == nil {
		fmt.Fprintf(s.out, "Slot %s is empty (use load or paste)\n", name)
		return nil, false
	}
	return sl, true
}

func (s *Shell) cmdLoad(args []string) {
	name, ok := s.slotName(args, "load <a|b> <file>")
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: load <a|b> <file>")
		return
	}

	res, data, err := s.env.ParseInput(log.SourceShell, args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.store(name, args[1], hl7.Unframe(data), res)
}

func (s *Shell) cmdPaste(args []string) {
	name, ok := s.slotName(args, "paste <a|b>")
	if !ok {
		return
	}

	fmt.Fprintln(s.out, "Paste the message, then an empty line:")
	s.rl.SetPrompt("")
	defer s.rl.SetPrompt(defaultPrompt)

	var lines []string
	for {
		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				fmt.Fprintln(s.out, "Paste cancelled")
				return
			}
			break
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "Nothing pasted")
		return
	}

	raw := strings.Join(lines, "\n")
	start := time.Now()
	res := s.env.Parser.Parse(raw)
	s.env.Capture.Log(log.NewParseEvent(log.SourceShell, "paste", len(raw), res, time.Since(start)))
	s.store(name, "paste", raw, res)
}

func (s *Shell) store(name, input, raw string, res hl7.Result) {
	s.slots[name] = &slot{input: input, raw: raw, result: res}

	if res.Message == nil {
		fmt.Fprintf(s.out, "%s: no message\n", name)
		fmt.Fprint(s.out, s.formatter.FormatDiagnostics(res.Diagnostics))
		return
	}
	m := res.Message
	fmt.Fprintf(s.out, "%s: %s %s v%s, %d segments, %d errors, %d warnings\n",
		name, m.MessageType, m.ControlID, m.Version, len(m.Segments),
		res.Count(hl7.SeverityError), res.Count(hl7.SeverityWarning))
}

func (s *Shell) cmdStatus() {
	for _, name := range []string{"a", "b"} {
		sl := s.slots[name]
		if sl == nil {
			fmt.Fprintf(s.out, "  %s: (empty)\n", name)
			continue
		}
		if sl.result.Message == nil {
			fmt.Fprintf(s.out, "  %s: %s, no message\n", name, sl.input)
			continue
		}
		m := sl.result.Message
		fmt.Fprintf(s.out, "  %s: %s, %s %s v%s\n", name, sl.input, m.MessageType, m.ControlID, m.Version)
	}
}

func (s *Shell) cmdShow(args []string) {
	name, ok := s.slotName(args, "show <a|b>")
	if !ok {
		return
	}
	sl, ok := s.loaded(name)
	if !ok {
		return
	}
	if sl.result.Message == nil {
		fmt.Fprint(s.out, s.formatter.FormatDiagnostics(sl.result.Diagnostics))
		return
	}
	fmt.Fprint(s.out, s.inspector.FormatMessageTree(s.inspector.InspectMessage(sl.result.Message), s.formatter))
}

func (s *Shell) cmdErrors(args []string) {
	name, ok := s.slotName(args, "errors <a|b>")
	if !ok {
		return
	}
	sl, ok := s.loaded(name)
	if !ok {
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatDiagnostics(sl.result.Diagnostics))
}

func (s *Shell) cmdGet(args []string) {
	name, ok := s.slotName(args, "get <a|b> <path>")
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: get <a|b> <path>")
		fmt.Fprintln(s.out, "  Example: get a PID-5.1")
		return
	}
	sl, ok := s.loaded(name)
	if !ok || sl.result.Message == nil {
		return
	}

	p, err := hl7.ParsePath(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return
	}
	v, found := sl.result.Message.Lookup(p)
	if !found {
		fmt.Fprintf(s.out, "%s not present\n", p)
		return
	}
	label := inspect.FieldName(s.env.Registry, p.Segment, p.Field, sl.result.Message.Version)
	fmt.Fprintf(s.out, "%s (%s) = %s\n", p, label, s.formatter.FormatValue(v))
}

func (s *Shell) cmdDiff(args []string) {
	a, okA := s.loaded("a")
	b, okB := s.loaded("b")
	if !okA || !okB {
		return
	}
	all := len(args) > 0 && strings.EqualFold(args[0], "all")

	start := time.Now()
	res := diff.Compare(a.result.Message, b.result.Message)
	s.env.Capture.Log(log.NewDiffEvent(log.SourceShell, a.result.Message, b.result.Message, res, time.Since(start)))

	fmt.Fprint(s.out, s.inspector.FormatDiff(res, versionOf(a.result), versionOf(b.result), s.formatter, all))
}

func (s *Shell) cmdExport(args []string) {
	name, ok := s.slotName(args, "export <a|b> <format> [file]")
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: export <a|b> <format> [file]")
		return
	}
	sl, ok := s.loaded(name)
	if !ok || sl.result.Message == nil {
		return
	}
	format, err := export.ParseFormat(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	opts := export.Options{IncludeRaw: true, Raw: strings.TrimRight(sl.raw, "\n")}
	if len(args) < 3 {
		if format == export.FormatCBOR || format == export.FormatMsgpack {
			fmt.Fprintf(s.out, "%s is binary; give a file name\n", format)
			return
		}
		if err := export.Write(s.out, format, sl.result.Message, opts); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		return
	}

	f, err := os.Create(args[2])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	defer f.Close()
	if err := export.Write(f, format, sl.result.Message, opts); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Wrote %s\n", args[2])
}

func (s *Shell) cmdDefs(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: defs <SEG> [field]")
		return
	}
	seg := strings.ToUpper(args[0])
	version := hl7.DefaultVersion
	if sl := s.slots["a"]; sl != nil && sl.result.Message != nil {
		version = sl.result.Message.Version
	}

	if len(args) > 1 {
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid field index: %s\n", args[1])
			return
		}
		fd, err := s.inspector.FieldDefinition(seg, idx, version)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "%s %s (%s", inspect.FieldLabel(seg, idx), fd.Name, fd.DataType)
		if fd.HasMaxLength() {
			fmt.Fprintf(s.out, ", len %d", fd.MaxLength)
		}
		if fd.Required {
			fmt.Fprint(s.out, ", required")
		}
		fmt.Fprintln(s.out, ")")
		if fd.Description != "" {
			fmt.Fprintf(s.out, "  %s\n", fd.Description)
		}
		return
	}

	rows, err := s.inspector.DefinitionRows(seg, version)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatDefinitionTable(rows))
}

func versionOf(res hl7.Result) string {
	if res.Message == nil {
		return hl7.DefaultVersion
	}
	return res.Message.Version
}
