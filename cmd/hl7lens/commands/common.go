// Package commands implements the hl7lens CLI commands.
package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/hl7lens/hl7lens-go/internal/config"
	"github.com/hl7lens/hl7lens-go/pkg/definitions"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/inspect"
	"github.com/hl7lens/hl7lens-go/pkg/log"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitValidation   = 2
)

// Stdin is read when a command is given "-" as a file name.
var Stdin io.Reader = os.Stdin

// CommonOptions holds flags shared by every command.
type CommonOptions struct {
	Config   string
	Defs     string
	EventLog string
	Color    string
}

// AddCommonFlags registers the flags shared by every command on fs.
func AddCommonFlags(fs *flag.FlagSet, o *CommonOptions) {
	fs.StringVar(&o.Config, "config", "", "Config file (default $"+config.EnvPath+")")
	fs.StringVar(&o.Defs, "defs", "", "Extra definition files or directories (comma-separated)")
	fs.StringVar(&o.EventLog, "event-log", "", "Append capture events to this .hlog file")
	fs.StringVar(&o.Color, "color", "", "Color output: auto, always or never")
}

// Env is the resolved runtime shared by a command invocation.
type Env struct {
	Config    config.Config
	Registry  *definitions.Registry
	Parser    *hl7.Parser
	Inspector *inspect.Inspector
	Palette   *inspect.Palette
	Capture   log.Logger

	closers []io.Closer
}

// NewEnv resolves config, flags and the definition registry. Colors are
// enabled for out only when it is a terminal or the mode is "always".
func NewEnv(o CommonOptions, out io.Writer) (*Env, error) {
	cfg, err := config.Resolve(o.Config)
	if err != nil {
		return nil, err
	}
	if o.Defs != "" {
		cfg.Definitions = append(cfg.Definitions, splitList(o.Defs)...)
	}
	if o.EventLog != "" {
		cfg.EventLog = o.EventLog
	}
	if o.Color != "" {
		mode, err := config.ParseColorMode(o.Color)
		if err != nil {
			return nil, err
		}
		cfg.Color = mode
	}

	reg := definitions.Default()
	if len(cfg.Definitions) > 0 {
		reg, err = definitions.NewEmbeddedWith(cfg.Definitions...)
		if err != nil {
			return nil, err
		}
	}

	env := &Env{
		Config:    cfg,
		Registry:  reg,
		Parser:    hl7.NewParserWithDefinitions(reg),
		Inspector: inspect.NewInspector(reg),
		Palette:   inspect.NewPalette(colorEnabled(cfg.Color, out)),
		Capture:   log.NoopLogger{},
	}

	if cfg.EventLog != "" {
		fl, err := log.NewFileLogger(cfg.EventLog)
		if err != nil {
			return nil, err
		}
		env.Capture = fl
		env.closers = append(env.closers, fl)
	}
	return env, nil
}

// Close releases the capture log.
func (e *Env) Close() {
	for _, c := range e.closers {
		_ = c.Close()
	}
}

// Formatter returns a formatter using the environment's palette.
func (e *Env) Formatter() *inspect.Formatter {
	f := inspect.NewFormatter()
	f.Palette = e.Palette
	return f
}

// ParseInput reads and parses a file, or stdin for "-", and records a
// capture event. MLLP framing is removed before parsing.
func (e *Env) ParseInput(source log.Source, path string) (hl7.Result, []byte, error) {
	data, err := readInput(path)
	if err != nil {
		e.Capture.Log(log.NewErrorEvent(source, path, err, exitCommandError, "read input"))
		return hl7.Result{}, nil, err
	}
	start := time.Now()
	res := e.Parser.Parse(hl7.Unframe(data))
	e.Capture.Log(log.NewParseEvent(source, path, len(data), res, time.Since(start)))
	return res, data, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func colorEnabled(mode config.ColorMode, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// failed reports whether a result should fail the command.
func failed(res hl7.Result, strict bool) bool {
	return res.HasErrors() || strict && res.Count(hl7.SeverityWarning) > 0
}
