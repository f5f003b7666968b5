// Command hl7lens-web exposes the HL7 parser and diff engine over HTTP.
//
// It offers:
//   - POST /api/parse  {message}            -> {parsedMessage, errors}
//   - POST /api/diff   {messageA, messageB} -> {diff, summary, errorsA, errorsB}
//   - POST /api/export {message, format}    -> rendered file
//   - GET  /api/v1/definitions[/{version}/{segment}[/{field}]]
//   - GET  /api/v1/health
//
// Usage:
//
//	hl7lens-web [flags]
//
// Flags:
//
//	-config string     YAML config file (default $HL7LENS_CONFIG)
//	-listen string     Listen address (default ":8080")
//	-defs string       Extra definition files or directories (comma-separated)
//	-event-log string  Append capture events to this .hlog file
//	-advertise         Advertise the server over mDNS
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start on the default port
//	hl7lens-web
//
//	# Advertise on the LAN and keep a capture log
//	hl7lens-web -listen :9000 -advertise -event-log web.hlog
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hl7lens/hl7lens-go/internal/config"
	"github.com/hl7lens/hl7lens-go/pkg/definitions"
	"github.com/hl7lens/hl7lens-go/pkg/discovery"
	"github.com/hl7lens/hl7lens-go/pkg/log"
	"github.com/hl7lens/hl7lens-go/pkg/version"
)

var (
	configPath  = flag.String("config", "", "YAML config file (default $"+config.EnvPath+")")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	defsList    = flag.String("defs", "", "Extra definition files or directories (comma-separated)")
	eventLog    = flag.String("event-log", "", "Append capture events to this .hlog file")
	advertise   = flag.Bool("advertise", false, "Advertise the server over mDNS")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("hl7lens-web %s (API %s)\n", version.Release, version.Current)
		return 0
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", *logLevel)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *defsList != "" {
		for _, d := range strings.Split(*defsList, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Definitions = append(cfg.Definitions, d)
			}
		}
	}
	if *eventLog != "" {
		cfg.EventLog = *eventLog
	}
	if *advertise {
		cfg.Advertise = true
	}

	reg := definitions.Default()
	if len(cfg.Definitions) > 0 {
		reg, err = definitions.NewEmbeddedWith(cfg.Definitions...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	// Capture events go to the debug log and, if configured, a file.
	var fileLogger *log.FileLogger
	if cfg.EventLog != "" {
		fileLogger, err = log.NewFileLogger(cfg.EventLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer fileLogger.Close()
	}
	var capture log.Logger = log.NewSlogAdapter(logger)
	if fileLogger != nil {
		capture = log.NewMultiLogger(capture, fileLogger)
	}

	srvCfg := ServerConfig{
		Listen:       cfg.Listen,
		Version:      version.Release,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Registry:     reg,
		Capture:      capture,
		Logger:       logger,
		InstanceName: cfg.InstanceName,
	}
	if cfg.Advertise {
		srvCfg.Advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	}

	srv, err := NewServer(srvCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create server: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting hl7lens-web",
		"listen", cfg.Listen,
		"versions", reg.Versions(),
		"event_log", cfg.EventLog,
		"advertise", cfg.Advertise)

	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		return 1
	}
	logger.Info("stopped")
	return 0
}
