// Package log captures analysis events (parses, diffs, failures) for later
// inspection.
//
// This is separate from operational logging (slog). Operational logs say
// what a process did; capture logs record a machine-readable trace of every
// message that was analysed: its version, type, control ID, fingerprint and
// diagnostic counts.
//
// # Basic Usage
//
//	// Development: capture events to the console via slog
//	capture := log.NewSlogAdapter(slog.Default())
//
//	// Production: append events to a binary file
//	capture, _ := log.NewFileLogger("/var/log/hl7lens/web.hlog")
//
//	// Both
//	capture := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
//	capture.Log(log.NewParseEvent(log.SourceWeb, "request", result, elapsed))
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with integer keys and
// the .hlog extension. `hl7lens events` lists and filters them.
package log
