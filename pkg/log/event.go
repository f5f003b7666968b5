package log

import (
	"strings"
	"time"
)

// Event is one captured analysis event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ID uniquely identifies the event (UUID).
	ID string `cbor:"2,keyasint"`

	// Source is the front end that produced the event.
	Source Source `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// RequestID correlates the event with an HTTP request (web only).
	RequestID string `cbor:"5,keyasint,omitempty"`

	// Input names what was analysed: a file path, "stdin" or "request".
	Input string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Parse *ParseEvent     `cbor:"10,keyasint,omitempty"`
	Diff  *DiffEvent      `cbor:"11,keyasint,omitempty"`
	Error *ErrorEventData `cbor:"12,keyasint,omitempty"`
}

// Source indicates which front end produced an event.
type Source uint8

const (
	// SourceCLI is a one-shot command line invocation.
	SourceCLI Source = 0
	// SourceWeb is the HTTP adapter.
	SourceWeb Source = 1
	// SourceShell is the interactive shell.
	SourceShell Source = 2
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceCLI:
		return "CLI"
	case SourceWeb:
		return "WEB"
	case SourceShell:
		return "SHELL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryParse indicates a parsed (and validated) message.
	CategoryParse Category = 0
	// CategoryDiff indicates a comparison of two messages.
	CategoryDiff Category = 1
	// CategoryError indicates a failure outside the parser, such as a read
	// or decode error.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryParse:
		return "PARSE"
	case CategoryDiff:
		return "DIFF"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory converts a category name (case-insensitive) to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryParse, CategoryDiff, CategoryError} {
		if strings.EqualFold(s, c.String()) {
			return c, true
		}
	}
	return 0, false
}

// ParseEvent summarises one parse call.
type ParseEvent struct {
	// OK is false when the parser produced no message.
	OK bool `cbor:"1,keyasint"`

	Version     string `cbor:"2,keyasint,omitempty"`
	MessageType string `cbor:"3,keyasint,omitempty"`
	ControlID   string `cbor:"4,keyasint,omitempty"`

	// Segments is the number of parsed segments.
	Segments int `cbor:"5,keyasint"`

	// Diagnostic counts by severity.
	Critical int `cbor:"6,keyasint"`
	Errors   int `cbor:"7,keyasint"`
	Warnings int `cbor:"8,keyasint"`

	// Fingerprint is the BLAKE2b digest of the message content.
	Fingerprint string `cbor:"9,keyasint,omitempty"`

	// Size is the input size in bytes.
	Size int `cbor:"10,keyasint"`

	// Duration of the parse call. Stored as nanoseconds.
	Duration time.Duration `cbor:"11,keyasint"`

	// FirstProblem is the first critical or error diagnostic, if any.
	FirstProblem string `cbor:"12,keyasint,omitempty"`
}

// DiffEvent summarises one comparison.
type DiffEvent struct {
	ControlIDA   string `cbor:"1,keyasint,omitempty"`
	ControlIDB   string `cbor:"2,keyasint,omitempty"`
	FingerprintA string `cbor:"3,keyasint,omitempty"`
	FingerprintB string `cbor:"4,keyasint,omitempty"`

	// Segment diff counts by type.
	Added    int `cbor:"5,keyasint"`
	Removed  int `cbor:"6,keyasint"`
	Modified int `cbor:"7,keyasint"`
	Common   int `cbor:"8,keyasint"`

	// ChangedFields counts non-common field diffs.
	ChangedFields int `cbor:"9,keyasint"`

	// Duration of the comparison. Stored as nanoseconds.
	Duration time.Duration `cbor:"10,keyasint"`
}

// ErrorEventData captures failures around the analysis.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is an HTTP status or process exit code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
