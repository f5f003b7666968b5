package hl7

import (
	"encoding/json"
	"fmt"
)

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityCritical means no message could be produced.
	SeverityCritical Severity = "critical"
	// SeverityError is a structural or definition violation.
	SeverityError Severity = "error"
	// SeverityWarning is an anomaly that was not validated further.
	SeverityWarning Severity = "warning"
)

// Diagnostic messages produced by the parser.
const (
	MsgEmptyMessage   = "Empty message"
	MsgMissingHeader  = "Message must start with MSH segment"
	MsgHeaderTooShort = "Invalid MSH segment - too short for encoding characters"
	MsgFieldRequired  = "Field is required."
	msgUnknownSegment = "Segment type '%s' is not defined for HL7 version %s."
	msgFieldTooLong   = "Field value exceeds maximum length of %d."
)

// UnknownSegmentMessage returns the warning text for an undefined segment.
func UnknownSegmentMessage(name, version string) string {
	return fmt.Sprintf(msgUnknownSegment, name, version)
}

// FieldTooLongMessage returns the error text for a length violation.
func FieldTooLongMessage(maxLength int) string {
	return fmt.Sprintf(msgFieldTooLong, maxLength)
}

// Diagnostic is a problem found while parsing or validating a message.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	// Line is the 1-based source line, or 0 when the diagnostic is not tied
	// to a line.
	Line int `json:"line"`

	SegmentName string `json:"segmentName,omitempty"`
	FieldName   string `json:"fieldName,omitempty"`

	// FieldIndex is the definition index of the field, if any.
	FieldIndex *int `json:"fieldIndex,omitempty"`
}

// String formats the diagnostic for terminal output.
func (d Diagnostic) String() string {
	loc := ""
	switch {
	case d.FieldIndex != nil:
		loc = fmt.Sprintf("%s-%d", d.SegmentName, *d.FieldIndex)
	case d.SegmentName != "":
		loc = d.SegmentName
	}
	s := string(d.Severity)
	if d.Line > 0 {
		s += fmt.Sprintf(" line %d", d.Line)
	}
	if loc != "" {
		s += " " + loc
	}
	if d.FieldName != "" {
		s += " (" + d.FieldName + ")"
	}
	return s + ": " + d.Message
}

// MarshalJSON emits the severity under both "severity" and "type" so that
// consumers of either name can read it.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	type plain Diagnostic
	return json.Marshal(struct {
		plain
		Type Severity `json:"type"`
	}{plain(d), d.Severity})
}

func intPtr(i int) *int {
	return &i
}

// Result is the outcome of one parse call.
type Result struct {
	// Message is nil when a critical diagnostic is present.
	Message     *Message     `json:"message"`
	Diagnostics []Diagnostic `json:"errors"`
}

// Count returns the number of diagnostics with the given severity.
func (r Result) Count(sev Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasCritical reports whether the parse was aborted.
func (r Result) HasCritical() bool {
	return r.Count(SeverityCritical) > 0
}

// HasErrors reports whether any critical or error diagnostic is present.
func (r Result) HasErrors() bool {
	return r.HasCritical() || r.Count(SeverityError) > 0
}

// Filter returns the diagnostics with the given severity.
func (r Result) Filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
