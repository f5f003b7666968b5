package log

import (
	"time"

	"github.com/google/uuid"

	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

func newEvent(source Source, category Category, input string) Event {
	return Event{
		Timestamp: time.Now(),
		ID:        uuid.New().String(),
		Source:    source,
		Category:  category,
		Input:     input,
	}
}

// NewParseEvent builds a parse event from a parser result. size is the
// input length in bytes.
func NewParseEvent(source Source, input string, size int, result hl7.Result, elapsed time.Duration) Event {
	ev := newEvent(source, CategoryParse, input)
	pe := &ParseEvent{
		OK:       result.Message != nil,
		Critical: result.Count(hl7.SeverityCritical),
		Errors:   result.Count(hl7.SeverityError),
		Warnings: result.Count(hl7.SeverityWarning),
		Size:     size,
		Duration: elapsed,
	}
	if msg := result.Message; msg != nil {
		pe.Version = msg.Version
		pe.MessageType = msg.MessageType
		pe.ControlID = msg.ControlID
		pe.Segments = len(msg.Segments)
		pe.Fingerprint = hl7.Fingerprint(msg)
	}
	for _, d := range result.Diagnostics {
		if d.Severity != hl7.SeverityWarning {
			pe.FirstProblem = d.String()
			break
		}
	}
	ev.Parse = pe
	return ev
}

// NewDiffEvent builds a diff event. Either message may be nil.
func NewDiffEvent(source Source, a, b *hl7.Message, result diff.Result, elapsed time.Duration) Event {
	ev := newEvent(source, CategoryDiff, "")
	s := result.Summary()
	de := &DiffEvent{
		Added:         s.Added,
		Removed:       s.Removed,
		Modified:      s.Modified,
		Common:        s.Common,
		ChangedFields: s.ChangedFields,
		Duration:      elapsed,
	}
	if a != nil {
		de.ControlIDA = a.ControlID
		de.FingerprintA = hl7.Fingerprint(a)
	}
	if b != nil {
		de.ControlIDB = b.ControlID
		de.FingerprintB = hl7.Fingerprint(b)
	}
	ev.Diff = de
	return ev
}

// NewErrorEvent builds an error event. code may be 0 when not applicable.
func NewErrorEvent(source Source, input string, err error, code int, context string) Event {
	ev := newEvent(source, CategoryError, input)
	data := &ErrorEventData{Message: err.Error(), Context: context}
	if code != 0 {
		data.Code = &code
	}
	ev.Error = data
	return ev
}

// WithRequestID returns a copy of ev tagged with an HTTP request ID.
func (e Event) WithRequestID(id string) Event {
	e.RequestID = id
	return e
}
