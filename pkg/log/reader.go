package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter specifies criteria for filtering capture events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// Category filters by event category.
	Category *Category

	// Source filters by front end.
	Source *Source

	// RequestID filters by exact request ID match.
	RequestID string

	// ControlID matches parse events with this control ID and diff events
	// with it on either side.
	ControlID string

	// ProblemsOnly keeps parse events with critical or error diagnostics,
	// diffs with differences and all error events.
	ProblemsOnly bool

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// Matches reports whether the event satisfies all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Source != nil && event.Source != *f.Source {
		return false
	}
	if f.RequestID != "" && event.RequestID != f.RequestID {
		return false
	}
	if f.ControlID != "" && !hasControlID(event, f.ControlID) {
		return false
	}
	if f.ProblemsOnly && !isProblem(event) {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

func hasControlID(event Event, id string) bool {
	switch {
	case event.Parse != nil:
		return event.Parse.ControlID == id
	case event.Diff != nil:
		return event.Diff.ControlIDA == id || event.Diff.ControlIDB == id
	}
	return false
}

func isProblem(event Event) bool {
	switch {
	case event.Parse != nil:
		return event.Parse.Critical > 0 || event.Parse.Errors > 0
	case event.Diff != nil:
		return event.Diff.Added+event.Diff.Removed+event.Diff.Modified > 0
	}
	return event.Error != nil
}

// Reader streams capture events from a CBOR-encoded file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader for all events of the file at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that returns only events matching
// filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// ReadAll returns every remaining matching event.
func (r *Reader) ReadAll() ([]Event, error) {
	var out []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, event)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
