package log

import (
	"sync"
	"testing"
	"time"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingLogger) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestMultiLoggerSendsToAll(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	multi := NewMultiLogger(a, b)

	event := Event{Timestamp: time.Now(), ID: "ev-1", Category: CategoryParse}
	multi.Log(event)

	for name, r := range map[string]*recordingLogger{"a": a, "b": b} {
		got := r.Events()
		if len(got) != 1 {
			t.Fatalf("logger %s got %d events, want 1", name, len(got))
		}
		if got[0].ID != "ev-1" {
			t.Errorf("logger %s event ID = %q, want %q", name, got[0].ID, "ev-1")
		}
	}
}

func TestMultiLoggerSkipsNil(t *testing.T) {
	rec := &recordingLogger{}
	multi := NewMultiLogger(nil, rec, nil)
	if multi.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", multi.Len())
	}
	multi.Log(Event{})
	if len(rec.Events()) != 1 {
		t.Error("event not delivered")
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	multi := NewMultiLogger()
	multi.Log(Event{})
}
