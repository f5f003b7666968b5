package log

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

const captureMessage = "MSH|^~\\&|SENDER|FAC|RECV|FAC|20240101120000||ADT^A01|MSG00001|P|2.5\nPID|1||12345||DOE^JOHN"

func TestNewParseEvent(t *testing.T) {
	res := hl7.Parse(captureMessage)
	require.NotNil(t, res.Message)

	ev := NewParseEvent(SourceCLI, "adt.hl7", len(captureMessage), res, 2*time.Millisecond)

	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, SourceCLI, ev.Source)
	assert.Equal(t, CategoryParse, ev.Category)
	assert.Equal(t, "adt.hl7", ev.Input)
	require.NotNil(t, ev.Parse)
	assert.Nil(t, ev.Diff)
	assert.Nil(t, ev.Error)

	p := ev.Parse
	assert.True(t, p.OK)
	assert.Equal(t, "2.5", p.Version)
	assert.Equal(t, "ADT^A01", p.MessageType)
	assert.Equal(t, "MSG00001", p.ControlID)
	assert.Equal(t, 2, p.Segments)
	assert.Equal(t, hl7.Fingerprint(res.Message), p.Fingerprint)
	assert.Equal(t, len(captureMessage), p.Size)
	assert.Equal(t, 2*time.Millisecond, p.Duration)
	assert.Equal(t, res.Count(hl7.SeverityError), p.Errors)
}

func TestNewParseEventCritical(t *testing.T) {
	res := hl7.Parse("")
	ev := NewParseEvent(SourceWeb, "request", 0, res, 0)

	require.NotNil(t, ev.Parse)
	assert.False(t, ev.Parse.OK)
	assert.Equal(t, 1, ev.Parse.Critical)
	assert.Empty(t, ev.Parse.Fingerprint)
	assert.True(t, strings.Contains(ev.Parse.FirstProblem, hl7.MsgEmptyMessage))
}

func TestNewParseEventSkipsWarningsForFirstProblem(t *testing.T) {
	res := hl7.Result{
		Message: &hl7.Message{},
		Diagnostics: []hl7.Diagnostic{
			{Severity: hl7.SeverityWarning, Message: "w"},
			{Severity: hl7.SeverityError, Message: "e"},
		},
	}
	ev := NewParseEvent(SourceShell, "", 0, res, 0)
	assert.Equal(t, res.Diagnostics[1].String(), ev.Parse.FirstProblem)
	assert.Equal(t, 1, ev.Parse.Warnings)
}

func TestNewDiffEvent(t *testing.T) {
	a := hl7.Parse(captureMessage).Message
	b := hl7.Parse(strings.Replace(captureMessage, "DOE^JOHN", "DOE^JANE", 1)).Message
	res := diff.Compare(a, b)

	ev := NewDiffEvent(SourceCLI, a, b, res, time.Millisecond)
	require.NotNil(t, ev.Diff)
	assert.Equal(t, CategoryDiff, ev.Category)
	assert.Equal(t, "MSG00001", ev.Diff.ControlIDA)
	assert.Equal(t, "MSG00001", ev.Diff.ControlIDB)
	assert.NotEqual(t, ev.Diff.FingerprintA, ev.Diff.FingerprintB)
	assert.Equal(t, 1, ev.Diff.Modified)
	assert.Equal(t, 1, ev.Diff.Common)
	assert.Equal(t, 1, ev.Diff.ChangedFields)
}

func TestNewDiffEventNilSides(t *testing.T) {
	b := hl7.Parse(captureMessage).Message
	ev := NewDiffEvent(SourceWeb, nil, b, diff.Compare(nil, b), 0)
	assert.Empty(t, ev.Diff.ControlIDA)
	assert.Empty(t, ev.Diff.FingerprintA)
	assert.Equal(t, 2, ev.Diff.Added)
}

func TestNewErrorEvent(t *testing.T) {
	ev := NewErrorEvent(SourceWeb, "request", errors.New("boom"), 500, "parse")
	require.NotNil(t, ev.Error)
	assert.Equal(t, CategoryError, ev.Category)
	assert.Equal(t, "boom", ev.Error.Message)
	require.NotNil(t, ev.Error.Code)
	assert.Equal(t, 500, *ev.Error.Code)

	ev = NewErrorEvent(SourceCLI, "x.hl7", errors.New("missing"), 0, "read")
	assert.Nil(t, ev.Error.Code)
}

func TestWithRequestID(t *testing.T) {
	ev := NewErrorEvent(SourceWeb, "", errors.New("x"), 0, "")
	tagged := ev.WithRequestID("req-42")
	assert.Equal(t, "req-42", tagged.RequestID)
	assert.Empty(t, ev.RequestID)
}
