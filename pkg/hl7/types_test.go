package hl7

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_Accessors(t *testing.T) {
	f := NewField("DOE^JOHN&J^^^~SMITH^JANE", DefaultEncoding())

	assert.Equal(t, "DOE", f.Component(1))
	assert.Equal(t, "JOHN&J", f.Component(2))
	assert.Equal(t, "", f.Component(0))
	assert.Equal(t, "", f.Component(9))
	assert.Equal(t, "J", f.SubComponent(2, 2))
	assert.Equal(t, "", f.SubComponent(2, 3))
	assert.Equal(t, "", f.SubComponent(7, 1))
	assert.Equal(t, "SMITH^JANE", f.Repetition(2))
	assert.Equal(t, "", f.Repetition(3))
	assert.False(t, f.IsEmpty())
	assert.True(t, NewField(" \t", DefaultEncoding()).IsEmpty())
}

func TestSegment_NilSafe(t *testing.T) {
	var seg *Segment
	assert.Nil(t, seg.Field(0))
	assert.Equal(t, "", seg.Value(3))
}

func TestMessage_SegmentsNamed(t *testing.T) {
	msg := Parse(adtMessage).Message
	require.NotNil(t, msg)

	nk1 := msg.SegmentsNamed("NK1")
	require.Len(t, nk1, 2)
	assert.Equal(t, "1", nk1[0].Value(1))
	assert.Equal(t, "2", nk1[1].Value(1))
	assert.Empty(t, msg.SegmentsNamed("OBX"))

	assert.Same(t, nk1[1], msg.Segment("NK1", 2))
	assert.Nil(t, msg.Segment("NK1", 0))
	assert.Same(t, &msg.Segments[0], msg.Header())
}

func TestMessage_Raw(t *testing.T) {
	msg := Parse(adtMessage).Message
	require.NotNil(t, msg)
	assert.Equal(t, strings.ReplaceAll(adtMessage, "\n", "\r"), msg.Raw())

	var empty *Message
	assert.Equal(t, "", empty.Raw())
	assert.Nil(t, empty.Header())
}

func TestSegment_Encode(t *testing.T) {
	msg := Parse(adtMessage + "\nZZZ|x||y").Message
	require.NotNil(t, msg)

	enc := msg.EncodingCharacters
	for _, seg := range msg.Segments {
		assert.Equal(t, seg.Raw, seg.Encode(enc))
	}

	header := Parse(`MSH|^~\&`).Message.Header()
	assert.Equal(t, `MSH|^~\&`, header.Encode(enc))

	var nilSeg *Segment
	assert.Equal(t, "", nilSeg.Encode(enc))
}

func TestEncodingCharacters_String(t *testing.T) {
	assert.Equal(t, `|^~\&`, DefaultEncoding().String())
}

func TestUnframe(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain newlines", "MSH|^~\\&\nPID|1", "MSH|^~\\&\nPID|1"},
		{"crlf", "MSH|^~\\&\r\nPID|1\r\n", "MSH|^~\\&\nPID|1\n"},
		{"bare cr", "MSH|^~\\&\rPID|1\r", "MSH|^~\\&\nPID|1\n"},
		{"mllp frame", "\x0bMSH|^~\\&\rPID|1\r\x1c\r", "MSH|^~\\&\nPID|1\n"},
		{"bom", "\xEF\xBB\xBFMSH|^~\\&", "MSH|^~\\&"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unframe([]byte(tt.in)))
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	msg := Parse(adtMessage).Message
	require.NotNil(t, msg)

	framed := Frame(msg)
	assert.Equal(t, StartBlock, framed[0])
	assert.Equal(t, []byte{CarriageReturn, EndBlock, CarriageReturn}, framed[len(framed)-3:])

	again := Parse(Unframe(framed)).Message
	require.NotNil(t, again)
	assert.Equal(t, msg.Raw(), again.Raw())
}

func TestFingerprint(t *testing.T) {
	a := Parse(adtMessage).Message
	b := Parse("\n" + strings.ReplaceAll(adtMessage, "\n", "\r\n\r\n")).Message
	c := Parse(strings.Replace(adtMessage, "JONES", "JONAS", 1)).Message

	fa := Fingerprint(a)
	assert.Len(t, fa, 64)
	assert.Equal(t, fa, Fingerprint(b))
	assert.NotEqual(t, fa, Fingerprint(c))
	assert.Equal(t, "", Fingerprint(nil))
}
