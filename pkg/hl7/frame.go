package hl7

import (
	"bytes"
	"strings"
)

// MLLP framing bytes.
const (
	StartBlock     byte = 0x0B
	EndBlock       byte = 0x1C
	CarriageReturn byte = 0x0D
)

// Unframe prepares transmitted message data for parsing. It strips MLLP
// start and end blocks and converts segment terminators to newlines: "\r\n"
// stays a single line break and a bare "\r" becomes "\n". A byte order mark
// at the start is dropped.
func Unframe(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))

	if i := bytes.IndexByte(data, StartBlock); i >= 0 && len(bytes.TrimSpace(data[:i])) == 0 {
		data = data[i+1:]
	}
	if i := bytes.LastIndexByte(data, EndBlock); i >= 0 {
		data = data[:i]
	}

	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Frame wraps a message for MLLP transmission, using "\r" as the segment
// terminator.
func Frame(msg *Message) []byte {
	raw := msg.Raw()
	out := make([]byte, 0, len(raw)+4)
	out = append(out, StartBlock)
	out = append(out, raw...)
	out = append(out, CarriageReturn, EndBlock, CarriageReturn)
	return out
}
