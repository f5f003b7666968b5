package hl7

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex BLAKE2b-256 digest of the message content. Two
// messages with the same segment lines have the same fingerprint regardless
// of line endings, framing or blank lines in the source text.
func Fingerprint(msg *Message) string {
	if msg == nil {
		return ""
	}
	sum := blake2b.Sum256([]byte(msg.Raw()))
	return hex.EncodeToString(sum[:])
}
