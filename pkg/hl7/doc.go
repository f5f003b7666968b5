// Package hl7 parses HL7 v2.x messages into a structured tree and validates
// the result against a version-keyed definition registry.
//
// # Message Structure
//
// A message is a sequence of segment lines. The first line must be the MSH
// header, which declares the delimiters used by the rest of the message:
//
//	MSH|^~\&|SENDER|FAC|RECEIVER|FAC|20230101||ADT^A01|MSG1|P|2.5
//	   | |||\
//	   | ||| +- sub-component separator
//	   | ||+--- escape character
//	   | |+---- repetition separator
//	   | +----- component separator
//	   +------- field separator
//
// Fields are split on the field separator, each field into repetitions, the
// first repetition into components and each component into sub-components.
// Escape sequences are kept as they appear in the input.
//
// # Field Numbering
//
// Field index 0 of every segment is the segment name. For MSH, index 1 is the
// field separator itself and index 2 the encoding character block, so MSH-9
// is the message type, MSH-10 the control ID and MSH-12 the version, matching
// the numbering used by package definitions.
//
// # Diagnostics
//
// [Parser.Parse] never fails with a Go error. Problems are reported as
// [Diagnostic] values in the [Result]:
//   - critical: the message could not be parsed at all (Message is nil)
//   - error: a malformed segment line or a field that violates its definition
//   - warning: a segment type that has no definition for the message version
//
// A Parser holds no per-call state and may be shared between goroutines.
package hl7
