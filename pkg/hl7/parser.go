package hl7

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hl7lens/hl7lens-go/pkg/definitions"
)

// Parser parses HL7 v2.x messages.
type Parser struct {
	// Definitions resolves segment and field definitions for validation.
	// If nil, the embedded default registry is used.
	Definitions definitions.Lookup
}

// NewParser creates a parser backed by the default definition registry.
func NewParser() *Parser {
	return &Parser{}
}

// NewParserWithDefinitions creates a parser that validates against defs.
func NewParserWithDefinitions(defs definitions.Lookup) *Parser {
	return &Parser{Definitions: defs}
}

// parseContext carries the values derived from the header for one Parse
// call. It is never shared between calls.
type parseContext struct {
	enc     EncodingCharacters
	version string
	defs    definitions.Lookup
}

// sourceLine is a non-blank input line with its 1-based line number.
type sourceLine struct {
	num  int
	text string
}

// Parse parses raw message text. It never fails: problems are reported as
// diagnostics in the result.
func (p *Parser) Parse(raw string) Result {
	defs := p.Definitions
	if defs == nil {
		defs = definitions.Default()
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		return critical(MsgEmptyMessage)
	}

	header := lines[0]
	if !strings.HasPrefix(header.text, HeaderSegment) {
		return critical(MsgMissingHeader)
	}
	headerRunes := []rune(header.text)
	if len(headerRunes) < 8 {
		return critical(MsgHeaderTooShort)
	}

	ctx := parseContext{
		enc:  encodingFromHeader(headerRunes),
		defs: defs,
	}

	var diags []Diagnostic
	segments := make([]Segment, 0, len(lines))

	msh, err := parseLine(ctx, header)
	if err != nil {
		return critical(err.Error())
	}
	ctx.version = versionOf(msh)

	segments = append(segments, *msh)
	diags = append(diags, validateSegment(ctx, msh)...)

	for _, line := range lines[1:] {
		seg, err := parseLine(ctx, line)
		if err != nil {
			diags = append(diags, Diagnostic{
				Severity:    SeverityError,
				Message:     err.Error(),
				Line:        line.num,
				SegmentName: presumptiveName(line.text),
			})
			continue
		}
		segments = append(segments, *seg)
		diags = append(diags, validateSegment(ctx, seg)...)
	}

	return Result{
		Message: &Message{
			Version:            ctx.version,
			MessageType:        valueOr(msh, 9, "Unknown"),
			ControlID:          valueOr(msh, 10, "Unknown"),
			EncodingCharacters: ctx.enc,
			Segments:           segments,
		},
		Diagnostics: diags,
	}
}

// ParseBytes parses message data.
func (p *Parser) ParseBytes(data []byte) Result {
	return p.Parse(string(data))
}

// ParseReader reads all of r and parses it. Only the read itself can fail.
func (p *Parser) ParseReader(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read message: %w", err)
	}
	return p.ParseBytes(data), nil
}

// ParseFile reads and parses a message file. MLLP framing and bare carriage
// return segment terminators are accepted.
func (p *Parser) ParseFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(Unframe(data)), nil
}

// Parse is a convenience function that parses with the default registry.
func Parse(raw string) Result {
	return NewParser().Parse(raw)
}

// ParseFile is a convenience function to parse a message file.
func ParseFile(path string) (Result, error) {
	return NewParser().ParseFile(path)
}

func critical(msg string) Result {
	return Result{
		Diagnostics: []Diagnostic{{Severity: SeverityCritical, Message: msg}},
	}
}

// splitLines splits on \n or \r\n and drops blank lines, keeping the
// original line numbers.
func splitLines(raw string) []sourceLine {
	var out []sourceLine
	for i, text := range strings.Split(raw, "\n") {
		text = strings.TrimSpace(strings.TrimSuffix(text, "\r"))
		if text == "" {
			continue
		}
		out = append(out, sourceLine{num: i + 1, text: text})
	}
	return out
}

// encodingFromHeader reads the delimiters at rune positions 3 to 7 of the
// header, falling back to the standard characters for missing positions.
func encodingFromHeader(header []rune) EncodingCharacters {
	enc := DefaultEncoding()
	at := func(i int, def string) string {
		if i < len(header) {
			return string(header[i])
		}
		return def
	}
	enc.FieldSeparator = at(3, enc.FieldSeparator)
	enc.ComponentSeparator = at(4, enc.ComponentSeparator)
	enc.RepetitionSeparator = at(5, enc.RepetitionSeparator)
	enc.EscapeCharacter = at(6, enc.EscapeCharacter)
	enc.SubComponentSeparator = at(7, enc.SubComponentSeparator)
	return enc
}

// parseLine turns one line into a segment. A panic while tokenizing is
// returned as an error so that one bad line cannot abort the message.
func parseLine(ctx parseContext, line sourceLine) (seg *Segment, err error) {
	defer func() {
		if r := recover(); r != nil {
			seg = nil
			err = fmt.Errorf("failed to parse segment: %v", r)
		}
	}()

	if strings.HasPrefix(line.text, HeaderSegment) {
		return parseHeader(ctx, line)
	}
	return parseSegment(ctx, line)
}

// parseHeader splits an MSH line. The field separator directly follows the
// segment name and is itself MSH-1; the encoding block is MSH-2.
func parseHeader(ctx parseContext, line sourceLine) (*Segment, error) {
	runes := []rune(line.text)
	if len(runes) < 8 {
		return nil, errors.New(MsgHeaderTooShort)
	}

	fields := []Field{
		literalField(HeaderSegment),
		literalField(ctx.enc.FieldSeparator),
		literalField(string(runes[4:8])),
	}
	if len(runes) > 8 {
		rest := ""
		if len(runes) > 9 {
			rest = string(runes[9:])
		}
		for _, tok := range strings.Split(rest, ctx.enc.FieldSeparator) {
			fields = append(fields, NewField(tok, ctx.enc))
		}
	}

	return &Segment{
		Name:   HeaderSegment,
		Fields: fields,
		Raw:    line.text,
		Line:   line.num,
	}, nil
}

// parseSegment splits an ordinary line. The name is the first three
// characters while field 0 keeps the whole first token, so a line such as
// "ZPID1|x" is kept as segment ZPI rather than dropped.
func parseSegment(ctx parseContext, line sourceLine) (*Segment, error) {
	name := presumptiveName(line.text)

	tokens := strings.Split(line.text, ctx.enc.FieldSeparator)
	fields := make([]Field, len(tokens))
	for i, tok := range tokens {
		fields[i] = NewField(tok, ctx.enc)
	}

	return &Segment{
		Name:   name,
		Fields: fields,
		Raw:    line.text,
		Line:   line.num,
	}, nil
}

func presumptiveName(text string) string {
	runes := []rune(text)
	return string(runes[:min(3, len(runes))])
}

func versionOf(msh *Segment) string {
	return valueOr(msh, 12, DefaultVersion)
}

func valueOr(seg *Segment, i int, def string) string {
	v := seg.Value(i)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
