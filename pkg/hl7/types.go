package hl7

import "strings"

// Standard HL7 delimiters.
const (
	DefaultFieldSeparator        = "|"
	DefaultComponentSeparator    = "^"
	DefaultRepetitionSeparator   = "~"
	DefaultEscapeCharacter       = `\`
	DefaultSubComponentSeparator = "&"
)

// DefaultVersion is used when the header carries no version.
const DefaultVersion = "2.5"

// HeaderSegment is the name of the segment every message starts with.
const HeaderSegment = "MSH"

// EncodingCharacters are the delimiters declared by a message header.
type EncodingCharacters struct {
	FieldSeparator        string `json:"fieldSeparator" yaml:"fieldSeparator" msgpack:"fieldSeparator"`
	ComponentSeparator    string `json:"componentSeparator" yaml:"componentSeparator" msgpack:"componentSeparator"`
	RepetitionSeparator   string `json:"repetitionSeparator" yaml:"repetitionSeparator" msgpack:"repetitionSeparator"`
	EscapeCharacter       string `json:"escapeCharacter" yaml:"escapeCharacter" msgpack:"escapeCharacter"`
	SubComponentSeparator string `json:"subComponentSeparator" yaml:"subComponentSeparator" msgpack:"subComponentSeparator"`
}

// DefaultEncoding returns the standard HL7 delimiters (|^~\&).
func DefaultEncoding() EncodingCharacters {
	return EncodingCharacters{
		FieldSeparator:        DefaultFieldSeparator,
		ComponentSeparator:    DefaultComponentSeparator,
		RepetitionSeparator:   DefaultRepetitionSeparator,
		EscapeCharacter:       DefaultEscapeCharacter,
		SubComponentSeparator: DefaultSubComponentSeparator,
	}
}

// String returns the delimiters in header order, e.g. "|^~\&".
func (e EncodingCharacters) String() string {
	return e.FieldSeparator + e.ComponentSeparator + e.RepetitionSeparator +
		e.EscapeCharacter + e.SubComponentSeparator
}

// Field is one delimited unit of a segment.
type Field struct {
	// Value is the raw field text, including any repetition and component
	// delimiters.
	Value string `json:"value" yaml:"value" msgpack:"value"`

	// Repetitions holds Value split on the repetition separator. It always
	// has at least one element.
	Repetitions []string `json:"repetitions" yaml:"repetitions" msgpack:"repetitions"`

	// Components holds the first repetition split on the component
	// separator. It always has at least one element.
	Components []string `json:"components" yaml:"components" msgpack:"components"`

	// SubComponents holds each component split on the sub-component
	// separator; len(SubComponents) == len(Components).
	SubComponents [][]string `json:"subComponents" yaml:"subComponents" msgpack:"subComponents"`
}

// NewField decomposes a raw field token using enc.
func NewField(raw string, enc EncodingCharacters) Field {
	reps := strings.Split(raw, enc.RepetitionSeparator)
	comps := strings.Split(reps[0], enc.ComponentSeparator)
	subs := make([][]string, len(comps))
	for i, c := range comps {
		subs[i] = strings.Split(c, enc.SubComponentSeparator)
	}
	return Field{
		Value:         raw,
		Repetitions:   reps,
		Components:    comps,
		SubComponents: subs,
	}
}

// literalField builds a field whose value is not decomposed. It is used for
// MSH-1 and MSH-2, whose values are the delimiters themselves.
func literalField(raw string) Field {
	return Field{
		Value:         raw,
		Repetitions:   []string{raw},
		Components:    []string{raw},
		SubComponents: [][]string{{raw}},
	}
}

// IsEmpty reports whether the field value is empty or all whitespace.
func (f Field) IsEmpty() bool {
	return strings.TrimSpace(f.Value) == ""
}

// Component returns the 1-based component of the first repetition, or "".
func (f Field) Component(n int) string {
	if n < 1 || n > len(f.Components) {
		return ""
	}
	return f.Components[n-1]
}

// SubComponent returns the 1-based sub-component of a 1-based component.
func (f Field) SubComponent(comp, sub int) string {
	if comp < 1 || comp > len(f.SubComponents) {
		return ""
	}
	subs := f.SubComponents[comp-1]
	if sub < 1 || sub > len(subs) {
		return ""
	}
	return subs[sub-1]
}

// Repetition returns the 1-based repetition, or "".
func (f Field) Repetition(n int) string {
	if n < 1 || n > len(f.Repetitions) {
		return ""
	}
	return f.Repetitions[n-1]
}

// Segment is one parsed line of a message.
type Segment struct {
	// Name is the three-character segment code.
	Name string `json:"name" yaml:"name" msgpack:"name"`

	// Fields is index-aligned with the definition numbering; Fields[0]
	// holds the segment name.
	Fields []Field `json:"fields" yaml:"fields" msgpack:"fields"`

	// Raw is the trimmed source line.
	Raw string `json:"raw" yaml:"raw" msgpack:"raw"`

	// Line is the 1-based source line number.
	Line int `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line,omitempty"`
}

// Field returns the field at definition index i, or nil.
func (s *Segment) Field(i int) *Field {
	if s == nil || i < 0 || i >= len(s.Fields) {
		return nil
	}
	return &s.Fields[i]
}

// Value returns the raw value of field i, or "" if the segment has no such
// field.
func (s *Segment) Value(i int) string {
	if f := s.Field(i); f != nil {
		return f.Value
	}
	return ""
}

// Encode rebuilds the segment line from its field values. For MSH the
// field separator and encoding block are written back in header form.
func (s *Segment) Encode(enc EncodingCharacters) string {
	if s == nil || len(s.Fields) == 0 {
		return ""
	}
	values := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		values = append(values, f.Value)
	}
	if s.Name == HeaderSegment && len(values) >= 3 {
		head := values[0] + enc.FieldSeparator + values[2]
		if len(values) == 3 {
			return head
		}
		return head + enc.FieldSeparator + strings.Join(values[3:], enc.FieldSeparator)
	}
	return strings.Join(values, enc.FieldSeparator)
}

// Message is a parsed HL7 message. A Message returned by the parser is not
// modified afterwards.
type Message struct {
	Version            string             `json:"version" yaml:"version" msgpack:"version"`
	MessageType        string             `json:"messageType" yaml:"messageType" msgpack:"messageType"`
	ControlID          string             `json:"controlId" yaml:"controlId" msgpack:"controlId"`
	EncodingCharacters EncodingCharacters `json:"encodingCharacters" yaml:"encodingCharacters" msgpack:"encodingCharacters"`
	Segments           []Segment          `json:"segments" yaml:"segments" msgpack:"segments"`
}

// Header returns the MSH segment, or nil for an empty message.
func (m *Message) Header() *Segment {
	if m == nil || len(m.Segments) == 0 {
		return nil
	}
	return &m.Segments[0]
}

// SegmentsNamed returns every segment with the given name, in message order.
func (m *Message) SegmentsNamed(name string) []*Segment {
	if m == nil {
		return nil
	}
	var out []*Segment
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			out = append(out, &m.Segments[i])
		}
	}
	return out
}

// Segment returns the n-th (1-based) segment with the given name, or nil.
func (m *Message) Segment(name string, n int) *Segment {
	if m == nil || n < 1 {
		return nil
	}
	for i := range m.Segments {
		if m.Segments[i].Name != name {
			continue
		}
		n--
		if n == 0 {
			return &m.Segments[i]
		}
	}
	return nil
}

// Raw joins the segment lines with the HL7 segment terminator.
func (m *Message) Raw() string {
	if m == nil {
		return ""
	}
	lines := make([]string, len(m.Segments))
	for i, seg := range m.Segments {
		lines[i] = seg.Raw
	}
	return strings.Join(lines, "\r")
}
