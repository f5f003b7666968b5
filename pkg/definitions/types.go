package definitions

import "sort"

// FieldDefinition describes one field position of a segment.
type FieldDefinition struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	DataType    string `yaml:"dataType" json:"dataType"`

	// MaxLength is the maximum value length in characters; 0 means unbounded.
	MaxLength int `yaml:"length,omitempty" json:"maxLength,omitempty"`

	Required   bool   `yaml:"required,omitempty" json:"required"`
	Repeatable bool   `yaml:"repeatable,omitempty" json:"repeatable"`
	Table      string `yaml:"table,omitempty" json:"table,omitempty"`
	Usage      string `yaml:"usage,omitempty" json:"usage,omitempty"`
	Example    string `yaml:"example,omitempty" json:"example,omitempty"`
}

// HasMaxLength reports whether the field declares a length limit.
func (f *FieldDefinition) HasMaxLength() bool {
	return f.MaxLength > 0
}

// SegmentDefinition describes a segment for a single HL7 version.
type SegmentDefinition struct {
	Name        string                   `yaml:"name" json:"name"`
	Description string                   `yaml:"description,omitempty" json:"description,omitempty"`
	Purpose     string                   `yaml:"purpose,omitempty" json:"purpose,omitempty"`
	Fields      map[int]*FieldDefinition `yaml:"fields" json:"fields"`
}

// Field returns the definition at index, or nil.
func (s *SegmentDefinition) Field(index int) *FieldDefinition {
	if s == nil {
		return nil
	}
	return s.Fields[index]
}

// FieldIndices returns the defined field indices in ascending order.
func (s *SegmentDefinition) FieldIndices() []int {
	out := make([]int, 0, len(s.Fields))
	for idx := range s.Fields {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// RequiredFields returns the indices of required fields in ascending order.
func (s *SegmentDefinition) RequiredFields() []int {
	var out []int
	for _, idx := range s.FieldIndices() {
		if s.Fields[idx].Required {
			out = append(out, idx)
		}
	}
	return out
}

// Manifest is the on-disk form of one version's definitions.
type Manifest struct {
	Version     string                        `yaml:"version"`
	Description string                        `yaml:"description"`
	Segments    map[string]*SegmentDefinition `yaml:"segments"`
}

// Lookup resolves segment and field definitions for an HL7 version.
type Lookup interface {
	// SegmentDefinition returns the definition of a segment, or nil if the
	// segment name is unknown.
	SegmentDefinition(segmentName, version string) *SegmentDefinition

	// FieldDefinition returns the definition of a field, or nil if either the
	// segment or the field index is unknown.
	FieldDefinition(segmentName string, fieldIndex int, version string) *FieldDefinition
}
