package inspect

import (
	"fmt"

	"github.com/hl7lens/hl7lens-go/pkg/definitions"
)

// FieldLabel returns the conventional label of a field, e.g. "PID-5".
func FieldLabel(segment string, index int) string {
	return fmt.Sprintf("%s-%d", segment, index)
}

// FieldName returns the defined field name, or "Field N" when the registry
// has no definition.
func FieldName(defs definitions.Lookup, segment string, index int, version string) string {
	if defs != nil {
		if fd := defs.FieldDefinition(segment, index, version); fd != nil && fd.Name != "" {
			return fd.Name
		}
	}
	return fmt.Sprintf("Field %d", index)
}

// SegmentTitle returns the defined segment name, or "" for unknown segments.
func SegmentTitle(defs definitions.Lookup, segment, version string) string {
	if defs == nil {
		return ""
	}
	if sd := defs.SegmentDefinition(segment, version); sd != nil {
		return sd.Name
	}
	return ""
}
