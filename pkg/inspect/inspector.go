// Package inspect renders parsed HL7 messages, diffs and segment definitions
// for terminal display.
package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hl7lens/hl7lens-go/pkg/definitions"
	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

// Inspector errors.
var (
	ErrSegmentNotFound = errors.New("segment not defined")
	ErrFieldNotFound   = errors.New("field not defined")
)

// Inspector annotates messages with definition metadata.
type Inspector struct {
	defs definitions.Lookup
}

// NewInspector creates an Inspector. A nil lookup uses the default registry.
func NewInspector(defs definitions.Lookup) *Inspector {
	if defs == nil {
		defs = definitions.Default()
	}
	return &Inspector{defs: defs}
}

// Definitions returns the lookup used for annotations.
func (i *Inspector) Definitions() definitions.Lookup {
	return i.defs
}

// MessageTree is a message annotated for display.
type MessageTree struct {
	Version     string
	MessageType string
	ControlID   string
	Segments    []SegmentInfo
}

// SegmentInfo is one annotated segment.
type SegmentInfo struct {
	Name  string
	Title string
	Line  int
	Known bool
	// Fields skips index 0 (the segment name).
	Fields []FieldInfo
}

// FieldInfo is one annotated field.
type FieldInfo struct {
	Index      int
	Name       string
	Value      string
	DataType   string
	MaxLength  int
	Required   bool
	Components []string
}

// InspectMessage builds the display tree of msg.
func (i *Inspector) InspectMessage(msg *hl7.Message) *MessageTree {
	tree := &MessageTree{
		Version:     msg.Version,
		MessageType: msg.MessageType,
		ControlID:   msg.ControlID,
	}
	for s := range msg.Segments {
		tree.Segments = append(tree.Segments, i.InspectSegment(&msg.Segments[s], msg.Version))
	}
	return tree
}

// InspectSegment annotates one segment for version.
func (i *Inspector) InspectSegment(seg *hl7.Segment, version string) SegmentInfo {
	sd := i.defs.SegmentDefinition(seg.Name, version)
	info := SegmentInfo{
		Name:  seg.Name,
		Line:  seg.Line,
		Known: sd != nil,
	}
	if sd != nil {
		info.Title = sd.Name
	}
	for idx := 1; idx < len(seg.Fields); idx++ {
		f := seg.Fields[idx]
		fi := FieldInfo{
			Index:      idx,
			Name:       FieldName(i.defs, seg.Name, idx, version),
			Value:      f.Value,
			Components: f.Components,
		}
		if fd := sd.Field(idx); fd != nil {
			fi.DataType = fd.DataType
			fi.MaxLength = fd.MaxLength
			fi.Required = fd.Required
		}
		info.Fields = append(info.Fields, fi)
	}
	return info
}

// DefinitionRow is one field definition prepared for a table.
type DefinitionRow struct {
	Index      int
	Name       string
	DataType   string
	MaxLength  int
	Required   bool
	Repeatable bool
	Table      string
}

// DefinitionRows lists the field definitions of a segment for version.
func (i *Inspector) DefinitionRows(segment, version string) ([]DefinitionRow, error) {
	sd := i.defs.SegmentDefinition(segment, version)
	if sd == nil {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, segment)
	}
	rows := make([]DefinitionRow, 0, len(sd.Fields))
	for _, idx := range sd.FieldIndices() {
		fd := sd.Fields[idx]
		rows = append(rows, DefinitionRow{
			Index:      idx,
			Name:       fd.Name,
			DataType:   fd.DataType,
			MaxLength:  fd.MaxLength,
			Required:   fd.Required,
			Repeatable: fd.Repeatable,
			Table:      fd.Table,
		})
	}
	return rows, nil
}

// FieldDefinition returns one field definition or ErrFieldNotFound.
func (i *Inspector) FieldDefinition(segment string, index int, version string) (*definitions.FieldDefinition, error) {
	if i.defs.SegmentDefinition(segment, version) == nil {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, segment)
	}
	fd := i.defs.FieldDefinition(segment, index, version)
	if fd == nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, FieldLabel(segment, index))
	}
	return fd, nil
}

// FormatMessageTree formats the tree for display.
func (i *Inspector) FormatMessageTree(tree *MessageTree, f *Formatter) string {
	if f == nil {
		f = NewFormatter()
	}
	p := f.palette()

	var sb strings.Builder
	sb.WriteString(p.Header.Sprintf("Message: %s  Control ID: %s  Version: %s", tree.MessageType, tree.ControlID, tree.Version))
	sb.WriteString("\n---\n")
	for s := range tree.Segments {
		sb.WriteString(i.formatSegment(&tree.Segments[s], f, 0))
	}
	return sb.String()
}

// FormatSegment formats one annotated segment.
func (i *Inspector) FormatSegment(seg *SegmentInfo, f *Formatter) string {
	if f == nil {
		f = NewFormatter()
	}
	return i.formatSegment(seg, f, 0)
}

func (i *Inspector) formatSegment(seg *SegmentInfo, f *Formatter, depth int) string {
	p := f.palette()
	var sb strings.Builder

	header := p.Segment.Sprint(seg.Name)
	switch {
	case seg.Title != "":
		header += " " + seg.Title
	case !seg.Known:
		header += " " + p.Warning.Sprint("(undefined)")
	}
	if f.ShowLines && seg.Line > 0 {
		header += p.Dim.Sprintf("  line %d", seg.Line)
	}
	sb.WriteString(f.Indent(depth, header) + "\n")

	for _, fi := range seg.Fields {
		if fi.Value == "" && !f.ShowEmpty {
			continue
		}
		sb.WriteString(f.Indent(depth+1, f.formatField(seg.Name, &fi)) + "\n")
		if f.ShowComponents && len(fi.Components) > 1 {
			for c, comp := range fi.Components {
				if comp == "" && !f.ShowEmpty {
					continue
				}
				line := fmt.Sprintf("%s.%d = %s", FieldLabel(seg.Name, fi.Index), c+1, f.FormatValue(comp))
				sb.WriteString(f.Indent(depth+2, line) + "\n")
			}
		}
	}
	return sb.String()
}

// FormatDiff formats a diff result. Common segments and unchanged fields are
// shown only when all is set. Field names are resolved for versionA, falling
// back to versionB for added segments.
func (i *Inspector) FormatDiff(res diff.Result, versionA, versionB string, f *Formatter, all bool) string {
	if f == nil {
		f = NewFormatter()
	}
	p := f.palette()
	var sb strings.Builder

	for _, sd := range res.Segments {
		if sd.Type == diff.Common && !all {
			continue
		}
		version := versionA
		if sd.Type == diff.Added {
			version = versionB
		}

		var marker string
		c := p.Value
		switch sd.Type {
		case diff.Added:
			marker, c = "+", p.Added
		case diff.Removed:
			marker, c = "-", p.Removed
		case diff.Modified:
			marker, c = "~", p.Modified
		default:
			marker = " "
		}

		title := SegmentTitle(i.defs, sd.SegmentName, version)
		line := fmt.Sprintf("%s %s", marker, sd.SegmentName)
		if title != "" {
			line += " " + title
		}
		sb.WriteString(c.Sprint(line) + "\n")

		for _, fd := range sd.FieldDiffs {
			if fd.DiffType == diff.Common && !all {
				continue
			}
			sb.WriteString(f.Indent(2, i.formatFieldDiff(sd.SegmentName, version, fd, p)) + "\n")
		}
	}

	s := res.Summary()
	sb.WriteString(p.Header.Sprintf("%d added, %d removed, %d modified, %d common (%d field changes)",
		s.Added, s.Removed, s.Modified, s.Common, s.ChangedFields))
	sb.WriteString("\n")
	return sb.String()
}

func (i *Inspector) formatFieldDiff(segment, version string, fd diff.FieldDiff, p *Palette) string {
	label := fmt.Sprintf("%s (%s)", FieldLabel(segment, fd.FieldIndex), FieldName(i.defs, segment, fd.FieldIndex, version))
	val := func(s *string) string {
		if s == nil {
			return "null"
		}
		return fmt.Sprintf("%q", *s)
	}
	switch fd.DiffType {
	case diff.Modified:
		return p.Modified.Sprintf("~ %s: %s -> %s", label, val(fd.ValueA), val(fd.ValueB))
	case diff.Added:
		return p.Added.Sprintf("+ %s: %s", label, val(fd.ValueB))
	case diff.Removed:
		return p.Removed.Sprintf("- %s: %s", label, val(fd.ValueA))
	}
	return fmt.Sprintf("  %s: %s", label, val(fd.ValueA))
}
