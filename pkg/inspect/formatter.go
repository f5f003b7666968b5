package inspect

import (
	"fmt"
	"strings"

	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes data type, length and required markers.
	ShowMetadata bool

	// ShowEmpty includes empty fields and components.
	ShowEmpty bool

	// ShowComponents lists the components of composite fields.
	ShowComponents bool

	// ShowLines adds source line numbers to segment headers.
	ShowLines bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int

	// Palette colors the output. Nil means no color.
	Palette *Palette
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata:   true,
		ShowComponents: true,
		ShowLines:      true,
		IndentWidth:    2,
	}
}

var plainPalette = NewPalette(false)

func (f *Formatter) palette() *Palette {
	if f.Palette == nil {
		return plainPalette
	}
	return f.Palette
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatValue quotes a field value for display.
func (f *Formatter) FormatValue(v string) string {
	return fmt.Sprintf("%q", v)
}

func (f *Formatter) formatField(segment string, fi *FieldInfo) string {
	p := f.palette()
	s := fmt.Sprintf("%s %s = %s",
		p.Name.Sprint(FieldLabel(segment, fi.Index)), fi.Name, p.Value.Sprint(f.FormatValue(fi.Value)))
	if f.ShowMetadata && fi.DataType != "" {
		s += p.Dim.Sprint(" " + metadata(fi.DataType, fi.MaxLength, fi.Required))
	}
	return s
}

func metadata(dataType string, maxLength int, required bool) string {
	parts := []string{dataType}
	if maxLength > 0 {
		parts = append(parts, fmt.Sprintf("len %d", maxLength))
	}
	if required {
		parts = append(parts, "required")
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatDiagnostics lists diagnostics one per line, colored by severity.
func (f *Formatter) FormatDiagnostics(diags []hl7.Diagnostic) string {
	if len(diags) == 0 {
		return f.palette().OK.Sprint("No problems found.") + "\n"
	}
	p := f.palette()
	var sb strings.Builder
	for _, d := range diags {
		c := p.Warning
		switch d.Severity {
		case hl7.SeverityCritical:
			c = p.Critical
		case hl7.SeverityError:
			c = p.Error
		}
		sb.WriteString(f.Indent(1, c.Sprint(d.String())) + "\n")
	}
	return sb.String()
}

// FormatDefinitionTable formats field definitions as a table.
func (f *Formatter) FormatDefinitionTable(rows []DefinitionRow) string {
	if len(rows) == 0 {
		return "  (no fields)\n"
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %3d  %-40s", row.Index, row.Name))
		if f.ShowMetadata {
			sb.WriteString(" " + metadata(row.DataType, row.MaxLength, row.Required))
			if row.Repeatable {
				sb.WriteString(" repeatable")
			}
			if row.Table != "" {
				sb.WriteString(" table " + row.Table)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
