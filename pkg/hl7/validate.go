package hl7

import (
	"unicode/utf8"

	"github.com/hl7lens/hl7lens-go/pkg/definitions"
)

// Validate checks an already parsed message against the parser's
// definitions, using msg.Version for every segment. Per-line parse errors
// are not reproduced; only definition checks are run.
func (p *Parser) Validate(msg *Message) []Diagnostic {
	if msg == nil {
		return nil
	}
	defs := p.Definitions
	if defs == nil {
		defs = definitions.Default()
	}
	ctx := parseContext{
		enc:     msg.EncodingCharacters,
		version: msg.Version,
		defs:    defs,
	}

	var diags []Diagnostic
	for i := range msg.Segments {
		diags = append(diags, validateSegment(ctx, &msg.Segments[i])...)
	}
	return diags
}

// validateSegment checks one segment against its definition for the
// message version. Fields without a definition are not checked.
func validateSegment(ctx parseContext, seg *Segment) []Diagnostic {
	var diags []Diagnostic

	if seg.Name != HeaderSegment && ctx.defs.SegmentDefinition(seg.Name, ctx.version) == nil {
		diags = append(diags, Diagnostic{
			Severity:    SeverityWarning,
			Message:     UnknownSegmentMessage(seg.Name, ctx.version),
			Line:        seg.Line,
			SegmentName: seg.Name,
		})
	}

	for i, field := range seg.Fields {
		def := ctx.defs.FieldDefinition(seg.Name, i, ctx.version)
		if def == nil {
			continue
		}

		fieldDiag := func(msg string) Diagnostic {
			return Diagnostic{
				Severity:    SeverityError,
				Message:     msg,
				Line:        seg.Line,
				SegmentName: seg.Name,
				FieldName:   def.Name,
				FieldIndex:  intPtr(i),
			}
		}

		if def.Required && field.IsEmpty() {
			diags = append(diags, fieldDiag(MsgFieldRequired))
			continue
		}
		if def.HasMaxLength() && utf8.RuneCountInString(field.Value) > def.MaxLength {
			diags = append(diags, fieldDiag(FieldTooLongMessage(def.MaxLength)))
		}
	}

	return diags
}
