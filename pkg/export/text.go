package export

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// fieldLabel names field i of a segment, e.g. "PID.3".
func fieldLabel(segment string, i int) string {
	return fmt.Sprintf("%s.%d", segment, i)
}

// writeCSV emits one row per field. Index 0 (the segment name) is omitted;
// labels use definition numbering, so MSH.1 is the field separator.
func writeCSV(w io.Writer, doc Document, _ Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Segment", "Field", "Value"}); err != nil {
		return err
	}
	for _, seg := range doc.ParsedMessage.Segments {
		for i := 1; i < len(seg.Fields); i++ {
			if err := cw.Write([]string{seg.Name, fieldLabel(seg.Name, i), seg.Fields[i].Value}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeText emits the raw message when requested, else the segments rebuilt
// from their field values, one per line.
func writeText(w io.Writer, doc Document, opts Options) error {
	if opts.IncludeRaw && opts.Raw != "" {
		_, err := io.WriteString(w, opts.Raw)
		return err
	}
	msg := doc.ParsedMessage
	lines := make([]string, len(msg.Segments))
	for i := range msg.Segments {
		lines[i] = msg.Segments[i].Encode(msg.EncodingCharacters)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// writeXML emits a flat element per field:
//
//	<HL7Message version="2.5" messageType="ADT^A01" controlId="MSG1">
//	  <PID>
//	    <PID.3>12345</PID.3>
//	  </PID>
//	</HL7Message>
func writeXML(w io.Writer, doc Document, _ Options) error {
	msg := doc.ParsedMessage

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "HL7Message"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "version"}, Value: msg.Version},
			{Name: xml.Name{Local: "messageType"}, Value: msg.MessageType},
			{Name: xml.Name{Local: "controlId"}, Value: msg.ControlID},
			{Name: xml.Name{Local: "exportedAt"}, Value: doc.ExportedAt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	if doc.RawMessage != "" {
		if err := enc.EncodeElement(doc.RawMessage, xml.StartElement{Name: xml.Name{Local: "RawMessage"}}); err != nil {
			return err
		}
	}

	for _, seg := range msg.Segments {
		start := xml.StartElement{Name: xml.Name{Local: xmlName(seg.Name)}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for i := 1; i < len(seg.Fields); i++ {
			if seg.Fields[i].Value == "" {
				continue
			}
			el := xml.StartElement{Name: xml.Name{Local: xmlName(fieldLabel(seg.Name, i))}}
			if err := enc.EncodeElement(seg.Fields[i].Value, el); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(start.End()); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// xmlName makes a segment-derived name usable as an element name. Segment
// codes such as "1AB" start with a digit, which XML does not allow.
func xmlName(s string) string {
	if s == "" {
		return "_"
	}
	if c := s[0]; c >= '0' && c <= '9' {
		return "_" + s
	}
	return s
}
