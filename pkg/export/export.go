// Package export renders a parsed HL7 message in the formats offered for
// download: JSON, YAML, CBOR and MessagePack documents, CSV and XML field
// listings, and plain text.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

// Format names an export format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatCBOR    Format = "cbor"
	FormatMsgpack Format = "msgpack"
	FormatCSV     Format = "csv"
	FormatXML     Format = "xml"
	FormatText    Format = "txt"
)

type formatInfo struct {
	ext         string
	contentType string
	write       func(w io.Writer, doc Document, opts Options) error
}

var formats = map[Format]formatInfo{
	FormatJSON:    {"json", "application/json", writeJSON},
	FormatYAML:    {"yaml", "application/yaml", writeYAML},
	FormatCBOR:    {"cbor", "application/cbor", writeCBOR},
	FormatMsgpack: {"msgpack", "application/msgpack", writeMsgpack},
	FormatCSV:     {"csv", "text/csv", writeCSV},
	FormatXML:     {"xml", "application/xml", writeXML},
	FormatText:    {"txt", "text/plain", writeText},
}

// Formats returns every supported format, sorted by name.
func Formats() []Format {
	out := make([]Format, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseFormat validates a format name. "text" is accepted for txt.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "text" {
		f = FormatText
	}
	if _, ok := formats[f]; !ok {
		return "", fmt.Errorf("unknown export format %q (supported: %s)", s, joinFormats())
	}
	return f, nil
}

func joinFormats() string {
	names := make([]string, 0, len(formats))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	return formats[f].ext
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	return formats[f].contentType
}

// Filename returns the default download name for an export created at t.
func Filename(f Format, t time.Time) string {
	return fmt.Sprintf("hl7-message-%d.%s", t.UnixMilli(), f.Extension())
}

// Options controls what an export contains.
type Options struct {
	// IncludeRaw adds the raw message text to document formats and makes
	// the text format emit Raw verbatim.
	IncludeRaw bool

	// Raw is the message text as submitted.
	Raw string

	// Now returns the export timestamp. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Document is the envelope written by the document formats.
type Document struct {
	RawMessage    string       `json:"rawMessage,omitempty" yaml:"rawMessage,omitempty" msgpack:"rawMessage,omitempty"`
	ParsedMessage *hl7.Message `json:"parsedMessage" yaml:"parsedMessage" msgpack:"parsedMessage"`
	ExportedAt    string       `json:"exportedAt" yaml:"exportedAt" msgpack:"exportedAt"`
}

// NewDocument builds the export envelope for msg.
func NewDocument(msg *hl7.Message, opts Options) Document {
	doc := Document{
		ParsedMessage: msg,
		ExportedAt:    opts.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if opts.IncludeRaw {
		doc.RawMessage = opts.Raw
	}
	return doc
}

// Write renders msg to w in format f.
func Write(w io.Writer, f Format, msg *hl7.Message, opts Options) error {
	info, ok := formats[f]
	if !ok {
		return fmt.Errorf("unknown export format %q (supported: %s)", f, joinFormats())
	}
	if msg == nil {
		return fmt.Errorf("no parsed message to export")
	}
	if err := info.write(w, NewDocument(msg, opts), opts); err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	return nil
}

func writeJSON(w io.Writer, doc Document, _ Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeYAML(w io.Writer, doc Document, _ Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// exportEncMode writes deterministic CBOR; struct keys come from the json
// tags of the message types.
var exportEncMode = func() cbor.EncMode {
	mode, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create export CBOR encoder mode: %v", err))
	}
	return mode
}()

func writeCBOR(w io.Writer, doc Document, _ Options) error {
	return exportEncMode.NewEncoder(w).Encode(doc)
}

func writeMsgpack(w io.Writer, doc Document, _ Options) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return enc.Encode(doc)
}
