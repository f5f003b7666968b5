// Package api provides HTTP API handlers for the hl7lens web adapter.
package api

import (
	"github.com/hl7lens/hl7lens-go/pkg/definitions"
	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

// ParseResponse is the response for POST /api/parse.
type ParseResponse struct {
	ParsedMessage *hl7.Message     `json:"parsedMessage"`
	Errors        []hl7.Diagnostic `json:"errors"`
}

// DiffResponse is the response for POST /api/diff.
type DiffResponse struct {
	Diff    diff.Result      `json:"diff"`
	Summary diff.Summary     `json:"summary"`
	ErrorsA []hl7.Diagnostic `json:"errorsA"`
	ErrorsB []hl7.Diagnostic `json:"errorsB"`
}

// VersionInfo describes one definition version.
type VersionInfo struct {
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Segments    []string `json:"segments"`
}

// DefinitionsResponse is the response for GET /api/v1/definitions.
type DefinitionsResponse struct {
	Versions []VersionInfo `json:"versions"`
	Default  string        `json:"default"`
}

// SegmentResponse is the response for
// GET /api/v1/definitions/{version}/{segment}.
type SegmentResponse struct {
	Segment         string                         `json:"segment"`
	Version         string                         `json:"version"`
	ResolvedVersion string                         `json:"resolvedVersion"`
	Definition      *definitions.SegmentDefinition `json:"definition"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func nonNil(d []hl7.Diagnostic) []hl7.Diagnostic {
	if d == nil {
		return []hl7.Diagnostic{}
	}
	return d
}
