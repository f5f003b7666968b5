package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hl7lens/hl7lens-go/pkg/definitions"
)

// DefinitionsAPI serves the segment and field definitions of a registry.
type DefinitionsAPI struct {
	registry *definitions.Registry
}

// NewDefinitionsAPI creates a definitions API handler.
func NewDefinitionsAPI(registry *definitions.Registry) *DefinitionsAPI {
	return &DefinitionsAPI{registry: registry}
}

// HandleList handles GET /api/v1/definitions.
func (d *DefinitionsAPI) HandleList(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	resp := DefinitionsResponse{
		Versions: []VersionInfo{},
		Default:  d.registry.Baseline(),
	}
	for _, v := range d.registry.Versions() {
		resp.Versions = append(resp.Versions, VersionInfo{
			Version:     v,
			Description: d.registry.Description(v),
			Segments:    d.registry.Segments(v),
		})
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// HandleSegment handles GET /api/v1/definitions/{version}/{segment}. The
// version falls back to the baseline like the parser does.
func (d *DefinitionsAPI) HandleSegment(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	version := req.PathValue("version")
	segment := strings.ToUpper(req.PathValue("segment"))

	sd := d.registry.SegmentDefinition(segment, version)
	if sd == nil {
		writeJSONError(w, http.StatusNotFound, "Segment not defined", segment)
		return
	}
	writeJSONResponse(w, http.StatusOK, SegmentResponse{
		Segment:         segment,
		Version:         version,
		ResolvedVersion: d.registry.ResolvedVersion(segment, version),
		Definition:      sd,
	})
}

// HandleField handles GET /api/v1/definitions/{version}/{segment}/{field}.
func (d *DefinitionsAPI) HandleField(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	version := req.PathValue("version")
	segment := strings.ToUpper(req.PathValue("segment"))
	index, err := strconv.Atoi(req.PathValue("field"))
	if err != nil || index < 0 {
		writeJSONError(w, http.StatusBadRequest, "Invalid field index", req.PathValue("field"))
		return
	}

	fd := d.registry.FieldDefinition(segment, index, version)
	if fd == nil {
		writeJSONError(w, http.StatusNotFound, "Field not defined", segment+"-"+strconv.Itoa(index))
		return
	}
	writeJSONResponse(w, http.StatusOK, fd)
}
