package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/export"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
	"github.com/hl7lens/hl7lens-go/pkg/log"
)

// AnalysisAPI handles the parse, diff and export endpoints.
type AnalysisAPI struct {
	parser      *hl7.Parser
	capture     log.Logger
	maxBodySize int64
	now         func() time.Time
}

// NewAnalysisAPI creates the analysis handlers. A nil capture disables
// event capture.
func NewAnalysisAPI(parser *hl7.Parser, capture log.Logger, maxBodySize int64) *AnalysisAPI {
	return &AnalysisAPI{
		parser:      parser,
		capture:     log.OrNoop(capture),
		maxBodySize: maxBodySize,
		now:         time.Now,
	}
}

// parse parses raw text received over HTTP and records the outcome.
func (a *AnalysisAPI) parse(req *http.Request, input, raw string) hl7.Result {
	start := time.Now()
	res := a.parser.Parse(hl7.Unframe([]byte(raw)))
	a.capture.Log(log.NewParseEvent(log.SourceWeb, input, len(raw), res, time.Since(start)).
		WithRequestID(RequestID(req.Context())))
	return res
}

func (a *AnalysisAPI) fail(w http.ResponseWriter, req *http.Request, input string, err error) {
	code := http.StatusBadRequest
	if _, ok := err.(*errBadRequest); !ok {
		code = http.StatusInternalServerError
	}
	a.capture.Log(log.NewErrorEvent(log.SourceWeb, input, err, code, req.URL.Path).
		WithRequestID(RequestID(req.Context())))
	writeRequestError(w, err)
}

// HandleParse handles POST /api/parse.
func (a *AnalysisAPI) HandleParse(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	obj, err := decodeObject(w, req, a.maxBodySize)
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	message, err := messageField(obj, "message")
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}

	res := a.parse(req, "request", message)
	writeJSONResponse(w, http.StatusOK, ParseResponse{
		ParsedMessage: res.Message,
		Errors:        nonNil(res.Diagnostics),
	})
}

// HandleDiff handles POST /api/diff. Either side may be empty or
// unparseable; it then compares as an absent message.
func (a *AnalysisAPI) HandleDiff(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	obj, err := decodeObject(w, req, a.maxBodySize)
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	rawA, err := optionalString(obj, "messageA")
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	rawB, err := optionalString(obj, "messageB")
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	if rawA == "" && rawB == "" {
		a.fail(w, req, "request", &errBadRequest{
			message: "At least one of messageA and messageB is required.",
		})
		return
	}

	var resA, resB hl7.Result
	if rawA != "" {
		resA = a.parse(req, "messageA", rawA)
	}
	if rawB != "" {
		resB = a.parse(req, "messageB", rawB)
	}

	start := time.Now()
	res := diff.Compare(resA.Message, resB.Message)
	a.capture.Log(log.NewDiffEvent(log.SourceWeb, resA.Message, resB.Message, res, time.Since(start)).
		WithRequestID(RequestID(req.Context())))

	writeJSONResponse(w, http.StatusOK, DiffResponse{
		Diff:    res,
		Summary: res.Summary(),
		ErrorsA: nonNil(resA.Diagnostics),
		ErrorsB: nonNil(resB.Diagnostics),
	})
}

// HandleExport handles POST /api/export. The rendered message is returned
// as an attachment named after the format.
func (a *AnalysisAPI) HandleExport(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	obj, err := decodeObject(w, req, a.maxBodySize)
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	message, err := messageField(obj, "message")
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	name, err := optionalString(obj, "format")
	if err != nil {
		a.fail(w, req, "request", err)
		return
	}
	if name == "" {
		name = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		a.fail(w, req, "request", &errBadRequest{message: "Unsupported export format.", details: err.Error()})
		return
	}
	includeRaw := true
	if raw, ok := obj["includeRaw"]; ok {
		switch string(raw) {
		case "true":
		case "false":
			includeRaw = false
		default:
			a.fail(w, req, "request", &errBadRequest{message: "includeRaw must be a boolean."})
			return
		}
	}

	res := a.parse(req, "request", message)
	if res.Message == nil {
		writeJSONResponse(w, http.StatusUnprocessableEntity, ParseResponse{
			Errors: nonNil(res.Diagnostics),
		})
		return
	}

	now := a.now()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(format, now)))
	err = export.Write(w, format, res.Message, export.Options{
		IncludeRaw: includeRaw,
		Raw:        strings.TrimRight(hl7.Unframe([]byte(message)), "\n"),
		Now:        func() time.Time { return now },
	})
	if err != nil {
		// Headers are gone once the body started; record the failure only.
		a.capture.Log(log.NewErrorEvent(log.SourceWeb, "request", err, http.StatusInternalServerError, req.URL.Path).
			WithRequestID(RequestID(req.Context())))
	}
}
