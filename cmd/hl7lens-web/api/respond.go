package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error messages shared by the analysis endpoints.
const (
	msgMessageRequired  = "HL7 message is required and must be a string."
	msgInvalidJSON      = "Invalid JSON in request body."
	msgBodyTooLarge     = "Request body too large."
	msgMethodNotAllowed = "Method not allowed"
)

type requestIDKey struct{}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// errBadRequest marks a client error; its text is the response message.
type errBadRequest struct {
	message string
	details string
}

func (e *errBadRequest) Error() string { return e.message }

// decodeObject reads a JSON object of at most limit bytes.
func decodeObject(w http.ResponseWriter, r *http.Request, limit int64) (map[string]json.RawMessage, error) {
	body := http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &errBadRequest{message: msgBodyTooLarge, details: fmt.Sprintf("limit is %d bytes", limit)}
		}
		return nil, &errBadRequest{message: msgInvalidJSON, details: err.Error()}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &errBadRequest{message: msgInvalidJSON, details: err.Error()}
	}
	if obj == nil {
		return nil, &errBadRequest{message: msgInvalidJSON, details: "body must be a JSON object"}
	}
	return obj, nil
}

// messageField extracts a non-empty string member of obj.
func messageField(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", &errBadRequest{message: msgMessageRequired, details: fmt.Sprintf("%q is missing", key)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &errBadRequest{message: msgMessageRequired, details: fmt.Sprintf("%q is not a string", key)}
	}
	if s == "" {
		return "", &errBadRequest{message: msgMessageRequired, details: fmt.Sprintf("%q is empty", key)}
	}
	return s, nil
}

// optionalString extracts a string member of obj; absent and null give "".
func optionalString(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &errBadRequest{message: fmt.Sprintf("%s must be a string.", key)}
	}
	return s, nil
}

// writeRequestError writes a 400 for client errors and a 500 otherwise.
func writeRequestError(w http.ResponseWriter, err error) {
	var bad *errBadRequest
	if errors.As(err, &bad) {
		writeJSONError(w, http.StatusBadRequest, bad.message, bad.details)
		return
	}
	writeJSONError(w, http.StatusInternalServerError, "Internal server error", err.Error())
}

// writeJSONResponse writes a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSONResponse(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// WriteJSONError is writeJSONError for the server's middleware.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSONError(w, status, message, details)
}

// MethodNotAllowed writes a 405 naming the allowed method.
func MethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSONError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed, "use "+allowed)
}
