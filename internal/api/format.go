package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/liveglobe/liveglobe/internal/config"
)

// fallbackBody is served when even the error payload cannot be encoded.
const fallbackBody = `{"error":"Internal server error","message":"response serialization failed"}`

// Formatter wraps payloads in the response envelope with CORS headers.
// The allowed origin may be swapped at runtime.
type Formatter struct {
	origin atomic.Pointer[string]
}

// NewFormatter returns a Formatter answering with origin; empty means
// config.DefaultAllowedOrigin.
func NewFormatter(origin string) *Formatter {
	f := &Formatter{}
	f.SetAllowedOrigin(origin)
	return f
}

// SetAllowedOrigin replaces the Access-Control-Allow-Origin value.
func (f *Formatter) SetAllowedOrigin(origin string) {
	if origin == "" {
		origin = config.DefaultAllowedOrigin
	}
	f.origin.Store(&origin)
}

// AllowedOrigin returns the current Access-Control-Allow-Origin value.
func (f *Formatter) AllowedOrigin() string {
	return *f.origin.Load()
}

// Headers returns a fresh header set for one response.
func (f *Formatter) Headers() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  f.AllowedOrigin(),
		"Access-Control-Allow-Methods": "GET, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
		"Content-Type":                 "application/json",
	}
}

// Encode renders v as the JSON body of a status response. Values that
// cannot be encoded yield an error matching ErrSerialization.
func (f *Formatter) Encode(status int, v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return Response{StatusCode: status, Headers: f.Headers(), Body: string(body)}, nil
}

// mustEncode is Encode for payloads made only of strings. It falls back to
// a fixed 500 body rather than return a broken envelope.
func (f *Formatter) mustEncode(status int, v any) Response {
	resp, err := f.Encode(status, v)
	if err != nil {
		return Response{StatusCode: http.StatusInternalServerError, Headers: f.Headers(), Body: fallbackBody}
	}
	return resp
}

// Failure renders err as the 500 {"error","message"} envelope.
func (f *Formatter) Failure(err error) Response {
	return f.mustEncode(http.StatusInternalServerError, failureResponse{
		Error:   "Internal server error",
		Message: err.Error(),
	})
}

// Write copies the envelope onto w.
func (resp Response) Write(w http.ResponseWriter) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body) //nolint:errcheck
}
