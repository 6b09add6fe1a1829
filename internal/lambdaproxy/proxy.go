package lambdaproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/liveglobe/liveglobe/internal/api"
)

// Dispatcher answers one transport-neutral request. *api.Router implements it.
type Dispatcher interface {
	Handle(ctx context.Context, req api.Request) api.Response
}

// Handler adapts API Gateway proxy events to a Dispatcher.
type Handler struct {
	d      Dispatcher
	format *api.Formatter
}

// New returns a Handler dispatching to d. Events that cannot be decoded are
// answered with d's Formatter when it exposes one, so they carry the same
// CORS headers as routed responses.
func New(d Dispatcher) *Handler {
	h := &Handler{d: d}
	if fd, ok := d.(interface{ Formatter() *api.Formatter }); ok {
		h.format = fd.Formatter()
	}
	if h.format == nil {
		h.format = api.NewFormatter("")
	}
	return h
}

// eventShape holds just enough of an event to tell the payload versions apart.
type eventShape struct {
	Version string `json:"version"`
	RawPath string `json:"rawPath"`
}

// Invoke accepts either a REST API (payload 1.0) or an HTTP API (payload 2.0)
// event and answers in the matching response shape. It is the function
// registered with lambda.Start. It never returns an error: an undecodable
// event is answered with a payload 1.0 500 envelope.
func (h *Handler) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var p eventShape
	if err := json.Unmarshal(raw, &p); err != nil {
		return h.decodeFailure(fmt.Errorf("decode event: %w", err)), nil
	}

	if p.Version == "2.0" || p.RawPath != "" {
		var e events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(raw, &e); err != nil {
			return h.decodeFailure(fmt.Errorf("decode v2 event: %w", err)), nil
		}
		return h.HandleV2(ctx, e)
	}

	var e events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &e); err != nil {
		return h.decodeFailure(fmt.Errorf("decode v1 event: %w", err)), nil
	}
	return h.HandleV1(ctx, e)
}

func (h *Handler) decodeFailure(err error) events.APIGatewayProxyResponse {
	slog.Error("lambdaproxy: rejecting event", "err", err)
	resp := h.format.Failure(err)
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

// HandleV1 answers a REST API proxy event.
func (h *Handler) HandleV1(ctx context.Context, e events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	query := url.Values{}
	for k, vs := range e.MultiValueQueryStringParameters {
		query[k] = append([]string(nil), vs...)
	}
	for k, v := range e.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	resp := h.d.Handle(ctx, api.Request{
		Method: e.HTTPMethod,
		Path:   defaultPath(e.Path),
		Query:  query,
	})
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// HandleV2 answers an HTTP API event.
func (h *Handler) HandleV2(ctx context.Context, e events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	query, err := url.ParseQuery(e.RawQueryString)
	if err != nil || len(query) == 0 {
		query = url.Values{}
		for k, v := range e.QueryStringParameters {
			query.Set(k, v)
		}
	}

	path := e.RawPath
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	resp := h.d.Handle(ctx, api.Request{
		Method: e.RequestContext.HTTP.Method,
		Path:   defaultPath(path),
		Query:  query,
	})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// An event without a path addresses the stats root.
func defaultPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
