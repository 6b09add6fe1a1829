package lambdaproxy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/liveglobe/liveglobe/internal/api"
	"github.com/liveglobe/liveglobe/internal/lambdaproxy"
	"github.com/liveglobe/liveglobe/internal/warehouse/warehousetest"
)

// --- helpers ----------------------------------------------------------------

type recorder struct {
	got api.Request
}

func (r *recorder) Handle(_ context.Context, req api.Request) api.Response {
	r.got = req
	return api.Response{
		StatusCode: http.StatusTeapot,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"ok":true}`,
	}
}

func invoke(t *testing.T, h *lambdaproxy.Handler, event string) any {
	t.Helper()
	out, err := h.Invoke(context.Background(), json.RawMessage(event))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	return out
}

// --- payload 1.0 ------------------------------------------------------------

func TestInvoke_V1(t *testing.T) {
	rec := &recorder{}
	out := invoke(t, lambdaproxy.New(rec), `{
		"httpMethod": "GET",
		"path": "/sales/recent",
		"queryStringParameters": {"limit": "5"},
		"multiValueQueryStringParameters": {"limit": ["5"]}
	}`)

	resp, ok := out.(events.APIGatewayProxyResponse)
	if !ok {
		t.Fatalf("response type: got %T", out)
	}
	if resp.StatusCode != http.StatusTeapot || resp.Body != `{"ok":true}` {
		t.Errorf("response: got %+v", resp)
	}
	if rec.got.Method != "GET" || rec.got.Path != "/sales/recent" || rec.got.Query.Get("limit") != "5" {
		t.Errorf("request: got %+v", rec.got)
	}
}

func TestHandleV1_SingleValueQueryOnly(t *testing.T) {
	rec := &recorder{}
	_, err := lambdaproxy.New(rec).HandleV1(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            "GET",
		Path:                  "/sales/recent",
		QueryStringParameters: map[string]string{"limit": "9"},
	})
	if err != nil {
		t.Fatalf("HandleV1: %v", err)
	}
	if rec.got.Query.Get("limit") != "9" {
		t.Errorf("limit: got %q, want 9", rec.got.Query.Get("limit"))
	}
}

func TestInvoke_V1_MissingPathIsRoot(t *testing.T) {
	rec := &recorder{}
	invoke(t, lambdaproxy.New(rec), `{"httpMethod": "GET"}`)
	if rec.got.Path != "/" {
		t.Errorf("path: got %q, want /", rec.got.Path)
	}
}

// --- payload 2.0 ------------------------------------------------------------

func TestInvoke_V2(t *testing.T) {
	rec := &recorder{}
	out := invoke(t, lambdaproxy.New(rec), `{
		"version": "2.0",
		"rawPath": "/regions/s%C3%A3o",
		"rawQueryString": "a=1&b=2",
		"requestContext": {"http": {"method": "OPTIONS"}}
	}`)

	resp, ok := out.(events.APIGatewayV2HTTPResponse)
	if !ok {
		t.Fatalf("response type: got %T", out)
	}
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status: got %d", resp.StatusCode)
	}
	if rec.got.Method != "OPTIONS" || rec.got.Path != "/regions/são" {
		t.Errorf("request: got %+v", rec.got)
	}
	if rec.got.Query.Get("a") != "1" || rec.got.Query.Get("b") != "2" {
		t.Errorf("query: got %v", rec.got.Query)
	}
}

func TestHandleV2_FallsBackToParsedQuery(t *testing.T) {
	rec := &recorder{}
	e := events.APIGatewayV2HTTPRequest{
		RawPath:               "/sales/recent",
		QueryStringParameters: map[string]string{"limit": "3"},
	}
	e.RequestContext.HTTP.Method = "GET"
	if _, err := lambdaproxy.New(rec).HandleV2(context.Background(), e); err != nil {
		t.Fatalf("HandleV2: %v", err)
	}
	if rec.got.Query.Get("limit") != "3" {
		t.Errorf("limit: got %q, want 3", rec.got.Query.Get("limit"))
	}
}

func TestInvoke_MalformedEvent(t *testing.T) {
	rec := &recorder{}
	out := invoke(t, lambdaproxy.New(rec), `[1,2`)

	resp, ok := out.(events.APIGatewayProxyResponse)
	if !ok {
		t.Fatalf("response type: got %T", out)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("content type: got %q", resp.Headers["Content-Type"])
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("body %q: %v", resp.Body, err)
	}
	if body["error"] != "Internal server error" || body["message"] == "" {
		t.Errorf("body: got %v", body)
	}
	if rec.got.Method != "" {
		t.Errorf("dispatcher called with %+v", rec.got)
	}
}

func TestInvoke_MalformedV2EventUsesRouterOrigin(t *testing.T) {
	h := lambdaproxy.New(api.New(warehousetest.New(t), api.WithAllowedOrigin("https://dash.example.com")))

	out := invoke(t, h, `{"version": "2.0", "rawPath": "/stats", "requestContext": 7}`)
	resp, ok := out.(events.APIGatewayProxyResponse)
	if !ok {
		t.Fatalf("response type: got %T", out)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "https://dash.example.com" {
		t.Errorf("origin header: got %q", resp.Headers["Access-Control-Allow-Origin"])
	}
}

// --- end to end -------------------------------------------------------------

func TestInvoke_ThroughRouter(t *testing.T) {
	h := lambdaproxy.New(api.New(warehousetest.New(t), api.WithAllowedOrigin("https://dash.example.com")))

	out := invoke(t, h, `{"httpMethod": "GET", "path": "/nowhere"}`)
	resp := out.(events.APIGatewayProxyResponse)
	if resp.StatusCode != http.StatusNotFound || resp.Body != `{"error":"Not found"}` {
		t.Errorf("404: got %d %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "https://dash.example.com" {
		t.Errorf("origin header: got %q", resp.Headers["Access-Control-Allow-Origin"])
	}

	out = invoke(t, h, `{"version": "2.0", "rawPath": "/stats", "requestContext": {"http": {"method": "GET"}}}`)
	v2 := out.(events.APIGatewayV2HTTPResponse)
	if v2.StatusCode != http.StatusOK {
		t.Fatalf("stats: got %d %s", v2.StatusCode, v2.Body)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(v2.Body), &body); err != nil {
		t.Fatalf("stats body: %v", err)
	}
	for _, k := range []string{"aggregated", "byRegion", "byChannel", "solutions", "timestamp"} {
		if _, ok := body[k]; !ok {
			t.Errorf("stats body missing %q", k)
		}
	}
}
