// Package api implements the request router for the liveglobe sales API.
//
// New(querier) returns a Router that serves:
//
//	OPTIONS *                preflight, {"message":"OK"}, never queries
//	GET /, GET /stats        aggregated, byRegion, byChannel, solutions, timestamp
//	GET /sales/recent?limit  newest sales, limit clamped to [1, 100], default 20
//	GET /regions/{code}      top 10 cities of one region; code is uppercased
//
// Everything else, including non-GET methods, is 404 {"error":"Not found"}.
// Trailing slashes are ignored.
//
// Router.Handle is transport neutral and is shared by the HTTP server
// (Router.ServeHTTP) and the Lambda adapter. Every response carries the CORS
// headers from Formatter. Errors and panics raised while answering a request
// are caught once, logged with the route, and turned into
// 500 {"error":"Internal server error","message":...}; no partial payload is
// ever returned. Composite routes run their queries sequentially.
//
// Health serves the /healthz check used by the long-running server.
package api
