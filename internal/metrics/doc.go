// Package metrics exposes Prometheus collectors for the liveglobe server.
//
// New() builds a private registry holding:
//
//	liveglobe_requests_total{route,status}          counter
//	liveglobe_request_duration_seconds{route}       histogram
//	liveglobe_warehouse_queries_total{outcome}      counter, outcome = ok|error
//	liveglobe_warehouse_query_duration_seconds      histogram
//	liveglobe_ws_clients                            gauge, after TrackClients
//
// plus the standard Go runtime and process collectors.
//
// *Metrics is passed to api.WithObserver for request metrics and to
// warehouse.WithHooks for query metrics. Handler() serves GET /metrics.
package metrics
