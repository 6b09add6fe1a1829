package api

import (
	"net/url"

	"github.com/liveglobe/liveglobe/internal/catalog"
)

// Request is a transport-neutral inbound call. Path is already URL-decoded.
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

// Response is the envelope returned for every request. Body is always
// valid JSON.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// StatsResponse is the payload for GET / and GET /stats.
type StatsResponse struct {
	Aggregated catalog.Totals         `json:"aggregated"`
	ByRegion   []catalog.RegionStats  `json:"byRegion"`
	ByChannel  []catalog.ChannelStats `json:"byChannel"`
	Solutions  catalog.Solutions      `json:"solutions"`
	Timestamp  string                 `json:"timestamp"` // RFC3339, UTC
}

// RecentSalesResponse is the payload for GET /sales/recent.
type RecentSalesResponse struct {
	Sales     []catalog.Sale `json:"sales"`
	Timestamp string         `json:"timestamp"` // RFC3339, UTC
}

// RegionResponse is the payload for GET /regions/{code}.
type RegionResponse struct {
	Region string              `json:"region"`
	Cities []catalog.CityStats `json:"cities"`
}

// messageResponse is the preflight body.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the not-found body.
type errorResponse struct {
	Error string `json:"error"`
}

// failureResponse is the internal error body.
type failureResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
