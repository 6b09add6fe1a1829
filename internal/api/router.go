package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/liveglobe/liveglobe/internal/catalog"
)

// Route names, used in logs and as the metrics route label.
const (
	RoutePreflight   = "preflight"
	RouteStats       = "stats"
	RouteRecentSales = "sales_recent"
	RouteRegion      = "region"
	RouteNotFound    = "not_found"
)

// Observer is told about every handled request.
type Observer interface {
	ObserveRequest(route string, status int, d time.Duration)
}

// Option customises a Router.
type Option func(*Router)

// WithAllowedOrigin sets the initial Access-Control-Allow-Origin value.
func WithAllowedOrigin(origin string) Option {
	return func(r *Router) { r.format.SetAllowedOrigin(origin) }
}

// WithClock replaces time.Now for the query window and response timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// Router maps requests onto catalog queries. It holds no per-request state
// and is safe for concurrent use.
type Router struct {
	q        catalog.Querier
	format   *Formatter
	now      func() time.Time
	observer Observer
}

// New returns a Router querying q.
func New(q catalog.Querier, opts ...Option) *Router {
	r := &Router{
		q:      q,
		format: NewFormatter(""),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Formatter returns the router's response formatter.
func (r *Router) Formatter() *Formatter { return r.format }

// SetAllowedOrigin swaps the CORS origin for subsequent responses.
func (r *Router) SetAllowedOrigin(origin string) { r.format.SetAllowedOrigin(origin) }

// match resolves a request to a route name and, for RouteRegion, the
// normalised region code.
func match(req Request) (route, region string) {
	if req.Method == http.MethodOptions {
		return RoutePreflight, ""
	}
	if req.Method != http.MethodGet {
		return RouteNotFound, ""
	}

	path := strings.TrimRight(req.Path, "/")
	switch {
	case path == "" || path == "/stats":
		return RouteStats, ""
	case path == "/sales/recent":
		return RouteRecentSales, ""
	case strings.HasPrefix(path, "/regions/"):
		code := strings.TrimPrefix(path, "/regions/")
		if strings.Contains(code, "/") {
			return RouteNotFound, ""
		}
		if code = catalog.NormalizeRegion(code); code == "" {
			return RouteNotFound, ""
		}
		return RouteRegion, code
	}
	return RouteNotFound, ""
}

// Handle answers one request. It never panics and always returns a complete
// envelope with status 200, 404 or 500.
func (r *Router) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	route, region := match(req)

	defer func() {
		if p := recover(); p != nil {
			resp = r.fail(route, req, fmt.Errorf("panic: %v", p))
		}
		if r.observer != nil {
			r.observer.ObserveRequest(route, resp.StatusCode, time.Since(start))
		}
	}()

	if route == RoutePreflight {
		return r.format.mustEncode(http.StatusOK, messageResponse{Message: "OK"})
	}

	slog.Info("request", "method", req.Method, "path", req.Path, "route", route)

	payload, err := r.serve(ctx, route, region, req)
	if err == nil {
		resp, err = r.format.Encode(http.StatusOK, payload)
	}
	switch {
	case err == nil:
		return resp
	case errors.Is(err, ErrNotFound):
		return r.format.mustEncode(http.StatusNotFound, errorResponse{Error: "Not found"})
	default:
		return r.fail(route, req, err)
	}
}

func (r *Router) serve(ctx context.Context, route, region string, req Request) (any, error) {
	switch route {
	case RouteStats:
		return r.Stats(ctx)
	case RouteRecentSales:
		return r.recentSales(ctx, req.Query.Get("limit"))
	case RouteRegion:
		return r.region(ctx, region)
	default:
		return nil, ErrNotFound
	}
}

// fail is the single place a request turns into a 500.
func (r *Router) fail(route string, req Request, err error) Response {
	slog.Error("request failed",
		"route", route,
		"method", req.Method,
		"path", req.Path,
		"err", err,
	)
	return r.format.Failure(err)
}

// Stats runs the four dashboard queries one after another and merges them.
// Any failure fails the whole payload.
func (r *Router) Stats(ctx context.Context) (StatsResponse, error) {
	now := r.now()
	since := catalog.Since(now)

	agg, err := catalog.Aggregated(ctx, r.q, since)
	if err != nil {
		return StatsResponse{}, err
	}
	regions, err := catalog.ByRegion(ctx, r.q, since)
	if err != nil {
		return StatsResponse{}, err
	}
	channels, err := catalog.ByChannel(ctx, r.q, since)
	if err != nil {
		return StatsResponse{}, err
	}
	solutions, err := catalog.SolutionAdoption(ctx, r.q, since)
	if err != nil {
		return StatsResponse{}, err
	}

	return StatsResponse{
		Aggregated: agg,
		ByRegion:   regions,
		ByChannel:  channels,
		Solutions:  solutions,
		Timestamp:  stamp(now),
	}, nil
}

func (r *Router) recentSales(ctx context.Context, rawLimit string) (RecentSalesResponse, error) {
	sales, err := catalog.RecentSales(ctx, r.q, catalog.ClampLimit(rawLimit))
	if err != nil {
		return RecentSalesResponse{}, err
	}
	return RecentSalesResponse{Sales: sales, Timestamp: stamp(r.now())}, nil
}

func (r *Router) region(ctx context.Context, code string) (RegionResponse, error) {
	cities, err := catalog.RegionCities(ctx, r.q, code, catalog.Since(r.now()))
	if err != nil {
		return RegionResponse{}, err
	}
	return RegionResponse{Region: code, Cities: cities}, nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
