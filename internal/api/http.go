package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp := r.Handle(req.Context(), Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
	})
	resp.Write(w)
}

// Health returns GET /healthz: 200 when ping succeeds, 503 otherwise.
func Health(ping func(ctx context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonResp(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}
		if err := ping(r.Context()); err != nil {
			slog.Warn("health check failed", "err", err)
			jsonResp(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		jsonResp(w, http.StatusOK, healthResponse{Status: "ok"})
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
