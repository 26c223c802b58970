package api

import (
	"net/http"
)

// RouterConfig carries the handlers and middleware mounted by NewRouter.
type RouterConfig struct {
	Search  *SearchHandlers
	Health  *HealthHandlers
	Metrics http.Handler // optional; /metrics is not mounted when nil

	// Verifier authenticates search requests. Probes and scrapes bypass it.
	Verifier TokenVerifier
}

// NewRouter mounts the API routes. Unknown paths get the JSON not_found
// envelope and a wrong method gets method_not_allowed.
func NewRouter(cfg RouterConfig) http.Handler {
	authn := Authenticate(cfg.Verifier)

	mux := http.NewServeMux()
	mux.Handle("GET /search/rooms", authn(http.HandlerFunc(cfg.Search.SearchRooms)))
	mux.Handle("GET /search/rooms/count", authn(http.HandlerFunc(cfg.Search.CountRooms)))
	mux.Handle("GET /rooms/{id}", authn(http.HandlerFunc(cfg.Search.GetRoom)))
	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		if pattern == "" {
			writeUnrouted(w, r, mux)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// writeUnrouted replaces the plain-text 404/405 bodies of ServeMux with the
// error envelope. ServeMux.Handler reports a 405 through the handler it
// returns, so the status is recovered by probing it.
func writeUnrouted(w http.ResponseWriter, r *http.Request, mux *http.ServeMux) {
	h, _ := mux.Handler(r)
	probe := &statusProbe{header: http.Header{}}
	h.ServeHTTP(probe, r)

	if probe.status == http.StatusMethodNotAllowed {
		if allow := probe.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}
	WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Resource not found")
}

// statusProbe is a ResponseWriter that discards the body.
type statusProbe struct {
	header http.Header
	status int
}

func (p *statusProbe) Header() http.Header { return p.header }

func (p *statusProbe) WriteHeader(code int) {
	if p.status == 0 {
		p.status = code
	}
}

func (p *statusProbe) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return len(b), nil
}
