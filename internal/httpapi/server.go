// Package httpapi exposes the routing core over HTTP: request submission,
// status reporting, catalog listing, cache control and metrics.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"inferd/internal/cache"
	"inferd/internal/hostinfo"
	"inferd/internal/registry"
	"inferd/internal/router"
	"inferd/internal/sched"
	"inferd/internal/session"
	"inferd/pkg/types"
)

// Deps carries the constructed core components the API serves.
type Deps struct {
	Router    *router.Router
	Cache     *cache.Cache
	Scheduler *sched.Scheduler
	Session   *session.Tracker
	Registry  *registry.Registry
	Sampler   hostinfo.Sampler
	StartedAt time.Time
	Logger    zerolog.Logger
}

// NewMux builds the HTTP handler.
func NewMux(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/submit", d.handleSubmit)
	r.Get("/status", d.handleStatus)
	r.Get("/backends", d.handleBackends)
	r.Post("/cache/clear", d.handleCacheClear)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func (d Deps) handleSubmit(w http.ResponseWriter, req *http.Request) {
	ct := req.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	var sr types.SubmitRequest
	if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// An omitted hint is derived from the prompt text; an empty prompt
	// still goes through selection like any other request.
	var tier types.Tier
	if sr.Complexity != "" {
		tier = types.ParseTier(sr.Complexity)
	} else {
		tier = router.AnalyzeComplexity(sr.Prompt)
	}

	start := time.Now()
	rid := middleware.GetReqID(req.Context())
	res, err := d.Router.Route(req.Context(), sr.Prompt, tier)
	if err != nil {
		if req.Context().Err() != nil {
			return
		}
		status := http.StatusInternalServerError
		if router.IsAllBackendsFailed(err) {
			status = http.StatusBadGateway
		}
		d.Logger.Info().Str("request_id", rid).Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("submit end")
		writeJSONError(w, status, err.Error())
		return
	}
	d.Logger.Info().Str("request_id", rid).Str("backend", res.BackendUsed).Dur("dur", time.Since(start)).Msg("submit end")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(types.SubmitResponse{
		Result:      res.Text,
		BackendUsed: res.BackendUsed,
		Truncated:   res.Truncated,
	}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func (d Deps) handleStatus(w http.ResponseWriter, req *http.Request) {
	now := time.Now()
	snap := d.Session.Snapshot()
	resp := types.StatusResponse{
		Entries:             d.Cache.Snapshot(),
		CachedMB:            d.Cache.UsedMB(),
		SchedulerPhase:      string(d.Scheduler.Phase()),
		TickIntervalSeconds: int64(d.Scheduler.Interval() / time.Second),
		Messages:            snap.Messages,
		FileUploads:         snap.FileUploads,
		SessionSeconds:      int64(now.Sub(snap.StartedAt) / time.Second),
		UptimeSeconds:       int64(now.Sub(d.StartedAt) / time.Second),
	}
	if profile, err := d.Sampler.Sample(); err == nil {
		resp.Memory = &profile
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func (d Deps) handleBackends(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(types.BackendsResponse{Backends: d.Registry.All()}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func (d Deps) handleCacheClear(w http.ResponseWriter, req *http.Request) {
	cleared := d.Cache.Clear()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"cleared": cleared})
}
