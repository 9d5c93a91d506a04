package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/backend"
	"inferd/internal/cache"
	"inferd/internal/config"
	"inferd/internal/hostinfo"
	"inferd/internal/registry"
	"inferd/internal/router"
	"inferd/internal/sched"
	"inferd/internal/session"
	"inferd/pkg/types"
)

// newTestServer wires the full stack with a fake backend factory and a
// static host profile.
func newTestServer(t *testing.T, factory backend.Factory) (*httptest.Server, Deps) {
	t.Helper()
	reg, err := registry.New([]types.Backend{
		{ID: "small", Tier: types.TierLow, MemoryCostMB: 512, Class: types.ClassLocal, MaxPromptChars: 4096},
		{ID: "cloud", Tier: types.TierHigh, Class: types.ClassRemote, MaxPromptChars: 131072},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sampler := hostinfo.NewStatic(8192, 4096, 4)
	settings := config.Default()
	bc := cache.New(cache.Config{
		Registry: reg,
		Sampler:  sampler,
		TTL:      settings.CacheTTL(),
		BudgetMB: 8192,
		Logger:   zerolog.Nop(),
	})
	tracker := session.New()
	rt := router.New(router.Config{
		Registry: reg,
		Cache:    bc,
		Sampler:  sampler,
		Factory:  factory,
		Settings: &settings,
		Session:  tracker,
		Logger:   zerolog.Nop(),
	})
	sc := sched.New(sched.Config{
		Cache:       bc,
		Session:     tracker,
		Sampler:     sampler,
		Settings:    &settings,
		ReclaimHint: func() {},
		Logger:      zerolog.Nop(),
	})
	d := Deps{
		Router:    rt,
		Cache:     bc,
		Scheduler: sc,
		Session:   tracker,
		Registry:  reg,
		Sampler:   sampler,
		StartedAt: time.Now(),
		Logger:    zerolog.Nop(),
	}
	srv := httptest.NewServer(NewMux(d))
	t.Cleanup(srv.Close)
	return srv, d
}

func okFactory() backend.Factory {
	return backend.FactoryFunc(func(b types.Backend) backend.Invoker {
		return backend.InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "result from " + b.ID, nil
		})
	})
}

func failFactory() backend.Factory {
	return backend.FactoryFunc(func(b types.Backend) backend.Invoker {
		return backend.InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
			return "", backend.ErrUnavailable("down")
		})
	})
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestSubmitHappyPath(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	resp := postJSON(t, srv.URL+"/submit", `{"prompt":"hello"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var out types.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BackendUsed != "small" {
		t.Fatalf("backend: %s", out.BackendUsed)
	}
	if out.Result != "result from small" {
		t.Fatalf("result: %q", out.Result)
	}
}

func TestSubmitComplexityHint(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	// high-tier hint: the only local is low-tier, so the remote serves.
	resp := postJSON(t, srv.URL+"/submit", `{"prompt":"hello","complexity":"high"}`)
	defer resp.Body.Close()
	var out types.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BackendUsed != "cloud" {
		t.Fatalf("expected cloud for a high hint, got %s", out.BackendUsed)
	}
}

func TestSubmitRequiresJSONContentType(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	resp, err := http.Post(srv.URL+"/submit", "text/plain", strings.NewReader("prompt"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func TestSubmitRejectsMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	resp := postJSON(t, srv.URL+"/submit", `{"prompt":`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var e types.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Code != http.StatusBadRequest || e.Error == "" {
		t.Fatalf("error payload: %+v", e)
	}
}

func TestSubmitAllBackendsFailedIs502(t *testing.T) {
	srv, _ := newTestServer(t, failFactory())
	resp := postJSON(t, srv.URL+"/submit", `{"prompt":"hello"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var e types.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(e.Error, "all backends failed") {
		t.Fatalf("error: %q", e.Error)
	}
}

func TestStatusReportsStack(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	// One routed request warms the cache and bumps the session counter.
	resp := postJSON(t, srv.URL+"/submit", `{"prompt":"hello"}`)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var st types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(st.Entries) != 1 || st.Entries[0].BackendID != "small" {
		t.Fatalf("entries: %+v", st.Entries)
	}
	if st.CachedMB != 512 {
		t.Fatalf("cached_mb: %d", st.CachedMB)
	}
	if st.SchedulerPhase != string(sched.PhaseActive) {
		t.Fatalf("phase: %s", st.SchedulerPhase)
	}
	if st.TickIntervalSeconds <= 0 {
		t.Fatalf("tick interval: %d", st.TickIntervalSeconds)
	}
	if st.Messages != 1 {
		t.Fatalf("messages: %d", st.Messages)
	}
	if st.Memory == nil || st.Memory.TotalMB != 8192 {
		t.Fatalf("memory: %+v", st.Memory)
	}
}

func TestBackendsListsCatalog(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	resp, err := http.Get(srv.URL + "/backends")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out types.BackendsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Backends) != 2 {
		t.Fatalf("backends: %+v", out.Backends)
	}
}

func TestCacheClear(t *testing.T) {
	srv, d := newTestServer(t, okFactory())
	resp := postJSON(t, srv.URL+"/submit", `{"prompt":"hello"}`)
	resp.Body.Close()
	if d.Cache.UsedMB() == 0 {
		t.Fatalf("expected a warm entry before clearing")
	}

	resp = postJSON(t, srv.URL+"/cache/clear", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var out map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["cleared"] != 1 {
		t.Fatalf("cleared: %d", out["cleared"])
	}
	if d.Cache.UsedMB() != 0 {
		t.Fatalf("cache not emptied")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, okFactory())
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}
