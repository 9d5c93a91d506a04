package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/backend"
	"inferd/internal/cache"
	"inferd/internal/config"
	"inferd/internal/hostinfo"
	"inferd/internal/registry"
	"inferd/internal/session"
	"inferd/pkg/types"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]types.Backend{
		{ID: "small", Tier: types.TierLow, MemoryCostMB: 512, Class: types.ClassLocal, MaxPromptChars: 4096},
		{ID: "mid", Tier: types.TierMedium, MemoryCostMB: 2048, Class: types.ClassLocal, MaxPromptChars: 8192},
		{ID: "big", Tier: types.TierHigh, MemoryCostMB: 4096, Class: types.ClassLocal, MaxPromptChars: 16384},
		{ID: "cloud", Tier: types.TierHigh, Class: types.ClassRemote, MaxPromptChars: 131072},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

// fakeFactory routes invocations to per-backend functions; unlisted backends
// echo the prompt.
type fakeFactory map[string]backend.InvokerFunc

func (f fakeFactory) For(b types.Backend) backend.Invoker {
	if fn, ok := f[b.ID]; ok {
		return fn
	}
	return backend.InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
		return "echo:" + prompt, nil
	})
}

func testRouter(t *testing.T, sampler hostinfo.Sampler, factory backend.Factory) *Router {
	t.Helper()
	s := config.Default()
	reg := testRegistry(t)
	c := cache.New(cache.Config{
		Registry: reg,
		Sampler:  sampler,
		TTL:      600 * time.Second,
		BudgetMB: 16384,
		Logger:   zerolog.Nop(),
	})
	return New(Config{
		Registry: reg,
		Cache:    c,
		Sampler:  sampler,
		Factory:  factory,
		Settings: &s,
		Session:  session.New(),
		Logger:   zerolog.Nop(),
	})
}

func TestRoutePicksCheapestViableLocal(t *testing.T) {
	// 1000MB available fits only the 512MB backend.
	sampler := hostinfo.NewStatic(8192, 1000, 4)
	r := testRouter(t, sampler, fakeFactory{})

	res, err := r.Route(context.Background(), "hello", types.TierLow)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.BackendUsed != "small" {
		t.Fatalf("expected small, got %s", res.BackendUsed)
	}
	if res.Text != "echo:hello" {
		t.Fatalf("unexpected result: %q", res.Text)
	}
}

func TestRouteHonorsTierHint(t *testing.T) {
	sampler := hostinfo.NewStatic(16384, 16000, 4)
	r := testRouter(t, sampler, fakeFactory{})

	res, err := r.Route(context.Background(), "hello", types.TierHigh)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	// Only the high-tier local and the remote qualify; the local is cheaper.
	if res.BackendUsed != "big" {
		t.Fatalf("expected big, got %s", res.BackendUsed)
	}
}

func TestRouteFallsBackToRemoteUnderPressure(t *testing.T) {
	// 100MB available: no local backend fits, the remote serves.
	sampler := hostinfo.NewStatic(8192, 100, 4)
	r := testRouter(t, sampler, fakeFactory{})

	res, err := r.Route(context.Background(), "hello", types.TierLow)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.BackendUsed != "cloud" {
		t.Fatalf("expected cloud, got %s", res.BackendUsed)
	}
}

func TestRouteFallsBackToRemoteWhenMetricsUnavailable(t *testing.T) {
	sampler := hostinfo.NewStatic(8192, 8192, 4)
	sampler.SetFailing(true)
	r := testRouter(t, sampler, fakeFactory{})

	res, err := r.Route(context.Background(), "hello", types.TierLow)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.BackendUsed != "cloud" {
		t.Fatalf("expected cloud when the host cannot be sampled, got %s", res.BackendUsed)
	}
}

func TestRouteAdvancesChainOnInvokeFailure(t *testing.T) {
	sampler := hostinfo.NewStatic(16384, 16000, 4)
	factory := fakeFactory{
		"small": func(ctx context.Context, prompt string) (string, error) {
			return "", backend.ErrUnavailable("connection refused")
		},
		"mid": func(ctx context.Context, prompt string) (string, error) {
			return "", backend.ErrInvoke("model error")
		},
	}
	r := testRouter(t, sampler, factory)

	res, err := r.Route(context.Background(), "hello", types.TierLow)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.BackendUsed != "big" {
		t.Fatalf("expected fallback to big, got %s", res.BackendUsed)
	}
}

func TestRouteAggregatesAllFailures(t *testing.T) {
	sampler := hostinfo.NewStatic(16384, 16000, 4)
	fail := func(ctx context.Context, prompt string) (string, error) {
		return "", backend.ErrUnavailable("down")
	}
	factory := fakeFactory{"small": fail, "mid": fail, "big": fail, "cloud": fail}
	r := testRouter(t, sampler, factory)

	_, err := r.Route(context.Background(), "hello", types.TierLow)
	if err == nil || !IsAllBackendsFailed(err) {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	attempts, ok := FailedAttempts(err)
	if !ok || len(attempts) != 4 {
		t.Fatalf("expected 4 attempts, got %+v", attempts)
	}
	for _, id := range []string{"small", "mid", "big", "cloud"} {
		if !strings.Contains(err.Error(), id) {
			t.Fatalf("aggregate error must name %s: %v", id, err)
		}
	}
}

func TestRouteSkipReasonsRecorded(t *testing.T) {
	// Locals are skipped on memory, the remote then fails: the aggregate
	// error must carry the skip reason for each local candidate.
	sampler := hostinfo.NewStatic(8192, 100, 4)
	factory := fakeFactory{
		"cloud": func(ctx context.Context, prompt string) (string, error) {
			return "", backend.ErrUnavailable("quota")
		},
	}
	r := testRouter(t, sampler, factory)

	_, err := r.Route(context.Background(), "hello", types.TierLow)
	attempts, ok := FailedAttempts(err)
	if !ok {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	skips := 0
	for _, a := range attempts {
		if strings.Contains(a.Reason, "skipped") {
			skips++
		}
	}
	if skips != 3 {
		t.Fatalf("expected 3 skipped locals, got %d: %+v", skips, attempts)
	}
}

func TestRouteTruncatesForSmallBackend(t *testing.T) {
	sampler := hostinfo.NewStatic(16384, 16000, 4)
	var seen string
	factory := fakeFactory{
		"small": func(ctx context.Context, prompt string) (string, error) {
			seen = prompt
			return "ok", nil
		},
	}
	r := testRouter(t, sampler, factory)

	long := strings.Repeat("filler text for the model to chew on ", 200)
	res, err := r.Route(context.Background(), long, types.TierLow)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if !res.Truncated {
		t.Fatalf("expected truncation for a prompt over the backend limit")
	}
	if len(seen) > 4096 {
		t.Fatalf("backend received %d chars, over its limit", len(seen))
	}
}

func TestRouteReturnsContextError(t *testing.T) {
	sampler := hostinfo.NewStatic(16384, 16000, 4)
	r := testRouter(t, sampler, fakeFactory{
		"small": func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := r.Route(ctx, "hello", types.TierLow)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRouteRecordsSessionInteraction(t *testing.T) {
	sampler := hostinfo.NewStatic(16384, 16000, 4)
	r := testRouter(t, sampler, fakeFactory{})
	before := r.session.Snapshot().Messages
	if _, err := r.Route(context.Background(), "hello", types.TierLow); err != nil {
		t.Fatalf("route: %v", err)
	}
	if got := r.session.Snapshot().Messages; got != before+1 {
		t.Fatalf("expected message counter to advance, got %d", got)
	}
}

func TestAnalyzeComplexity(t *testing.T) {
	cases := []struct {
		prompt string
		want   types.Tier
	}{
		{"train a machine learning model on this data", types.TierHigh},
		{"run a regression over these columns", types.TierHigh},
		{"show me the correlation matrix", types.TierHigh},
		{"compare group A with group B", types.TierMedium},
		{"statistical summary please", types.TierMedium},
		{"what does this column mean", types.TierLow},
		{"", types.TierLow},
	}
	for _, tc := range cases {
		if got := AnalyzeComplexity(tc.prompt); got != tc.want {
			t.Fatalf("%q: want %v, got %v", tc.prompt, tc.want, got)
		}
	}
}
