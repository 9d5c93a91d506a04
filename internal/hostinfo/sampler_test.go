package hostinfo

import (
	"errors"
	"testing"
)

func TestStaticSample(t *testing.T) {
	s := NewStatic(8192, 2048, 8)
	p, err := s.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if p.TotalMB != 8192 || p.AvailableMB != 2048 || p.CPUCount != 8 {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.SampledAt.IsZero() {
		t.Fatalf("sampled_at must be stamped")
	}
	if got := p.UsedPct(); got != 75 {
		t.Fatalf("used pct: %v", got)
	}
}

func TestStaticSetUpdatesProfile(t *testing.T) {
	s := NewStatic(8192, 8192, 4)
	s.Set(4096, 1024)
	p, err := s.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if p.TotalMB != 4096 || p.AvailableMB != 1024 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestStaticFailing(t *testing.T) {
	s := NewStatic(8192, 8192, 4)
	s.SetFailing(true)
	_, err := s.Sample()
	if err == nil || !IsMetricsUnavailable(err) {
		t.Fatalf("expected metrics-unavailable, got %v", err)
	}
	s.SetFailing(false)
	if _, err := s.Sample(); err != nil {
		t.Fatalf("recovered sampler must succeed: %v", err)
	}
}

func TestIsMetricsUnavailableWrapped(t *testing.T) {
	cause := errors.New("proc not mounted")
	err := ErrMetricsUnavailable(cause)
	if !IsMetricsUnavailable(err) {
		t.Fatalf("constructor output must satisfy the predicate")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must be reachable via errors.Is")
	}
	if IsMetricsUnavailable(cause) {
		t.Fatalf("arbitrary errors are not metrics-unavailable")
	}
}
