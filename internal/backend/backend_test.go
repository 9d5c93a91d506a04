package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inferd/pkg/types"
)

func TestOllamaInvokerHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Stream {
			t.Errorf("streaming must be disabled")
		}
		if req.Model != "tinyllama" {
			t.Errorf("model: %s", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "answer", Done: true})
	}))
	defer srv.Close()

	inv := NewOllamaInvoker(srv.URL, "tinyllama")
	got, err := inv.Invoke(context.Background(), "question")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != "answer" {
		t.Fatalf("got %q", got)
	}
}

func TestOllamaInvokerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	inv := NewOllamaInvoker(srv.URL, "missing")
	_, err := inv.Invoke(context.Background(), "question")
	if err == nil || !IsInvoke(err) {
		t.Fatalf("expected invoke error, got %v", err)
	}
}

func TestOllamaInvokerUnreachable(t *testing.T) {
	// Reserved port with nothing listening.
	inv := NewOllamaInvoker("http://127.0.0.1:1", "tinyllama")
	_, err := inv.Invoke(context.Background(), "question")
	if err == nil || !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestOllamaInvokerDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	inv := NewOllamaInvoker(srv.URL, "tinyllama")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := inv.Invoke(ctx, "question")
	if err == nil || !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRemoteInvokerHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("authorization: %q", got)
		}
		w.Write([]byte(`{"choices":[{"text":"remote answer"}]}`))
	}))
	defer srv.Close()

	inv := NewRemoteInvoker(srv.URL, "sekrit", "gemini-flash")
	got, err := inv.Invoke(context.Background(), "question")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != "remote answer" {
		t.Fatalf("got %q", got)
	}
}

func TestRemoteInvokerEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	inv := NewRemoteInvoker(srv.URL, "", "gemini-flash")
	_, err := inv.Invoke(context.Background(), "question")
	if err == nil || !IsInvoke(err) {
		t.Fatalf("expected invoke error on empty choices, got %v", err)
	}
}

func TestFactoryCachesInvokers(t *testing.T) {
	f := NewHTTPFactory("https://example.invalid", "k")
	local := types.Backend{ID: "tinyllama", Class: types.ClassLocal, BaseURL: "http://localhost:11434"}
	remote := types.Backend{ID: "gemini-flash", Class: types.ClassRemote}

	if f.For(local) != f.For(local) {
		t.Fatalf("local invoker must be reused")
	}
	if f.For(remote) != f.For(remote) {
		t.Fatalf("remote invoker must be reused")
	}
	if _, ok := f.For(local).(*OllamaInvoker); !ok {
		t.Fatalf("local backend must get an Ollama invoker")
	}
	if _, ok := f.For(remote).(*RemoteInvoker); !ok {
		t.Fatalf("remote backend must get the remote invoker")
	}
}

func TestFailureTaxonomy(t *testing.T) {
	if !IsFailure(ErrUnavailable("x")) || !IsFailure(ErrTimeout("x")) || !IsFailure(ErrInvoke("x")) {
		t.Fatalf("all three kinds are failures")
	}
	if IsFailure(context.Canceled) {
		t.Fatalf("context errors are not backend failures")
	}
	if IsUnavailable(ErrTimeout("x")) || IsTimeout(ErrInvoke("x")) || IsInvoke(ErrUnavailable("x")) {
		t.Fatalf("kinds must not overlap")
	}
}
