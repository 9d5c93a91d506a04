package backend

import (
	"os"
	"sync"

	"inferd/pkg/types"
)

// HTTPFactory builds HTTP-backed invokers from descriptors: local backends
// get an Ollama invoker against their base URL, the remote backend gets an
// OpenAI-compatible invoker. Invokers are cached per backend id so HTTP
// clients and their connection pools are reused.
type HTTPFactory struct {
	mu            sync.Mutex
	invokers      map[string]Invoker
	remoteBaseURL string
	remoteAPIKey  string
}

// NewHTTPFactory constructs a factory. remoteBaseURL is required to reach
// the remote fallback; the API key is read from INFERD_REMOTE_API_KEY when
// empty.
func NewHTTPFactory(remoteBaseURL, remoteAPIKey string) *HTTPFactory {
	if remoteAPIKey == "" {
		remoteAPIKey = os.Getenv("INFERD_REMOTE_API_KEY")
	}
	return &HTTPFactory{
		invokers:      make(map[string]Invoker),
		remoteBaseURL: remoteBaseURL,
		remoteAPIKey:  remoteAPIKey,
	}
}

func (f *HTTPFactory) For(b types.Backend) Invoker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.invokers[b.ID]; ok {
		return inv
	}
	var inv Invoker
	if b.Class == types.ClassRemote {
		base := b.BaseURL
		if base == "" {
			base = f.remoteBaseURL
		}
		inv = NewRemoteInvoker(base, f.remoteAPIKey, b.ID)
	} else {
		inv = NewOllamaInvoker(b.BaseURL, b.ID)
	}
	f.invokers[b.ID] = inv
	return inv
}
