// Package backend defines the invocation interface and HTTP adapters for
// local (Ollama-compatible) and remote (OpenAI-compatible) inference
// endpoints.
package backend

import (
	"context"

	"inferd/pkg/types"
)

// Invoker executes one optimized prompt against a concrete backend.
// Implementations must return when the context is canceled.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Factory resolves an Invoker for a backend descriptor.
type Factory interface {
	For(b types.Backend) Invoker
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func(b types.Backend) Invoker

func (f FactoryFunc) For(b types.Backend) Invoker { return f(b) }
