package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteInvoker talks to an OpenAI-compatible /v1/completions endpoint.
// It serves the remote fallback descriptor.
type RemoteInvoker struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewRemoteInvoker constructs the remote fallback invoker.
func NewRemoteInvoker(baseURL, apiKey, model string) *RemoteInvoker {
	return &RemoteInvoker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: newHTTPClient(10 * time.Second),
	}
}

type completionRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (r *RemoteInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(completionRequest{Model: r.model, Prompt: prompt, Stream: false})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", ErrInvoke(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportErr(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", ErrInvoke(resp.Status + ": " + string(b))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ErrInvoke("decode response: " + err.Error())
	}
	if len(out.Choices) == 0 {
		return "", ErrInvoke("empty choices in response")
	}
	return out.Choices[0].Text, nil
}
