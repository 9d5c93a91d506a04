package types

// SubmitRequest is the payload accepted by POST /submit.
type SubmitRequest struct {
	// Required prompt text to route and execute.
	// example: Compare blood pressure between treatment groups.
	Prompt string `json:"prompt"`
	// Optional complexity hint: low, medium or high. When omitted the
	// server derives a hint from the prompt text.
	// example: medium
	Complexity string `json:"complexity,omitempty"`
}

// SubmitResponse is returned by POST /submit on success.
type SubmitResponse struct {
	// Result text produced by the chosen backend.
	Result string `json:"result"`
	// ID of the backend that served the request (possibly a fallback).
	// example: phi3-mini
	BackendUsed string `json:"backend_used"`
	// True when the prompt was shortened to fit the backend's limit.
	Truncated bool `json:"truncated,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: all backends failed
	Error string `json:"error"`
	// HTTP status code.
	// example: 502
	Code int `json:"code"`
}

// EntryStatus summarizes one warm cache entry for GET /status.
type EntryStatus struct {
	// Backend this entry keeps warm.
	// example: tinyllama
	BackendID string `json:"backend_id"`
	// loading, ready or failed.
	// example: ready
	State string `json:"state"`
	// Unix seconds of the initial load.
	LoadedAt int64 `json:"loaded_at_unix"`
	// Unix seconds of the most recent successful use.
	LastUsed int64 `json:"last_used_unix"`
	// Estimated resident size in MB.
	// example: 1024
	SizeMB int `json:"size_mb"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Warm cache entries.
	Entries []EntryStatus `json:"entries"`
	// Estimated MB held by warm entries.
	CachedMB int `json:"cached_mb"`
	// Most recent host memory profile, if available.
	Memory *MemoryProfile `json:"memory,omitempty"`
	// Scheduler phase: active, settled or long-running.
	// example: active
	SchedulerPhase string `json:"scheduler_phase"`
	// Current scheduler tick interval in seconds.
	// example: 30
	TickIntervalSeconds int64 `json:"tick_interval_seconds"`
	// Messages recorded this session.
	Messages int `json:"messages"`
	// File uploads recorded this session.
	FileUploads int `json:"file_uploads"`
	// Session age in seconds.
	SessionSeconds int64 `json:"session_seconds"`
	// Server uptime in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// BackendsResponse wraps the catalog returned by GET /backends.
type BackendsResponse struct {
	Backends []Backend `json:"backends"`
}
