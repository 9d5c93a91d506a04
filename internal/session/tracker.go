// Package session tracks interaction counts and elapsed time for one
// working session. One Tracker exists per process; it is never persisted.
package session

import (
	"sync"
	"time"
)

// Kind classifies a recorded interaction.
type Kind int

const (
	KindMessage Kind = iota
	// KindFileUpload is reported in the status payload for frontends that
	// ingest files out of band; the server itself only records messages.
	KindFileUpload
)

// Tracker is pure bookkeeping: counters plus timestamps. It owns all
// mutation of the session state; other components only read snapshots.
type Tracker struct {
	mu           sync.Mutex
	startedAt    time.Time
	messages     int
	fileUploads  int
	lastActivity time.Time
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	StartedAt    time.Time
	Messages     int
	FileUploads  int
	LastActivity time.Time
}

// New starts a session clock at now.
func New() *Tracker {
	return NewAt(time.Now())
}

// NewAt starts a session clock at the given instant.
func NewAt(start time.Time) *Tracker {
	return &Tracker{startedAt: start, lastActivity: start}
}

// RecordInteraction increments the counter for kind and bumps last activity.
func (t *Tracker) RecordInteraction(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch kind {
	case KindFileUpload:
		t.fileUploads++
	default:
		t.messages++
	}
	t.lastActivity = time.Now()
}

// Elapsed returns the session age as of now.
func (t *Tracker) Elapsed(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return now.Sub(t.startedAt)
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		StartedAt:    t.startedAt,
		Messages:     t.messages,
		FileUploads:  t.fileUploads,
		LastActivity: t.lastActivity,
	}
}
