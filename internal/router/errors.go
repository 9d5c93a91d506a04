package router

import "strings"

// Attempt records one candidate tried (or skipped) during a route call.
type Attempt struct {
	BackendID string
	Reason    string
}

// allBackendsFailedError is the only error surfaced to the request source.
// It describes every attempted backend and its specific failure.
type allBackendsFailedError struct {
	attempts []Attempt
}

func (e allBackendsFailedError) Error() string {
	var sb strings.Builder
	sb.WriteString("all backends failed")
	for _, a := range e.attempts {
		sb.WriteString("; ")
		sb.WriteString(a.BackendID)
		sb.WriteString(": ")
		sb.WriteString(a.Reason)
	}
	return sb.String()
}

// Attempts returns the per-backend failure list.
func (e allBackendsFailedError) Attempts() []Attempt {
	out := make([]Attempt, len(e.attempts))
	copy(out, e.attempts)
	return out
}

// ErrAllBackendsFailed constructs the aggregate routing error.
func ErrAllBackendsFailed(attempts []Attempt) error {
	return allBackendsFailedError{attempts: attempts}
}

// IsAllBackendsFailed reports whether err is the aggregate routing error.
func IsAllBackendsFailed(err error) bool {
	_, ok := err.(allBackendsFailedError)
	return ok
}

// FailedAttempts extracts the attempt list when err is the aggregate
// routing error.
func FailedAttempts(err error) ([]Attempt, bool) {
	e, ok := err.(allBackendsFailedError)
	if !ok {
		return nil, false
	}
	return e.Attempts(), true
}
