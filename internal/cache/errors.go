package cache

import "fmt"

// notRegisteredError signals an acquire for an id absent from the catalog.
type notRegisteredError struct{ id string }

func (e notRegisteredError) Error() string { return "backend not registered: " + e.id }

// ErrNotRegistered constructs a notRegisteredError.
func ErrNotRegistered(id string) error { return notRegisteredError{id: id} }

// IsNotRegistered reports whether err indicates an unknown backend id.
func IsNotRegistered(err error) bool {
	_, ok := err.(notRegisteredError)
	return ok
}

// insufficientMemoryError signals the budget cannot fit a load. The cache
// fails fast without attempting the load; the router tries the next
// candidate.
type insufficientMemoryError struct {
	id       string
	neededMB int
	freeMB   int
}

func (e insufficientMemoryError) Error() string {
	return fmt.Sprintf("insufficient memory for %s: need %dMB, %dMB free", e.id, e.neededMB, e.freeMB)
}

// ErrInsufficientMemory constructs an insufficientMemoryError.
func ErrInsufficientMemory(id string, neededMB, freeMB int) error {
	if freeMB < 0 {
		freeMB = 0
	}
	return insufficientMemoryError{id: id, neededMB: neededMB, freeMB: freeMB}
}

// IsInsufficientMemory reports whether err indicates a budget rejection.
func IsInsufficientMemory(err error) bool {
	_, ok := err.(insufficientMemoryError)
	return ok
}

// loadFailedError wraps a loader failure. Every waiter on the in-flight
// load receives the same error; the cache never retries internally.
type loadFailedError struct {
	id    string
	cause error
}

func (e loadFailedError) Error() string {
	return "load failed for " + e.id + ": " + e.cause.Error()
}

func (e loadFailedError) Unwrap() error { return e.cause }

// ErrLoadFailed constructs a loadFailedError.
func ErrLoadFailed(id string, cause error) error { return loadFailedError{id: id, cause: cause} }

// IsLoadFailed reports whether err indicates a failed backend load.
func IsLoadFailed(err error) bool {
	_, ok := err.(loadFailedError)
	return ok
}
