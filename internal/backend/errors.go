package backend

// unavailableError signals the backend endpoint could not be reached.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return "backend unavailable: " + e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates an unreachable backend.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}

// timeoutError signals the invocation exceeded its deadline.
type timeoutError struct{ msg string }

func (e timeoutError) Error() string { return "backend timeout: " + e.msg }

// ErrTimeout constructs a timeoutError.
func ErrTimeout(msg string) error { return timeoutError{msg: msg} }

// IsTimeout reports whether err indicates an invocation deadline was hit.
func IsTimeout(err error) bool {
	_, ok := err.(timeoutError)
	return ok
}

// invokeError signals the backend reported a failure of its own.
type invokeError struct{ detail string }

func (e invokeError) Error() string { return "backend error: " + e.detail }

// ErrInvoke constructs an invokeError with backend-reported detail.
func ErrInvoke(detail string) error { return invokeError{detail: detail} }

// IsInvoke reports whether err is a backend-reported failure.
func IsInvoke(err error) bool {
	_, ok := err.(invokeError)
	return ok
}

// IsFailure reports whether err belongs to the backend failure taxonomy.
// The router treats all three uniformly: this candidate failed, try the next.
func IsFailure(err error) bool {
	return IsUnavailable(err) || IsTimeout(err) || IsInvoke(err)
}
