package page

import "fmt"

// ErrorKind classifies why a fetch attempt did not produce a document.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindRateLimited ErrorKind = "rate_limited"
	KindHTTPStatus  ErrorKind = "http_status"
)

// FetchError describes a failed fetch attempt.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether the remote asked us to slow down.
func (e *FetchError) IsRateLimited() bool {
	return e != nil && e.Kind == KindRateLimited
}

func transportError(err error) *FetchError {
	return &FetchError{Kind: KindTransport, Err: err}
}
