package runner

import "fmt"

// OpNotify marks a delivery failure. The snapshot of that cycle is already
// committed when it is reported.
const OpNotify = "notify"

// RuntimeError reports a failed cycle step that must not stop the loop.
type RuntimeError struct {
	Op  string
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("cycle %s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func wrapRuntime(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RuntimeError{Op: op, Err: err}
}
