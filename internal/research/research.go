// Package research defines the contract for the external research function
// that turns an assignment query into findings text.
package research

import (
	"context"
	"errors"
	"fmt"
)

// Researcher performs the actual research work for an assignment. The call
// is expected to block on the network; callers bound it with a context
// timeout and treat expiry as a transient failure.
type Researcher interface {
	Research(ctx context.Context, query string) (string, error)
}

// TransientError wraps failures that are worth retrying with backoff:
// timeouts, rate limits, upstream 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient research error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps failures that retrying cannot fix, such as a
// malformed query rejected by the upstream service.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent research error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as retry-eligible.
func Transient(err error) error {
	return &TransientError{Err: err}
}

// Permanent wraps err as not retry-eligible.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked as not retry-eligible.
// Unclassified errors are treated as transient so a flaky upstream never
// silently kills an assignment on its first hiccup.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
