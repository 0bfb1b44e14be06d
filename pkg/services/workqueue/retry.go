package workqueue

import "errors"

// transientError marks an error as worth retrying with backoff. Repositories
// wrap connection and serialization failures this way; logic errors are never
// transient.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the queue retries the task. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsRetryable reports whether err was marked transient anywhere in its chain.
func IsRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
