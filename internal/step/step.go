// Package step executes one named, idempotent unit of work with retry and
// audit logging. It is the leaf primitive of the provisioner: phases are
// sequences of steps, and everything a step does against the host goes
// through its action function.
package step

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Action is the side-effecting operation a step performs. Errors are
// treated as transient and retried unless wrapped with Permanent.
type Action func(ctx context.Context) error

// Permanent marks err as not worth retrying: the executor stops
// immediately and reports failure regardless of remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// RetryPolicy bounds a step's attempts. Delay between attempts grows
// linearly: the wait before attempt n+1 is n * BaseDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Status is the terminal state of a step execution.
type Status int

const (
	// StatusSuccess means the action eventually succeeded.
	StatusSuccess Status = iota
	// StatusFailed means the action exhausted its attempts or returned a
	// permanent error.
	StatusFailed
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failed"
}

// Outcome reports how a step execution ended. Err carries the last error
// observed when Status is StatusFailed.
type Outcome struct {
	Status   Status
	Attempts int
	Err      error
}

// linearBackOff implements backoff.BackOff with the attempt*BaseDelay
// schedule the retry policy promises.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.base
}

func (l *linearBackOff) Reset() { l.n = 0 }
