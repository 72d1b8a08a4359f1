// Package probe polls external readiness conditions until they hold, time
// out, or fail permanently. A check is a disjunction of predicates — for
// example "the container health probe reports healthy OR the expected ready
// banner appeared in its logs" — evaluated every interval and
// short-circuited on the first ready signal.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
)

// Clock abstracts time so readiness waits are testable without real
// wall-clock delays.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status is one predicate observation.
type Status int

const (
	// NotReady means the condition does not hold yet; keep polling.
	NotReady Status = iota
	// Ready means the condition holds.
	Ready
	// Failed means the target entered an unrecoverable state; polling
	// further cannot succeed.
	Failed
)

// Observation is a predicate's report for one poll.
type Observation struct {
	Status Status
	Detail string
}

// Predicate is one polled sub-condition of a readiness check.
type Predicate interface {
	Name() string
	Probe(ctx context.Context) Observation
}

// Check describes a terminating readiness wait: it always ends in Ready,
// TimedOut, or PermanentFailure.
type Check struct {
	Target        string
	Predicates    []Predicate
	Interval      time.Duration
	Timeout       time.Duration
	ProgressEvery int
}

// ResultState is the terminal state of a readiness wait.
type ResultState int

const (
	// StateReady means some predicate reported ready within the timeout.
	StateReady ResultState = iota
	// StateTimedOut means the timeout elapsed with no predicate ready.
	StateTimedOut
	// StatePermanentFailure means a predicate reported the target
	// unrecoverable.
	StatePermanentFailure
)

func (s ResultState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateTimedOut:
		return "timed out"
	default:
		return "permanent failure"
	}
}

// Result reports how a wait ended and how long it took.
type Result struct {
	State   ResultState
	Polls   int
	Elapsed time.Duration
	// Detail carries the last observed predicate detail, useful when the
	// wait did not end in Ready.
	Detail string
}

// Prober evaluates readiness checks.
type Prober struct {
	clock Clock
}

// New creates a Prober on the real clock.
func New() *Prober {
	return &Prober{clock: realClock{}}
}

// NewWithClock creates a Prober on the given clock. Tests inject a fake.
func NewWithClock(clock Clock) *Prober {
	return &Prober{clock: clock}
}

// WaitFor polls check's predicates every interval until one reports ready,
// a predicate reports permanent failure, or the timeout elapses. The
// returned error is non-nil only when ctx is cancelled mid-wait.
func (p *Prober) WaitFor(ctx context.Context, check Check) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("target", check.Target)

	if len(check.Predicates) == 0 {
		return Result{}, fmt.Errorf("readiness check for %q has no predicates", check.Target)
	}
	if check.Interval <= 0 || check.Timeout <= 0 {
		return Result{}, fmt.Errorf("readiness check for %q needs positive interval and timeout", check.Target)
	}

	start := p.clock.Now()
	polls := 0
	lastDetail := ""

	for {
		polls++
		for _, pred := range check.Predicates {
			obs := pred.Probe(ctx)
			if obs.Detail != "" {
				lastDetail = fmt.Sprintf("%s: %s", pred.Name(), obs.Detail)
			}
			switch obs.Status {
			case Ready:
				elapsed := p.clock.Now().Sub(start)
				logger.Info("✅ Target is ready.", "predicate", pred.Name(), "polls", polls, "elapsed", elapsed)
				return Result{State: StateReady, Polls: polls, Elapsed: elapsed, Detail: lastDetail}, nil
			case Failed:
				elapsed := p.clock.Now().Sub(start)
				logger.Error("Target failed permanently.", "predicate", pred.Name(), "detail", obs.Detail, "elapsed", elapsed)
				return Result{State: StatePermanentFailure, Polls: polls, Elapsed: elapsed, Detail: lastDetail}, nil
			}
		}

		elapsed := p.clock.Now().Sub(start)
		if elapsed+check.Interval > check.Timeout {
			logger.Warn("Readiness wait timed out.", "polls", polls, "elapsed", elapsed, "timeout", check.Timeout)
			return Result{State: StateTimedOut, Polls: polls, Elapsed: elapsed, Detail: lastDetail}, nil
		}

		if check.ProgressEvery > 0 && polls%check.ProgressEvery == 0 {
			logger.Info("Still waiting for target.", "polls", polls, "elapsed", elapsed, "last_status", lastDetail)
		}

		if err := p.clock.Sleep(ctx, check.Interval); err != nil {
			return Result{State: StateTimedOut, Polls: polls, Elapsed: p.clock.Now().Sub(start), Detail: lastDetail}, err
		}
	}
}
