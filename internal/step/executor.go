package step

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/audit"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
)

// Executor runs step actions under a retry policy and records every
// attempt in the audit journal. It never panics and never lets a transient
// error escape: after the attempt budget is spent, the last error is
// reported in the Outcome and the caller decides whether that is fatal.
type Executor struct {
	journal *audit.Journal
}

// NewExecutor creates an Executor appending to the given journal.
func NewExecutor(journal *audit.Journal) *Executor {
	return &Executor{journal: journal}
}

// Run executes action under policy. phase and name identify the step in
// logs and the audit journal.
func (e *Executor) Run(ctx context.Context, phase, name string, policy RetryPolicy, action Action) Outcome {
	logger := ctxlog.FromContext(ctx).With("phase", phase, "step", name)

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	operation := func() error {
		attempts++
		logger.Debug("Attempting step action.", "attempt", attempts, "max_attempts", maxAttempts)
		return action(ctx)
	}

	notify := func(err error, delay time.Duration) {
		logger.Warn("Step attempt failed, will retry.", "attempt", attempts, "delay", delay, "error", err)
		e.append(audit.Entry{
			Phase:   phase,
			Step:    name,
			Attempt: attempts,
			Outcome: audit.OutcomeRetry,
			Detail:  err.Error(),
		})
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: policy.BaseDelay}, uint64(maxAttempts-1)),
		ctx,
	)

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		logger.Error("Step failed.", "attempts", attempts, "error", err)
		e.append(audit.Entry{
			Phase:   phase,
			Step:    name,
			Attempt: attempts,
			Outcome: audit.OutcomeFailed,
			Detail:  err.Error(),
		})
		return Outcome{Status: StatusFailed, Attempts: attempts, Err: err}
	}

	e.append(audit.Entry{
		Phase:   phase,
		Step:    name,
		Attempt: attempts,
		Outcome: audit.OutcomeSuccess,
	})
	return Outcome{Status: StatusSuccess, Attempts: attempts}
}

// append writes to the journal if one is configured. A nil journal keeps
// the executor usable in tests that do not care about auditing.
func (e *Executor) append(entry audit.Entry) {
	if e.journal == nil {
		return
	}
	// Audit writes failing must not fail provisioning itself.
	_ = e.journal.Append(entry)
}
