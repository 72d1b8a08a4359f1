package step

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/audit"
)

func journalEntries(t *testing.T, buf *bytes.Buffer) []audit.Entry {
	t.Helper()
	var entries []audit.Entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e audit.Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestExecutorRun(t *testing.T) {
	ctx := context.Background()
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	t.Run("success on first attempt", func(t *testing.T) {
		var buf bytes.Buffer
		e := NewExecutor(audit.New(&buf, "test"))

		outcome := e.Run(ctx, "database", "run_container", policy, func(ctx context.Context) error {
			return nil
		})

		assert.Equal(t, StatusSuccess, outcome.Status)
		assert.Equal(t, 1, outcome.Attempts)
		assert.NoError(t, outcome.Err)

		entries := journalEntries(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.OutcomeSuccess, entries[0].Outcome)
	})

	t.Run("transient failures are retried until success", func(t *testing.T) {
		var buf bytes.Buffer
		e := NewExecutor(audit.New(&buf, "test"))

		calls := 0
		outcome := e.Run(ctx, "database", "run_container", policy, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})

		assert.Equal(t, StatusSuccess, outcome.Status)
		assert.Equal(t, 3, outcome.Attempts)

		entries := journalEntries(t, &buf)
		require.Len(t, entries, 3)
		assert.Equal(t, audit.OutcomeRetry, entries[0].Outcome)
		assert.Equal(t, audit.OutcomeRetry, entries[1].Outcome)
		assert.Equal(t, audit.OutcomeSuccess, entries[2].Outcome)
	})

	t.Run("always-failing action is attempted exactly MaxAttempts times", func(t *testing.T) {
		var buf bytes.Buffer
		e := NewExecutor(audit.New(&buf, "test"))

		calls := 0
		outcome := e.Run(ctx, "database", "run_container", policy, func(ctx context.Context) error {
			calls++
			return errors.New("still broken")
		})

		assert.Equal(t, StatusFailed, outcome.Status)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 3, outcome.Attempts)
		assert.ErrorContains(t, outcome.Err, "still broken")

		entries := journalEntries(t, &buf)
		require.Len(t, entries, 3)
		assert.Equal(t, audit.OutcomeFailed, entries[2].Outcome)
	})

	t.Run("permanent errors stop retrying immediately", func(t *testing.T) {
		var buf bytes.Buffer
		e := NewExecutor(audit.New(&buf, "test"))

		calls := 0
		outcome := e.Run(ctx, "database", "configure", policy, func(ctx context.Context) error {
			calls++
			return Permanent(errors.New("bad credentials"))
		})

		assert.Equal(t, StatusFailed, outcome.Status)
		assert.Equal(t, 1, calls)
		assert.ErrorContains(t, outcome.Err, "bad credentials")
	})

	t.Run("nil journal is tolerated", func(t *testing.T) {
		e := NewExecutor(nil)
		outcome := e.Run(ctx, "p", "s", RetryPolicy{MaxAttempts: 1}, func(ctx context.Context) error {
			return nil
		})
		assert.Equal(t, StatusSuccess, outcome.Status)
	})

	t.Run("zero max attempts still runs once", func(t *testing.T) {
		e := NewExecutor(nil)
		calls := 0
		outcome := e.Run(ctx, "p", "s", RetryPolicy{}, func(ctx context.Context) error {
			calls++
			return errors.New("boom")
		})
		assert.Equal(t, StatusFailed, outcome.Status)
		assert.Equal(t, 1, calls)
	})
}

func TestLinearBackOff(t *testing.T) {
	l := &linearBackOff{base: 2 * time.Second}
	assert.Equal(t, 2*time.Second, l.NextBackOff())
	assert.Equal(t, 4*time.Second, l.NextBackOff())
	assert.Equal(t, 6*time.Second, l.NextBackOff())
	l.Reset()
	assert.Equal(t, 2*time.Second, l.NextBackOff())
}
