package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppend(t *testing.T) {
	var buf bytes.Buffer
	j := New(&buf, "run-1")
	j.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, j.Append(Entry{Phase: "database", Step: "run_container", Attempt: 1, Outcome: OutcomeRetry, Detail: "exit status 1"}))
	require.NoError(t, j.Append(Entry{Phase: "database", Step: "run_container", Attempt: 2, Outcome: OutcomeSuccess}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "database", first.Phase)
	assert.Equal(t, "run_container", first.Step)
	assert.Equal(t, 1, first.Attempt)
	assert.Equal(t, OutcomeRetry, first.Outcome)
	assert.Equal(t, "exit status 1", first.Detail)
	assert.Equal(t, 2026, first.Time.Year())

	var second Entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, OutcomeSuccess, second.Outcome)
	assert.Equal(t, 2, second.Attempt)
}
