package dbsql

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/testutil"
)

func TestErrorLine(t *testing.T) {
	assert.Equal(t, "ORA-01920: user name 'VECTOR' conflicts with another user",
		errorLine("old 1: CREATE USER vector\nORA-01920: user name 'VECTOR' conflicts with another user\n"))
	assert.Equal(t, "SP2-0310: unable to open file", errorLine("SP2-0310: unable to open file"))
	assert.Empty(t, errorLine("Grant succeeded.\n\nPL/SQL procedure successfully completed.\n"))
}

func TestOnRunDbsql(t *testing.T) {
	input := &Input{
		Container: "oracle-free",
		Connect:   "sys/secret@FREEPDB1 as sysdba",
		SQL:       "CREATE USER vector IDENTIFIED BY secret;",
		ToleratedErrors: []string{
			"ORA-01920", // user already exists
			"ORA-00955", // object name already used
		},
	}

	t.Run("clean output succeeds", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("docker exec", hostcmd.Result{Stdout: "User created.\n"})
		host := &registry.Host{Exec: runner}

		require.NoError(t, OnRunDbsql(context.Background(), host, input))
		calls := runner.CallsWithPrefix("docker exec oracle-free")
		require.Len(t, calls, 1)
		assert.Contains(t, calls[0], "sqlplus -s sys/secret@FREEPDB1 as sysdba")
	})

	t.Run("tolerated diagnostic is success", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("docker exec", hostcmd.Result{Stdout: "ORA-01920: user name 'VECTOR' conflicts\n"})
		host := &registry.Host{Exec: runner}

		assert.NoError(t, OnRunDbsql(context.Background(), host, input))
	})

	t.Run("other diagnostic is a permanent failure", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("docker exec", hostcmd.Result{Stdout: "ORA-00942: table or view does not exist\n"})
		host := &registry.Host{Exec: runner}

		err := OnRunDbsql(context.Background(), host, input)
		require.ErrorContains(t, err, "ORA-00942")

		// Retrying the same statement cannot help, so the executor must
		// stop immediately.
		var perm *backoff.PermanentError
		assert.ErrorAs(t, err, &perm)
	})

	t.Run("nonzero exit without diagnostic fails transiently", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("docker exec", hostcmd.Result{ExitCode: 1, Stderr: "container not running"})
		host := &registry.Host{Exec: runner}

		err := OnRunDbsql(context.Background(), host, input)
		require.ErrorContains(t, err, "sqlplus exited 1")

		var perm *backoff.PermanentError
		assert.False(t, errors.As(err, &perm), "exit without ORA- diagnostic should stay retryable")
	})
}
