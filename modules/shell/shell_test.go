package shell

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/testutil"
)

func TestOnRunShell(t *testing.T) {
	t.Run("runs the command with its args", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		host := &registry.Host{Exec: runner}

		err := OnRunShell(context.Background(), host, &Input{
			Command: "growpart",
			Args:    []string{"/dev/sda", "1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"growpart /dev/sda 1"}, runner.Calls)
	})

	t.Run("nonzero exit fails with output", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("growpart", hostcmd.Result{ExitCode: 2, Stderr: "NOCHANGE"})
		host := &registry.Host{Exec: runner}

		err := OnRunShell(context.Background(), host, &Input{Command: "growpart"})
		assert.ErrorContains(t, err, "NOCHANGE")
	})

	t.Run("runner error is wrapped", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.OnError("missing-binary", errors.New("executable file not found"))
		host := &registry.Host{Exec: runner}

		err := OnRunShell(context.Background(), host, &Input{Command: "missing-binary"})
		assert.ErrorContains(t, err, "executable file not found")
	})
}
