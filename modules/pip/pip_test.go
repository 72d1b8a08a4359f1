package pip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/testutil"
)

func TestPins(t *testing.T) {
	in := &Input{Packages: map[string]string{
		"oracledb":   "2.4.1",
		"langchain":  "0.3.7",
		"jupyterlab": "4.2.5",
	}}
	assert.Equal(t, []string{
		"jupyterlab==4.2.5",
		"langchain==0.3.7",
		"oracledb==2.4.1",
	}, in.Pins())
}

func TestOnRunPip(t *testing.T) {
	t.Run("installs pinned packages", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		host := &registry.Host{Exec: runner}

		err := OnRunPip(context.Background(), host, &Input{
			Packages: map[string]string{"oracledb": "2.4.1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"pip3 install --no-input oracledb==2.4.1"}, runner.Calls)
	})

	t.Run("uses the given binary and requirements file", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		host := &registry.Host{Exec: runner}

		err := OnRunPip(context.Background(), host, &Input{
			Binary:       "/opt/sandbox/venv/bin/pip",
			Requirements: "/opt/sandbox/requirements.txt",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/opt/sandbox/venv/bin/pip install --no-input -r /opt/sandbox/requirements.txt",
		}, runner.Calls)
	})

	t.Run("install failure surfaces stderr", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("pip3 install", hostcmd.Result{ExitCode: 1, Stderr: "No matching distribution"})
		host := &registry.Host{Exec: runner}

		err := OnRunPip(context.Background(), host, &Input{Packages: map[string]string{"nope": "0.0.0"}})
		assert.ErrorContains(t, err, "No matching distribution")
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		host := &registry.Host{Exec: &testutil.ScriptedRunner{}}
		err := OnRunPip(context.Background(), host, &Input{})
		assert.ErrorContains(t, err, "neither packages nor requirements")
	})
}
