package apt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/testutil"
)

func TestOnRunApt(t *testing.T) {
	t.Run("installs packages", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		host := &registry.Host{Exec: runner}

		err := OnRunApt(context.Background(), host, &Input{Packages: []string{"git", "curl"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"apt-get install -y -qq git curl"}, runner.Calls)
	})

	t.Run("updates index first when asked", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		host := &registry.Host{Exec: runner}

		err := OnRunApt(context.Background(), host, &Input{Packages: []string{"git"}, Update: true})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"apt-get update -qq",
			"apt-get install -y -qq git",
		}, runner.Calls)
	})

	t.Run("install failure surfaces stderr", func(t *testing.T) {
		runner := &testutil.ScriptedRunner{}
		runner.On("apt-get install", hostcmd.Result{ExitCode: 100, Stderr: "Unable to locate package gti"})
		host := &registry.Host{Exec: runner}

		err := OnRunApt(context.Background(), host, &Input{Packages: []string{"gti"}})
		assert.ErrorContains(t, err, "Unable to locate package gti")
	})

	t.Run("empty package list is rejected", func(t *testing.T) {
		host := &registry.Host{Exec: &testutil.ScriptedRunner{}}
		err := OnRunApt(context.Background(), host, &Input{})
		assert.ErrorContains(t, err, "packages list is empty")
	})
}
