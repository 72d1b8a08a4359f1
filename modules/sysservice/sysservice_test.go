package sysservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/systemd"
)

// recordingManager captures registered units instead of talking to systemd.
type recordingManager struct {
	units []systemd.Unit
	err   error
}

func (m *recordingManager) Register(ctx context.Context, unit systemd.Unit) error {
	if m.err != nil {
		return m.err
	}
	m.units = append(m.units, unit)
	return nil
}

func TestOnRunSysservice(t *testing.T) {
	markerPath := func(phaseID string) string {
		return "/var/lib/genai-sandbox/markers/" + phaseID + ".done"
	}

	t.Run("registers the declared unit", func(t *testing.T) {
		mgr := &recordingManager{}
		host := &registry.Host{Systemd: mgr, MarkerPath: markerPath}

		err := OnRunSysservice(context.Background(), host, &Input{
			Name:          "jupyter",
			ExecStart:     "/opt/sandbox/venv/bin/jupyter-lab",
			RequiresPhase: "content",
		})
		require.NoError(t, err)

		require.Len(t, mgr.units, 1)
		unit := mgr.units[0]
		assert.Equal(t, "jupyter.service", unit.UnitName())
		assert.Equal(t, "on-failure", unit.Restart)
		assert.Equal(t, "/var/lib/genai-sandbox/markers/content.done", unit.ConditionPath)
	})

	t.Run("registration errors propagate", func(t *testing.T) {
		mgr := &recordingManager{err: errors.New("dbus unavailable")}
		host := &registry.Host{Systemd: mgr, MarkerPath: markerPath}

		err := OnRunSysservice(context.Background(), host, &Input{
			Name:      "jupyter",
			ExecStart: "/usr/bin/jupyter-lab",
		})
		assert.ErrorContains(t, err, "dbus unavailable")
	})
}
