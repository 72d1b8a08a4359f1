// Package systemd registers long-running sandbox services (the database
// container, the notebook server) with the host's service supervisor.
// The registrar only declares: restart behavior and crash recovery belong
// to systemd after registration, never to the phase sequencer.
package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
)

// Manager registers service units. The production implementation talks to
// systemd over D-Bus; tests substitute a recording fake.
type Manager interface {
	Register(ctx context.Context, unit Unit) error
}

// DbusManager writes unit files and drives systemd through its D-Bus API.
type DbusManager struct {
	unitDir string
}

var _ Manager = (*DbusManager)(nil)

// NewManager creates a DbusManager writing unit files under unitDir
// (normally /etc/systemd/system).
func NewManager(unitDir string) *DbusManager {
	return &DbusManager{unitDir: unitDir}
}

// Register writes the unit file, reloads systemd, enables the unit for
// boot, and starts it. Registration is idempotent: rewriting an identical
// unit and re-enabling an enabled unit are no-ops to systemd.
func (m *DbusManager) Register(ctx context.Context, unit Unit) error {
	logger := ctxlog.FromContext(ctx).With("unit", unit.UnitName())

	path := filepath.Join(m.unitDir, unit.UnitName())
	if err := os.WriteFile(path, []byte(unit.Render()), 0o644); err != nil {
		return fmt.Errorf("writing unit file %s: %w", path, err)
	}
	logger.Debug("Unit file written.", "path", path)

	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return fmt.Errorf("connecting to systemd: %w", err)
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}

	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{path}, false, true); err != nil {
		return fmt.Errorf("enabling %s: %w", unit.UnitName(), err)
	}

	done := make(chan string, 1)
	if _, err := conn.StartUnitContext(ctx, unit.UnitName(), "replace", done); err != nil {
		return fmt.Errorf("starting %s: %w", unit.UnitName(), err)
	}
	select {
	case result := <-done:
		// "skipped" covers units whose start condition (the phase marker)
		// does not hold yet; systemd will start them once it does.
		if result != "done" && result != "skipped" {
			return fmt.Errorf("starting %s: job result %q", unit.UnitName(), result)
		}
		logger.Info("Service registered.", "result", result)
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}
