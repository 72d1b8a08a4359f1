// Package registry holds the provisioning actions compiled into the
// binary. Plan steps name an action; the sequencer looks it up here,
// decodes the step's arguments into the action's input struct, and invokes
// its handler against the host.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/systemd"
)

// Module is the interface all action modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Host carries the shared facilities actions use to touch the machine.
// Tests swap in fakes; production wiring lives in the app package.
type Host struct {
	Exec    hostcmd.Runner
	HTTP    *http.Client
	Systemd systemd.Manager

	// StateDir is the provisioner's durable state directory.
	StateDir string
	// MarkerPath maps a phase ID to its completion marker file, used when
	// a declared service gates on a phase.
	MarkerPath func(phaseID string) string
}

// RegisteredAction holds the compiled Go parts of one action.
type RegisteredAction struct {
	// NewInput returns a fresh pointer to the action's argument struct,
	// ready for gohcl decoding. Nil means the action takes no arguments.
	NewInput func() any
	// Fn is the handler. input is the struct NewInput produced, populated
	// from the step's arguments block.
	Fn func(ctx context.Context, host *Host, input any) error
}

// Registry maps action names to their registered handlers.
type Registry struct {
	actions map[string]*RegisteredAction
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{actions: make(map[string]*RegisteredAction)}
}

// RegisterAction registers a handler under the given action name. A
// duplicate name is a programmer error and panics.
func (r *Registry) RegisterAction(name string, action *RegisteredAction) {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("action with name '%s' already registered", name))
	}
	slog.Debug("Registering action.", "name", name)
	r.actions[name] = action
}

// Action looks up a registered action by name.
func (r *Registry) Action(name string) (*RegisteredAction, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Names returns the registered action names, for startup logging.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}
