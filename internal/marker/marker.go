// Package marker persists which provisioning phases have completed, so a
// re-invocation skips finished work and resumes unfinished work. The store
// survives process and machine restarts and has no removal API: resetting a
// sandbox is an explicit operator action, never something the sequencer
// does on its own.
package marker

import "context"

// Store records completed phases durably. The sequencer is the only writer;
// it marks a phase exactly once, after all of the phase's steps succeed.
type Store interface {
	// IsComplete reports whether the given phase has been marked complete.
	IsComplete(ctx context.Context, phaseID string) (bool, error)

	// MarkComplete durably records the given phase as complete. Marking an
	// already-complete phase is a no-op.
	MarkComplete(ctx context.Context, phaseID string) error

	// Completed returns the IDs of all completed phases, sorted.
	Completed(ctx context.Context) ([]string, error)
}
