// Package audit maintains the append-only journal of step attempts. Every
// attempt of every step lands here with its phase, attempt number, and
// outcome, so a failed provisioning run can be diagnosed after the fact
// without re-running anything.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Outcome values recorded per attempt.
const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"
	OutcomeFailed    = "failed"
	OutcomeTolerated = "tolerated"
	OutcomeSkipped   = "skipped"
)

// Entry is one journal line.
type Entry struct {
	Time    time.Time `json:"time"`
	RunID   string    `json:"run_id"`
	Phase   string    `json:"phase"`
	Step    string    `json:"step,omitempty"`
	Attempt int       `json:"attempt,omitempty"`
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
}

// Journal serializes entries as JSON lines onto a writer. It is safe for
// use from multiple goroutines, although the sequencer writes from one.
type Journal struct {
	mu    sync.Mutex
	w     io.Writer
	runID string
	now   func() time.Time
}

// New creates a Journal writing to w, stamping every entry with runID.
func New(w io.Writer, runID string) *Journal {
	return &Journal{w: w, runID: runID, now: time.Now}
}

// Append writes one entry. The entry's time and run id are filled in here.
func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	e.Time = j.now().UTC()
	e.RunID = j.runID

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := j.w.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// OpenRotating returns the production journal writer: an append-only,
// size-rotated log file at path.
func OpenRotating(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filepath.Clean(path),
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		Compress:   true,
	}
}
