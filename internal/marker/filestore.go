package marker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// compile-time interface check.
var _ Store = (*FileStore)(nil)

// markerFile is the JSON document persisted under the state directory.
type markerFile struct {
	Completed map[string]time.Time `json:"completed"`
}

// FileStore is the file-backed Store. It keeps a single JSON document of
// completed phases, guarded by flock(2) against concurrent invocations of
// the provisioner, and additionally drops one empty `<phase>.done` file per
// completed phase so systemd units can gate on ConditionPathExists= without
// parsing JSON.
type FileStore struct {
	dir      string
	filePath string
	lockPath string
}

// NewFileStore creates a FileStore rooted at dir, creating the directory
// tree if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "markers"), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	return &FileStore{
		dir:      dir,
		filePath: filepath.Join(dir, "phases.json"),
		lockPath: filepath.Join(dir, "phases.lock"),
	}, nil
}

// MarkerPath returns the path of the per-phase marker file that exists once
// the given phase has completed. Service units reference this path in their
// ConditionPathExists= directive.
func (s *FileStore) MarkerPath(phaseID string) string {
	return filepath.Join(s.dir, "markers", phaseID+".done")
}

// IsComplete implements Store.
func (s *FileStore) IsComplete(ctx context.Context, phaseID string) (bool, error) {
	var complete bool
	err := s.withLock(ctx, func(data *markerFile) error {
		_, complete = data.Completed[phaseID]
		return nil
	})
	return complete, err
}

// MarkComplete implements Store.
func (s *FileStore) MarkComplete(ctx context.Context, phaseID string) error {
	return s.withLock(ctx, func(data *markerFile) error {
		if _, ok := data.Completed[phaseID]; ok {
			return nil
		}
		data.Completed[phaseID] = time.Now().UTC()
		if err := atomicWriteJSON(s.filePath, data); err != nil {
			return err
		}
		// The .done file is advisory for service units; the JSON document
		// is the source of truth, so it is written first.
		return os.WriteFile(s.MarkerPath(phaseID), nil, 0o644)
	})
}

// Completed implements Store.
func (s *FileStore) Completed(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.withLock(ctx, func(data *markerFile) error {
		for id := range data.Completed {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// withLock loads the marker document under flock and passes it to fn. A
// missing document reads as empty: first boot starts with no completed
// phases.
func (s *FileStore) withLock(ctx context.Context, fn func(*markerFile) error) error {
	fl := flock.New(s.lockPath)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", s.lockPath, err)
	}
	if !locked {
		return fmt.Errorf("acquire lock %s: %w", s.lockPath, ctx.Err())
	}
	defer fl.Unlock() //nolint:errcheck

	data := &markerFile{Completed: make(map[string]time.Time)}
	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", s.filePath, err)
		}
	} else if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	if data.Completed == nil {
		data.Completed = make(map[string]time.Time)
	}

	return fn(data)
}

// atomicWriteJSON writes v as JSON to path via a same-directory temp file,
// fsync, and rename, so a crash mid-write never leaves a torn document.
func atomicWriteJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
