package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/villawad/agora-results/internal/archive"
)

// DirPrefix starts the name of every directory a Manager creates.
const DirPrefix = "agora-results-"

// Dir is a handle to one ephemeral extraction directory.
// It is owned by the Manager that created it.
type Dir struct {
	mgr      *Manager
	path     string
	archive  string
	index    int
	released bool
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Archive returns the archive extracted into the directory.
func (d *Dir) Archive() string { return d.archive }

// Index returns the position of the archive in the input list.
func (d *Dir) Index() int { return d.index }

// Release removes the directory through its Manager. Idempotent.
func (d *Dir) Release() error {
	if d == nil || d.mgr == nil {
		return nil
	}
	return d.mgr.Release(d)
}

// Manager creates, tracks and releases extraction directories.
//
// Thread-safety: all methods are safe for concurrent use. Release may be
// reached from a deferred path while a signal watcher is still running.
type Manager struct {
	mu      sync.Mutex
	baseDir string
	runID   string
	dirs    []*Dir
	// extract is swapped in tests to simulate extraction failures.
	extract func(ctx context.Context, src, dest string) (int, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithBaseDir sets the parent of the ephemeral directories.
// Default: os.TempDir().
func WithBaseDir(dir string) Option {
	return func(m *Manager) {
		m.baseDir = dir
	}
}

// WithRunID embeds the run ID in directory names so leftovers can be traced
// back to a run.
func WithRunID(id string) Option {
	return func(m *Manager) {
		m.runID = id
	}
}

// New creates a Manager with no tracked directories.
func New(opts ...Option) *Manager {
	m := &Manager{extract: archive.Extract}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire creates a fresh directory, registers it, and extracts the archive
// into it. The directory is registered before extraction starts, so it is
// released by ReleaseAll even when extraction fails.
//
// Returns ctx.Err() if the context is cancelled before or during
// extraction, and an *ExtractionError for any other failure.
func (m *Manager) Acquire(ctx context.Context, archivePath string) (*Dir, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	index := len(m.dirs)
	pattern := fmt.Sprintf("%s%d-*", DirPrefix, index)
	if m.runID != "" {
		pattern = fmt.Sprintf("%s%s-%d-*", DirPrefix, m.runID, index)
	}
	path, err := os.MkdirTemp(m.baseDir, pattern)
	if err != nil {
		m.mu.Unlock()
		return nil, &ExtractionError{Archive: archivePath, Index: index, Err: fmt.Errorf("create directory: %w", err)}
	}
	d := &Dir{mgr: m, path: path, archive: archivePath, index: index}
	m.dirs = append(m.dirs, d)
	m.mu.Unlock()

	slog.Debug("extracting archive", "archive", archivePath, "dir", path)
	files, err := m.extract(ctx, archivePath, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ExtractionError{Archive: archivePath, Index: index, Err: err}
	}
	slog.Debug("archive extracted", "archive", archivePath, "dir", path, "files", files)

	return d, nil
}

// Release removes d from disk. Releasing nil or an already released
// directory is a no-op.
func (m *Manager) Release(d *Dir) error {
	if d == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked(d)
}

func (m *Manager) releaseLocked(d *Dir) error {
	if d.released {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("remove %s: %w", d.path, err)
	}
	d.released = true
	slog.Debug("released directory", "dir", d.path)
	return nil
}

// ReleaseAll removes every tracked directory that is still on disk.
// All releases are attempted; each failure is logged and the first one is
// returned. Calling ReleaseAll again retries only what failed before.
func (m *Manager) ReleaseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	for _, d := range m.dirs {
		if err := m.releaseLocked(d); err != nil {
			slog.Error("failed to release directory", "dir", d.path, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Tracked returns the number of directories created and not yet released.
func (m *Manager) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, d := range m.dirs {
		if !d.released {
			n++
		}
	}
	return n
}

// Created returns the number of directories created so far.
func (m *Manager) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dirs)
}
