package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrOutsideRoot is returned when Release is asked to remove a path that
// the manager did not allocate under its root.
var ErrOutsideRoot = errors.New("workspace: path outside root")

// Manager allocates private scratch directories for batch jobs.
//
// Layout: <root>/jobs/<jobID>-<unixnano>
//
// Each directory is owned by exactly one job. Release is idempotent and
// safe to call from several goroutines.
type Manager struct {
	root string

	mu     sync.Mutex
	active map[string]struct{}
	now    func() time.Time
}

// NewManager creates a manager rooted at root. The root itself is created
// on first allocation.
func NewManager(root string) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	return &Manager{
		root:   filepath.Clean(abs),
		active: make(map[string]struct{}),
		now:    time.Now,
	}, nil
}

// Root returns the absolute root directory.
func (m *Manager) Root() string {
	return m.root
}

// Allocate creates a fresh workspace for jobID and returns its path.
//
// The directory is created eagerly so an unwritable root fails before any
// fetch starts. jobID must be a single path element.
func (m *Manager) Allocate(jobID string) (string, error) {
	if jobID == "" || jobID != filepath.Base(jobID) || jobID == "." || jobID == ".." || strings.ContainsAny(jobID, `/\`) {
		return "", fmt.Errorf("workspace: invalid job id %q", jobID)
	}

	jobs := filepath.Join(m.root, "jobs")
	if err := os.MkdirAll(jobs, 0755); err != nil {
		return "", fmt.Errorf("failed to create workspace root: %w", err)
	}

	path := filepath.Join(jobs, jobID+"-"+strconv.FormatInt(m.now().UnixNano(), 10))
	if err := os.Mkdir(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}

	m.mu.Lock()
	m.active[path] = struct{}{}
	m.mu.Unlock()

	return path, nil
}

// Release removes a workspace and everything in it. A path that no longer
// exists counts as released.
func (m *Manager) Release(path string) error {
	if path == "" {
		return nil
	}
	clean := filepath.Clean(path)
	if !m.within(clean) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	m.mu.Lock()
	delete(m.active, clean)
	m.mu.Unlock()

	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("failed to release workspace: %w", err)
	}
	return nil
}

// within reports whether path is strictly below <root>/jobs.
func (m *Manager) within(path string) bool {
	rel, err := filepath.Rel(filepath.Join(m.root, "jobs"), path)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// Active returns the number of allocated workspaces not yet released.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// ReleaseAll removes every workspace still held. It is meant for shutdown.
func (m *Manager) ReleaseAll() error {
	m.mu.Lock()
	paths := make([]string, 0, len(m.active))
	for p := range m.active {
		paths = append(paths, p)
	}
	m.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := m.Release(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
