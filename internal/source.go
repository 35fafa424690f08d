package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/mod/modfile"

	tt "github.com/gnolang/tclean/internal/types"
)

// ErrModelAccess marks a unit whose text could not be read or written back.
var ErrModelAccess = errors.New("unit not accessible")

// UnitError is a failure confined to one unit of a batch.
type UnitError struct {
	ID  string
	Err error
}

func (e *UnitError) Error() string { return fmt.Sprintf("%s: %v", e.ID, e.Err) }

func (e *UnitError) Unwrap() error { return e.Err }

// Source supplies the current text of a unit.
type Source interface {
	Load(ctx context.Context, id string) (tt.Unit, error)
}

// MemorySource serves units held in memory, keyed by ID.
type MemorySource map[string]tt.Unit

func (m MemorySource) Load(_ context.Context, id string) (tt.Unit, error) {
	u, ok := m[id]
	if !ok {
		return tt.Unit{}, fmt.Errorf("no unit %q", id)
	}
	return u, nil
}

// FileSource reads units from disk. The unit ID is its path; the language
// version comes from the closest go.mod above it.
type FileSource struct {
	mu       sync.Mutex
	versions map[string]string // directory -> go version
}

func NewFileSource() *FileSource {
	return &FileSource{versions: make(map[string]string)}
}

func (s *FileSource) Load(ctx context.Context, path string) (tt.Unit, error) {
	if err := ctx.Err(); err != nil {
		return tt.Unit{}, err
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return tt.Unit{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return tt.Unit{
		ID:        path,
		Path:      path,
		Text:      text,
		GoVersion: s.goVersion(filepath.Dir(path)),
	}, nil
}

// goVersion returns the go directive of the nearest go.mod at or above dir,
// or "" if there is none.
func (s *FileSource) goVersion(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var visited []string
	version := ""
	for {
		if v, ok := s.versions[dir]; ok {
			version = v
			break
		}
		visited = append(visited, dir)
		if v, ok := readGoDirective(filepath.Join(dir, "go.mod")); ok {
			version = v
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	for _, d := range visited {
		s.versions[d] = version
	}
	return version
}

func readGoDirective(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", true
	}
	if f.Go == nil {
		return "", true
	}
	return f.Go.Version, true
}

// Write stores the new text of c, provided the file still holds the text
// the change was computed from.
func (s *FileSource) Write(c *Change) error {
	path := c.Unit.Path
	info, err := os.Stat(path)
	if err != nil {
		return &UnitError{ID: c.Unit.ID, Err: fmt.Errorf("%w: %w", ErrModelAccess, err)}
	}
	current, err := os.ReadFile(path)
	if err != nil {
		return &UnitError{ID: c.Unit.ID, Err: fmt.Errorf("%w: %w", ErrModelAccess, err)}
	}
	if !bytes.Equal(current, c.OldText()) {
		return &UnitError{ID: c.Unit.ID, Err: fmt.Errorf("%w: %s changed since it was read", ErrModelAccess, path)}
	}
	if err := os.WriteFile(path, c.NewText, info.Mode().Perm()); err != nil {
		return &UnitError{ID: c.Unit.ID, Err: fmt.Errorf("writing %s: %w", path, err)}
	}
	return nil
}
