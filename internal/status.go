package internal

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	tt "github.com/gnolang/tclean/internal/types"
)

// ErrFatalRun is returned when a run cannot start or must stop.
var ErrFatalRun = errors.New("fatal run error")

type StatusEntry struct {
	Severity tt.Severity
	Message  string
}

// Status collects pre- and post-condition findings of a run. Error entries
// are fatal.
type Status struct {
	mu      sync.Mutex
	Entries []StatusEntry
}

func (s *Status) add(sev tt.Severity, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, StatusEntry{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

func (s *Status) Warn(format string, args ...any) { s.add(tt.SeverityWarning, format, args...) }

func (s *Status) Fatal(format string, args ...any) { s.add(tt.SeverityError, format, args...) }

// Merge appends the entries of other.
func (s *Status) Merge(other *Status) {
	if other == nil {
		return
	}
	other.mu.Lock()
	entries := append([]StatusEntry(nil), other.Entries...)
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append(s.Entries, entries...)
}

func (s *Status) messages(sev tt.Severity) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.Entries {
		if e.Severity == sev {
			out = append(out, e.Message)
		}
	}
	return out
}

func (s *Status) Warnings() []string { return s.messages(tt.SeverityWarning) }

func (s *Status) HasFatal() bool { return len(s.messages(tt.SeverityError)) > 0 }

// Err returns nil unless a fatal entry was recorded.
func (s *Status) Err() error {
	fatal := s.messages(tt.SeverityError)
	if len(fatal) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFatalRun, strings.Join(fatal, "; "))
}
