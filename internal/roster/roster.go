// Package roster loads and serves the employee name lists. The roster file is
// read-only to this service; it is owned by administrative tooling and only
// consumed here.
package roster

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/caffeinsmuggler/timesheet-ai/internal/match"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// Store holds the current roster snapshot. Reads vastly outnumber reloads, so
// a plain RWMutex around an immutable snapshot is enough.
type Store struct {
	path string

	mu     sync.RWMutex
	roster match.Roster
}

// Load reads the roster file and returns a store serving it. A missing file
// degrades to empty shift lists rather than failing: review simply finds no
// candidates until the roster appears.
func Load(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("roster file missing, starting with empty shift lists", slog.String("path", path))
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Reload re-reads the roster file and swaps the snapshot.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var r match.Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	r.DayShift = sanitize(r.DayShift)
	r.NightShift = sanitize(r.NightShift)
	s.mu.Lock()
	s.roster = r
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current roster.
func (s *Store) Snapshot() match.Roster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster
}

// Search returns up to limit names from the given shift list containing the
// query substring; an empty query returns the head of the list. Serves the
// reviewer autocomplete.
func (s *Store) Search(query string, shift models.Shift, limit int) []string {
	if limit <= 0 {
		limit = 50
	}
	pool := s.Snapshot().PoolFor(shift)
	query = strings.TrimSpace(query)
	out := make([]string, 0, limit)
	for _, name := range pool {
		if query == "" || strings.Contains(name, query) {
			out = append(out, name)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// sanitize trims entries and removes blanks and duplicates, preserving order.
func sanitize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
