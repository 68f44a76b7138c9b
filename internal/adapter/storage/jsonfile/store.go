package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/port"
)

// HistoryStore keeps job history in a single JSON file. Every write rewrites
// the file through a temp file and a rename.
type HistoryStore struct {
	mu      sync.RWMutex
	path    string
	limit   int
	entries []domain.JobHistoryEntry
}

// NewHistoryStore loads dataDir/history.json. A limit above zero bounds the
// number of entries kept on disk.
func NewHistoryStore(dataDir string, limit int) (*HistoryStore, error) {
	store := &HistoryStore{
		path:  filepath.Join(dataDir, "history.json"),
		limit: limit,
	}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return store, nil
}

func (s *HistoryStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, &s.entries)
}

func (s *HistoryStore) save() error {
	return writeJSON(s.path, s.entries)
}

func (s *HistoryStore) Record(e domain.JobHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e = e.Clone()
	if i := s.indexOf(e.JobID); i >= 0 {
		s.entries[i] = e
	} else {
		s.entries = append(s.entries, e)
	}
	if over := len(s.entries) - s.limit; s.limit > 0 && over > 0 {
		s.entries = slices.Delete(s.entries, 0, over)
	}
	return s.save()
}

// List returns the most recent limit entries, oldest first. A limit below
// one returns everything.
func (s *HistoryStore) List(limit int) ([]domain.JobHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]domain.JobHistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out, nil
}

func (s *HistoryStore) Get(jobID string) (*domain.JobHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(jobID)
	if i < 0 {
		return nil, domain.ErrNotFound
	}

	e := s.entries[i].Clone()
	return &e, nil
}

func (s *HistoryStore) Close() error {
	return nil
}

func (s *HistoryStore) indexOf(jobID string) int {
	return slices.IndexFunc(s.entries, func(e domain.JobHistoryEntry) bool {
		return e.JobID == jobID
	})
}

// ExportHistory writes entries to path as an indented JSON array.
func ExportHistory(path string, entries []domain.JobHistoryEntry) error {
	if entries == nil {
		entries = []domain.JobHistoryEntry{}
	}
	return writeJSON(path, entries)
}

func writeJSON(path string, v any) error {
	tmpPath := path + ".tmp"

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

var _ port.HistoryStore = (*HistoryStore)(nil)
