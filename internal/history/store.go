// Package history persists a bounded, newest-first record of executed
// requests. It consumes the request log shape produced by the engine.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/unkn0wn-root/reqrun/internal/errdef"
	"github.com/unkn0wn-root/reqrun/internal/model"
)

type Entry struct {
	ID          string    `json:"id"`
	ExecutedAt  time.Time `json:"executedAt"`
	Project     string    `json:"project,omitempty"`
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	Status      int       `json:"status"`
	Error       string    `json:"error,omitempty"`
	Redirects   int       `json:"redirects,omitempty"`
	LoadingTime int64     `json:"loadingTime,omitempty"`
	SizeRequest int64     `json:"sizeRequest,omitempty"`
	SizeReply   int64     `json:"sizeResponse,omitempty"`
}

// FromLog summarizes a request log into a history entry.
func FromLog(project string, log *model.RequestLog) Entry {
	entry := Entry{
		ID:         log.ID,
		ExecutedAt: time.Now(),
		Project:    project,
		Redirects:  len(log.Redirects),
	}
	if log.Request != nil {
		entry.Method = log.Request.Method
		entry.URL = log.Request.URL
	}
	if log.Response != nil {
		entry.Status = log.Response.Status
		entry.LoadingTime = log.Response.LoadingTime
		if log.Response.Error != nil {
			entry.Error = log.Response.Error.Message
		}
	}
	if log.Size != nil {
		entry.SizeRequest = log.Size.Request
		entry.SizeReply = log.Size.Response
	}
	return entry
}

type Store struct {
	path       string
	maxEntries int
	entries    []Entry
	mu         sync.RWMutex
	loaded     bool
}

// NewStore creates a file backed history store with a bounded entry list.
func NewStore(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Store{path: path, maxEntries: maxEntries}
}

// Load reads the persisted history file, tolerating missing files and
// ensuring the entries are sorted newest first.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.entries = []Entry{}
			s.loaded = true
			return nil
		}
		return errdef.Wrap(errdef.CodeHistory, err, "read history")
	}

	if len(data) == 0 {
		s.entries = []Entry{}
		s.loaded = true
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "parse history")
	}

	s.sortEntriesLocked()
	s.loaded = true
	return nil
}

// Append records a new history entry, enforcing the max entry limit and
// persisting to disk.
func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.loadLocked(); err != nil {
			return err
		}
	}

	s.entries = append([]Entry{entry}, s.entries...)
	s.sortEntriesLocked()
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries]
	}

	return s.persist()
}

// Entries returns a copy of all entries so callers cannot mutate internal
// slices.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copies := make([]Entry, len(s.entries))
	copy(copies, s.entries)
	return copies
}

// Delete removes an entry by id and reports whether a record was removed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.loadLocked(); err != nil {
			return false, err
		}
	}

	idx := -1
	for i, entry := range s.entries {
		if entry.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	copy(s.entries[idx:], s.entries[idx+1:])
	s.entries = s.entries[:len(s.entries)-1]

	if err := s.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// ByURL returns entries matching a request URL, newest first.
func (s *Store) ByURL(url string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, entry := range s.entries {
		if entry.URL == url {
			matched = append(matched, entry)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return newerFirst(matched[i], matched[j])
	})
	return matched
}

// persist atomically writes the history file by first writing to a temp
// file and renaming it into place. Caller must hold the lock.
func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "create history dir")
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode history")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "write history tmp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "replace history file")
	}
	return nil
}

func (s *Store) sortEntriesLocked() {
	if len(s.entries) < 2 {
		return
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		return newerFirst(s.entries[i], s.entries[j])
	})
}

// newerFirst compares two entries prioritizing executed timestamps and
// falling back to ids for deterministic ordering.
func newerFirst(a, b Entry) bool {
	switch {
	case a.ExecutedAt.IsZero() && b.ExecutedAt.IsZero():
		return a.ID > b.ID
	case a.ExecutedAt.IsZero():
		return false
	case b.ExecutedAt.IsZero():
		return true
	case a.ExecutedAt.Equal(b.ExecutedAt):
		return a.ID > b.ID
	default:
		return a.ExecutedAt.After(b.ExecutedAt)
	}
}
