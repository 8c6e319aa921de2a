package memory

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// NotebookStore is a simple in-memory implementation of domain.NotebookStore.
// It is NOT persistent and is only suitable for development / local mode.
type NotebookStore struct {
	mu       sync.RWMutex
	entries  map[domain.NotebookEntryID]*domain.NotebookEntry
	byUserID map[domain.UserID][]domain.NotebookEntryID
}

// NewNotebookStore creates a new in-memory NotebookStore.
func NewNotebookStore() *NotebookStore {
	return &NotebookStore{
		entries:  make(map[domain.NotebookEntryID]*domain.NotebookEntry),
		byUserID: make(map[domain.UserID][]domain.NotebookEntryID),
	}
}

// AppendNotebookEntry saves a new notebook entry.
func (s *NotebookStore) AppendNotebookEntry(_ context.Context, entry *domain.NotebookEntry) error {
	if entry == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// If no ID is provided, generate a simple one based on the current time.
	if entry.ID == "" {
		entry.ID = domain.NotebookEntryID(generateID(time.Now()))
	}

	s.entries[entry.ID] = entry
	s.byUserID[entry.UserID] = append(s.byUserID[entry.UserID], entry.ID)

	return nil
}

// ListNotebookEntriesByUser returns the last `limit` entries for a user.
// If limit <= 0, returns all.
func (s *NotebookStore) ListNotebookEntriesByUser(
	_ context.Context,
	userID domain.UserID,
	limit int,
) ([]*domain.NotebookEntry, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := tail(s.byUserID[userID], limit)
	out := make([]*domain.NotebookEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}

	return out, nil
}

func generateID(t time.Time) string {
	return t.Format("20060102150405.000000000")
}
