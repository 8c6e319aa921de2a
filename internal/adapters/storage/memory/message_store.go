package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.SessionID][]*domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.SessionID][]*domain.Message),
	}
}

func (s *MessageStore) AppendMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], cloneMessage(msg))
	return nil
}

// GetMessagesBySession returns the last `limit` messages, oldest first.
// If limit <= 0, returns all.
func (s *MessageStore) GetMessagesBySession(_ context.Context, sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := tail(s.messages[sessionID], limit)
	for i, m := range out {
		out[i] = cloneMessage(m)
	}
	return out, nil
}

func cloneMessage(m *domain.Message) *domain.Message {
	cp := *m
	cp.IssueTags = slices.Clone(m.IssueTags)
	if m.ReplyTo != nil {
		id := *m.ReplyTo
		cp.ReplyTo = &id
	}
	return &cp
}

// tail copies the last `limit` elements so callers never share the backing array.
func tail[T any](in []T, limit int) []T {
	start := 0
	if limit > 0 && len(in) > limit {
		start = len(in) - limit
	}
	out := make([]T, len(in)-start)
	copy(out, in[start:])
	return out
}
