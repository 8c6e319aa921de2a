package memory

import "github.com/PabloGalante/mira-agent/internal/domain"

// NewStores wires a full in-memory backend.
func NewStores() domain.Stores {
	return domain.Stores{
		Sessions:   NewSessionStore(),
		Messages:   NewMessageStore(),
		Goals:      NewGoalStore(),
		Notebook:   NewNotebookStore(),
		Reframings: NewReframingStore(),
		Profiles:   NewProfileStore(),
	}
}
