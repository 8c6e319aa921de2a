package httpadapter

import (
	"net/http"

	"github.com/PabloGalante/mira-agent/internal/app/journal"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

func userID(r *http.Request) domain.UserID {
	return domain.UserID(r.PathValue("id"))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	status := domain.GoalStatus(r.URL.Query().Get("status"))
	goals, err := s.journal.ListGoals(r.Context(), userID(r), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": nonNil(goals)})
}

func (s *Server) handleAcceptGoal(w http.ResponseWriter, r *http.Request) {
	var req acceptGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	goal, err := s.journal.AcceptGoal(r.Context(), journal.AcceptGoalInput{
		UserID:    userID(r),
		SessionID: domain.SessionID(req.SessionID),
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.journal.CompleteGoal(r.Context(), userID(r), domain.GoalID(r.PathValue("goalID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleListNotebook(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	entries, err := s.journal.ListNotebook(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries)})
}

func (s *Server) handleAddNotebookEntry(w http.ResponseWriter, r *http.Request) {
	var req addNotebookEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := s.journal.AddNotebookEntry(r.Context(), journal.AddNotebookEntryInput{
		UserID:    userID(r),
		SessionID: domain.SessionID(req.SessionID),
		Title:     req.Title,
		Text:      req.Text,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListReframings(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	list, err := s.journal.ListReframings(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reframings": nonNil(list)})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.journal.GetProfile(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.journal.UpdateProfile(r.Context(), journal.UpdateProfileInput{
		UserID:   userID(r),
		Name:     req.Name,
		MBTIType: req.MBTIType,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
