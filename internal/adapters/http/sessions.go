package httpadapter

import (
	"net/http"

	"github.com/PabloGalante/mira-agent/internal/app/conversation"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.svc.StartSession(r.Context(), conversation.StartSessionInput{
		UserID: domain.UserID(req.UserID),
		Mode:   domain.Mode(req.Mode),
		Title:  req.Title,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := createSessionResponse{Session: toSessionResponse(out.Session)}
	if out.Welcome != nil {
		m := toMessageResponse(out.Welcome)
		resp.Welcome = &m
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	session, msgs, err := s.svc.GetSessionTimeline(
		r.Context(),
		domain.SessionID(r.PathValue("id")),
		domain.UserID(r.URL.Query().Get("user_id")),
		limit,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, getSessionResponse{
		Session:  toSessionResponse(session),
		Messages: toMessagesResponse(msgs),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	sessions, err := s.svc.ListSessions(r.Context(), domain.UserID(r.PathValue("id")), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), conversation.SendMessageInput{
		SessionID: domain.SessionID(r.PathValue("id")),
		UserID:    domain.UserID(req.UserID),
		Text:      req.Text,
		Mode:      domain.Mode(req.Mode),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	tags := out.DetectedIssueTags
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:       toMessageResponse(out.UserMessage),
		AgentMessage:      toMessageResponse(out.AgentMessage),
		SuggestedGoalText: out.SuggestedGoalText,
		Reframing:         out.Reframing,
		NotebookEntries:   out.NotebookEntries,
		DetectedIssueTags: tags,
	})
}

func (s *Server) handleReframe(w http.ResponseWriter, r *http.Request) {
	var req reframeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := s.svc.ReframeThought(r.Context(), conversation.ReframeInput{
		UserID:    domain.UserID(req.UserID),
		SessionID: domain.SessionID(req.SessionID),
		Thought:   req.Thought,
		Context:   req.Context,
		Save:      req.Save,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := reframeResponse{Result: out.Result}
	if out.Saved != nil {
		resp.SavedID = string(out.Saved.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}
