package httpadapter

import (
	"net/http"

	"github.com/PabloGalante/mira-agent/internal/app/conversation"
	"github.com/PabloGalante/mira-agent/internal/app/journal"
)

type Server struct {
	svc     *conversation.Service
	journal *journal.Service
}

// NewServer builds the JSON API with request-id, logging and CORS middleware.
func NewServer(svc *conversation.Service) http.Handler {
	s := &Server{svc: svc, journal: svc.Journal()}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /modes", s.handleModes)

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/messages", s.handleSendMessage)

	mux.HandleFunc("POST /reframe", s.handleReframe)

	mux.HandleFunc("GET /users/{id}/sessions", s.handleListSessions)
	mux.HandleFunc("GET /users/{id}/goals", s.handleListGoals)
	mux.HandleFunc("POST /users/{id}/goals", s.handleAcceptGoal)
	mux.HandleFunc("POST /users/{id}/goals/{goalID}/complete", s.handleCompleteGoal)
	mux.HandleFunc("GET /users/{id}/notebook", s.handleListNotebook)
	mux.HandleFunc("POST /users/{id}/notebook", s.handleAddNotebookEntry)
	mux.HandleFunc("GET /users/{id}/reframings", s.handleListReframings)
	mux.HandleFunc("GET /users/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /users/{id}/profile", s.handleUpdateProfile)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"modes": conversation.Modes()})
}
