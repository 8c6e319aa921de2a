package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/mira-agent/internal/app/agentflow"
	"github.com/PabloGalante/mira-agent/internal/app/journal"
	"github.com/PabloGalante/mira-agent/internal/app/persona"
	"github.com/PabloGalante/mira-agent/internal/app/tools"
	"github.com/PabloGalante/mira-agent/internal/domain"
	"github.com/PabloGalante/mira-agent/internal/observability"
)

const (
	contentTypeText      = "text"
	contentTypeReframing = "reframing"
)

var welcomeByMode = map[domain.Mode]string{
	domain.ModeTherapist: "Hi, I'm Mira. This is a safe space. What's been on your mind lately?",
	domain.ModeCoach:     "Hi, I'm Mira. What would you like to move forward on today?",
	domain.ModeFriend:    "Hey, it's Mira! How's your day going?",
}

// Service runs conversations: it owns sessions and messages and persists
// what each orchestrated turn produced.
type Service struct {
	sessions     domain.SessionStore
	messages     domain.MessageStore
	journal      *journal.Service
	orchestrator *agentflow.Orchestrator
	now          func() time.Time
	turnTimeout  time.Duration
}

type Option func(*Service)

// WithTurnTimeout bounds each model-backed call. Zero means no bound.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Service) { s.turnTimeout = d }
}

func NewService(llm domain.LLMClient, stores domain.Stores, opts ...Option) *Service {
	s := &Service{
		sessions:     stores.Sessions,
		messages:     stores.Messages,
		journal:      journal.NewService(stores),
		orchestrator: agentflow.NewOrchestrator(llm, agentflow.WithNotebook(tools.NewNotebookTool(stores.Notebook))),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Journal returns the journal service sharing this service's stores.
func (s *Service) Journal() *journal.Service {
	return s.journal
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.turnTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.turnTimeout)
}

func newID() string {
	return uuid.NewString()
}

func resolveMode(m domain.Mode) (domain.Mode, error) {
	if m == "" {
		return domain.ModeTherapist, nil
	}
	if mode, ok := domain.ParseMode(string(m)); ok {
		return mode, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, m)
}

// ─────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────

type StartSessionInput struct {
	UserID domain.UserID
	Mode   domain.Mode
	Title  string
}

type StartSessionOutput struct {
	Session *domain.Session
	Welcome *domain.Message
}

// StartSession creates a session and greets the user in the session's mode.
// An empty mode defaults to Therapist.
func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	if strings.TrimSpace(string(in.UserID)) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	mode, err := resolveMode(in.Mode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID, "mode", mode)
	log.Info("starting new session")

	session := &domain.Session{
		ID:        domain.SessionID(newID()),
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		Mode:      mode,
		Title:     strings.TrimSpace(in.Title),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	welcome := &domain.Message{
		ID:          domain.MessageID(newID()),
		SessionID:   session.ID,
		Sender:      domain.SenderAI,
		Text:        welcomeByMode[mode],
		CreatedAt:   now,
		Mode:        mode,
		ContentType: contentTypeText,
	}
	if err := s.messages.AppendMessage(ctx, welcome); err != nil {
		log.Error("failed to append welcome message", "error", err)
		return nil, err
	}

	log.Info("session started", "session_id", session.ID)
	return &StartSessionOutput{Session: session, Welcome: welcome}, nil
}

// ListSessions returns a user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Session, error) {
	if strings.TrimSpace(string(userID)) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.sessions.ListSessionsByUser(ctx, userID, limit)
}

// GetSessionTimeline returns a session and its last `limit` messages. A
// non-empty userID must own the session; otherwise the session is reported
// as not found, as on the turn path.
func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	userID domain.UserID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"limit", limit,
	)

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}
	if userID != "" && userID != session.UserID {
		return nil, nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	msgs, err := s.messages.GetMessagesBySession(ctx, sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched session timeline", "message_count", len(msgs))
	return session, msgs, nil
}

// ─────────────────────────────────────────
// Turns
// ─────────────────────────────────────────

type SendMessageInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
	// Mode switches the session's mode from this turn on. Empty keeps it.
	Mode domain.Mode
}

type SendMessageOutput struct {
	UserMessage       *domain.Message
	AgentMessage      *domain.Message
	SuggestedGoalText *string
	Reframing         *domain.ReframingResult
	NotebookEntries   []*domain.NotebookEntry
	DetectedIssueTags []string
}

// SendMessage runs one turn. If the orchestrator fails nothing is persisted,
// so the client can keep the user's text and retry.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", domain.ErrInvalidInput)
	}

	session, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if in.UserID != "" && in.UserID != session.UserID {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, in.SessionID)
	}
	if in.Mode != "" {
		mode, err := resolveMode(in.Mode)
		if err != nil {
			return nil, err
		}
		session.Mode = mode
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
		"mode", session.Mode,
	)
	log.Info("sending message", "text_len", len(text))
	log.Debug("user message", "text", text)

	req, err := s.buildRequest(ctx, session, text)
	if err != nil {
		log.Error("failed to load turn context", "error", err)
		return nil, err
	}

	turnCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.orchestrator.GetTherapistResponse(turnCtx, req)
	if err != nil {
		log.Error("orchestrator failed", "error", err)
		return nil, err
	}

	now := s.now()
	userMsg := &domain.Message{
		ID:          domain.MessageID(newID()),
		SessionID:   session.ID,
		Sender:      domain.SenderUser,
		Text:        text,
		CreatedAt:   now,
		Mode:        session.Mode,
		ContentType: contentTypeText,
	}
	agentMsg := &domain.Message{
		ID:          domain.MessageID(newID()),
		SessionID:   session.ID,
		Sender:      domain.SenderAI,
		Text:        resp.Response,
		CreatedAt:   now.Add(time.Millisecond),
		Mode:        session.Mode,
		IssueTags:   resp.DetectedIssueTags,
		ReplyTo:     &userMsg.ID,
		ContentType: contentTypeText,
	}
	if resp.ReframingData != nil {
		agentMsg.ContentType = contentTypeReframing
	}

	if err := s.messages.AppendMessage(ctx, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}
	if err := s.messages.AppendMessage(ctx, agentMsg); err != nil {
		log.Error("failed to append agent message", "error", err)
		return nil, err
	}

	s.recordTurn(ctx, session, resp)

	log.Info("send message completed",
		"tags", len(resp.DetectedIssueTags),
		"goal_suggested", resp.SuggestedGoalText != nil,
		"reframed", resp.ReframingData != nil)

	return &SendMessageOutput{
		UserMessage:       userMsg,
		AgentMessage:      agentMsg,
		SuggestedGoalText: resp.SuggestedGoalText,
		Reframing:         resp.ReframingData,
		DetectedIssueTags: resp.DetectedIssueTags,
		NotebookEntries:   resp.NotebookEntries,
	}, nil
}

// buildRequest loads profile, active goal and recent history concurrently.
func (s *Service) buildRequest(ctx context.Context, session *domain.Session, text string) (domain.TherapistModeRequest, error) {
	var (
		profile *domain.Profile
		goal    *domain.Goal
		history []*domain.Message
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.journal.GetProfile(gctx, session.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		goal, err = s.journal.ActiveGoal(gctx, session.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.messages.GetMessagesBySession(gctx, session.ID, domain.HistoryWindow)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.TherapistModeRequest{}, err
	}

	req := domain.TherapistModeRequest{
		UserInput:      text,
		Mode:           session.Mode,
		MessageHistory: domain.ToConversation(history),
		UserID:         session.UserID,
		SessionID:      session.ID,
	}
	if goal != nil {
		req.Goal = &goal.Text
	}
	if name := strings.TrimSpace(profile.Name); name != "" {
		req.UserName = &name
	}
	if mbti := strings.TrimSpace(profile.MBTIType); mbti != "" {
		req.MBTIType = &mbti
	}
	if summary := journal.DetectedIssuesSummary(profile.IssueCounts); summary != "" {
		req.DetectedIssuesSummary = &summary
	}
	return req, nil
}

// recordTurn persists the turn's side effects. The reply is already stored,
// so failures here are logged and do not fail the turn.
func (s *Service) recordTurn(ctx context.Context, session *domain.Session, resp *domain.TherapistModeResponse) {
	log := observability.LoggerFromContext(ctx).With("session_id", session.ID)

	var g errgroup.Group
	g.Go(func() error {
		return s.journal.RecordIssues(ctx, session.UserID, resp.DetectedIssueTags)
	})
	if resp.ReframingData != nil {
		g.Go(func() error {
			_, err := s.journal.SaveReframing(ctx, session.UserID, session.ID, *resp.ReframingData)
			return err
		})
	}
	for _, entry := range resp.NotebookEntries {
		g.Go(func() error {
			return s.journal.CommitNotebookEntry(ctx, entry)
		})
	}
	g.Go(func() error {
		touched := *session
		touched.UpdatedAt = s.now()
		return s.sessions.UpdateSession(ctx, &touched)
	})

	if err := g.Wait(); err != nil {
		log.Warn("failed to record turn side effects", "error", err)
	}
}

// ─────────────────────────────────────────
// Direct reframing
// ─────────────────────────────────────────

type ReframeInput struct {
	UserID    domain.UserID
	SessionID domain.SessionID
	Thought   string
	Context   string
	// Save stores the result in the user's journal. Requires UserID.
	Save bool
}

type ReframeOutput struct {
	Result *domain.ReframingResult
	Saved  *domain.SavedReframing
}

// ReframeThought reframes a thought outside of a conversation turn.
func (s *Service) ReframeThought(ctx context.Context, in ReframeInput) (*ReframeOutput, error) {
	if in.Save && strings.TrimSpace(string(in.UserID)) == "" {
		return nil, fmt.Errorf("%w: user id is required to save a reframing", domain.ErrInvalidInput)
	}

	rin := domain.ReframeInput{ThoughtToReframe: in.Thought}
	if c := strings.TrimSpace(in.Context); c != "" {
		rin.ConversationContext = &c
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.orchestrator.Reframer().ReframeThought(rctx, rin)
	if err != nil {
		return nil, err
	}

	out := &ReframeOutput{Result: result}
	if in.Save {
		saved, err := s.journal.SaveReframing(ctx, in.UserID, in.SessionID, *result)
		if err != nil {
			return nil, err
		}
		out.Saved = saved
	}
	return out, nil
}

// Modes lists the modes a session can be started in.
func Modes() []domain.Mode {
	return persona.Modes()
}
