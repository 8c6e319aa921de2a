package httpadapter

import (
	"time"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode,omitempty"`
	Title  string `json:"title,omitempty"`
}

type createSessionResponse struct {
	Session sessionResponse  `json:"session"`
	Welcome *messageResponse `json:"welcome_message,omitempty"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Sender      string    `json:"sender"`
	Text        string    `json:"text"`
	Mode        string    `json:"mode"`
	CreatedAt   time.Time `json:"created_at"`
	IssueTags   []string  `json:"issue_tags,omitempty"`
	ReplyTo     string    `json:"reply_to,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
}

type sendMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	Mode   string `json:"mode,omitempty"`
}

type sendMessageResponse struct {
	UserMessage       messageResponse         `json:"user_message"`
	AgentMessage      messageResponse         `json:"agent_message"`
	SuggestedGoalText *string                 `json:"suggested_goal_text,omitempty"`
	Reframing         *domain.ReframingResult `json:"reframing,omitempty"`
	NotebookEntries   []*domain.NotebookEntry `json:"notebook_entries,omitempty"`
	DetectedIssueTags []string                `json:"detected_issue_tags"`
}

type getSessionResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type reframeRequest struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Thought   string `json:"thought"`
	Context   string `json:"context,omitempty"`
	Save      bool   `json:"save,omitempty"`
}

type reframeResponse struct {
	Result  *domain.ReframingResult `json:"result"`
	SavedID string                  `json:"saved_id,omitempty"`
}

type acceptGoalRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

type addNotebookEntryRequest struct {
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	MBTIType *string `json:"mbti_type"`
}

// ─────────────────────────────────────────────
// Conversion helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Title:     s.Title,
		Mode:      string(s.Mode),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	out := messageResponse{
		ID:          string(m.ID),
		SessionID:   string(m.SessionID),
		Sender:      string(m.Sender),
		Text:        m.Text,
		Mode:        string(m.Mode),
		CreatedAt:   m.CreatedAt,
		IssueTags:   m.IssueTags,
		ContentType: m.ContentType,
	}
	if m.ReplyTo != nil {
		out.ReplyTo = string(*m.ReplyTo)
	}
	return out
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}
