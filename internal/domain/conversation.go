package domain

// ConversationMessage is the minimal transcript entry handed to the prompt
// composer. Slices of it are ordered oldest first.
type ConversationMessage struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Message represents a persisted message in a session timeline (user or Mira).
type Message struct {
	ID        MessageID
	SessionID SessionID
	Sender    Sender
	Text      string
	CreatedAt Timestamp

	// Metadata holds additional information about the message
	Mode        Mode
	IssueTags   []string
	ReplyTo     *MessageID
	ContentType string // e.g., "text", "reframing"
}

// Session represents one conversation between a user and Mira (could last days).
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	Mode  Mode
	Title string
}

// ToConversation converts persisted messages into transcript entries.
func ToConversation(msgs []*Message) []ConversationMessage {
	out := make([]ConversationMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		out = append(out, ConversationMessage{Sender: m.Sender, Text: m.Text})
	}
	return out
}
