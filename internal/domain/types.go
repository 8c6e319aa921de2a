package domain

import "time"

type SessionID string
type UserID string
type MessageID string
type GoalID string
type NotebookEntryID string
type ReframingID string

// Sender identifies who wrote a message in a conversation.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Mode selects the persona Mira speaks with.
type Mode string

const (
	ModeTherapist Mode = "Therapist" // Reflective, validating, CBT-informed
	ModeCoach     Mode = "Coach"     // Goal-oriented, practical next steps
	ModeFriend    Mode = "Friend"    // Warm, casual, supportive
)

// ParseMode maps a user supplied string onto a Mode. Matching is
// case-insensitive; unknown values return false instead of a default.
func ParseMode(s string) (Mode, bool) {
	switch normalize(s) {
	case "therapist":
		return ModeTherapist, true
	case "coach":
		return ModeCoach, true
	case "friend":
		return ModeFriend, true
	default:
		return Mode(s), false
	}
}

type Timestamp = time.Time
