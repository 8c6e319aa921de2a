package domain

// TherapistModeRequest is everything the orchestrator needs for one turn.
// Optional fields are pointers so absence stays distinguishable from "".
type TherapistModeRequest struct {
	UserInput             string
	Mode                  Mode
	Goal                  *string
	MessageHistory        []ConversationMessage
	MBTIType              *string
	UserName              *string
	DetectedIssuesSummary *string

	// UserID and SessionID are only used by tools with side effects
	// (the notebook). They never reach the prompt.
	UserID    UserID
	SessionID SessionID
}

// TherapistModeResponse is the validated result of one turn. It is either
// fully populated or not returned at all.
type TherapistModeResponse struct {
	Response          string           `json:"response"`
	SuggestedGoalText *string          `json:"suggestedGoalText,omitempty"`
	ReframingData     *ReframingResult `json:"reframingData,omitempty"`
	DetectedIssueTags []string         `json:"detectedIssueTags,omitempty"`

	// NotebookEntries are saves the model asked for during the turn. They are
	// not stored yet; the caller persists them.
	NotebookEntries []*NotebookEntry `json:"-"`
}

// ReframeInput is the input of the reframing capability.
type ReframeInput struct {
	ThoughtToReframe    string
	ConversationContext *string
}

// ReframingResult is a structured cognitive reframing of one thought.
type ReframingResult struct {
	OriginalThought        string   `json:"originalThought"`
	ReframedThought        string   `json:"reframedThought"`
	AlternativePerspective string   `json:"alternativePerspective"`
	SupportingEvidence     []string `json:"supportingEvidence"`
}

// MaxDetectedIssueTags bounds DetectedIssueTags in a single response.
const MaxDetectedIssueTags = 3

// MaxIssueTagRunes bounds the length of a single detected issue tag.
const MaxIssueTagRunes = 40

// HistoryWindow is the number of most recent messages used for composition.
const HistoryWindow = 10
