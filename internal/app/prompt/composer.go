// Package prompt assembles the model payload for one Mira turn.
package prompt

import (
	"strings"

	"github.com/PabloGalante/mira-agent/internal/app/persona"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

const baseSystemPrompt = `
You are "Mira", an AI journaling companion focused on emotional well-being and personal growth.

Your role:
- You listen with empathy and without judgment.
- You help the user understand what they feel, what they need, and what they can do next.
- You are NOT a therapist, doctor, or emergency service and you do NOT give medical or psychiatric diagnoses.

General style guidelines:
- Answer in the SAME LANGUAGE as the user.
- Use simple, everyday language, not technical jargon.
- Never invent facts about the user that are not in the context below.
`

const taskInstructions = `
Task:
1. Validate before you support. Acknowledge what the user shared first. Ask at
   most 1-2 clarifying questions across the conversation, then pivot to concrete
   help (perspective, a technique, or a small next step).
2. Keep the reply to 3-6 sentences. You may go longer only when listing
   concrete strategies the user asked for.
3. suggestedGoalText: fill it ONLY when a concrete next-step goal is clearly
   warranted by the conversation. Phrase it as a short action starting with an
   imperative verb (e.g. "Write down three worries before bed"). Otherwise
   return an empty string.
4. detectedIssueTags: 0-3 short lowercase tags (e.g. "anxiety", "work stress")
   for emotional themes clearly present in the user's latest message. Return an
   empty list when nothing is clear. Never pad.
5. Call the reframe_thought tool ONLY when the user explicitly asks to reframe,
   rethink or see a thought differently. Never call it proactively. When you do,
   pass the user's thought verbatim and weave the result into your reply.
6. Never repeat the internal context notes back to the user word for word.

Return only JSON matching the schema.
`

const (
	noNameMarker = "Not provided"
	noGoalMarker = "No goal set. Do not assume the user has one."
	noMBTIMarker = "Not specified. Do not guess a personality type."
)

// Payload is the composed model input for one turn.
type Payload struct {
	Instructions string
	Body         string

	// History is the trimmed transcript embedded in Body, kept separately
	// for adapters and logging.
	History []domain.ConversationMessage
}

// Compose builds the payload for req. The mode must already be validated;
// an unregistered mode panics.
func Compose(req domain.TherapistModeRequest) Payload {
	instructions := persona.Instructions(req.Mode)
	history := TrimHistory(req.MessageHistory, domain.HistoryWindow)

	var system strings.Builder
	system.WriteString(strings.TrimSpace(baseSystemPrompt))
	system.WriteString("\n\n")
	system.WriteString(strings.TrimSpace(instructions))
	system.WriteString("\n\n")
	system.WriteString(strings.TrimSpace(taskInstructions))

	var body strings.Builder
	body.WriteString(contextBlock(req))
	body.WriteString("\n")
	body.WriteString(transcript(history))
	body.WriteString("\nLatest user message (respond to this):\n")
	body.WriteString(req.UserInput)

	return Payload{
		Instructions: system.String(),
		Body:         body.String(),
		History:      history,
	}
}

// TrimHistory returns the n most recent messages, oldest first. The result
// never aliases the caller's slice.
func TrimHistory(history []domain.ConversationMessage, n int) []domain.ConversationMessage {
	if n <= 0 || len(history) == 0 {
		return []domain.ConversationMessage{}
	}
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	out := make([]domain.ConversationMessage, len(history)-start)
	copy(out, history[start:])
	return out
}

func contextBlock(req domain.TherapistModeRequest) string {
	var b strings.Builder
	b.WriteString("User context:\n")
	b.WriteString("- Name: " + valueOr(req.UserName, noNameMarker) + "\n")
	b.WriteString("- Active goal: " + valueOr(req.Goal, noGoalMarker) + "\n")
	b.WriteString("- MBTI type: " + valueOr(req.MBTIType, noMBTIMarker) + "\n")

	if s := strings.TrimSpace(deref(req.DetectedIssuesSummary)); s != "" {
		b.WriteString("- Recurring themes (INTERNAL CONTEXT ONLY, do not quote to the user): " + s + "\n")
	}
	return b.String()
}

func transcript(history []domain.ConversationMessage) string {
	if len(history) == 0 {
		return "Conversation so far: (this is the first message)\n"
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range history {
		b.WriteString(speakerLabel(m.Sender))
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func speakerLabel(s domain.Sender) string {
	if s == domain.SenderAI {
		return "Mira"
	}
	return "User"
}

func valueOr(p *string, marker string) string {
	if s := strings.TrimSpace(deref(p)); s != "" {
		return s
	}
	return marker
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
