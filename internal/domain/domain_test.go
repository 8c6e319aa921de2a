package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/mira-agent/internal/domain"
)

func TestParseMode(t *testing.T) {
	cases := map[string]struct {
		want domain.Mode
		ok   bool
	}{
		"Therapist": {domain.ModeTherapist, true},
		"  coach ":  {domain.ModeCoach, true},
		"FRIEND":    {domain.ModeFriend, true},
		"":          {"", false},
		"counselor": {"counselor", false},
	}
	for in, tc := range cases {
		got, ok := domain.ParseMode(in)
		assert.Equal(t, tc.ok, ok, in)
		assert.Equal(t, tc.want, got, in)
	}
}

func TestToConversationSkipsNil(t *testing.T) {
	msgs := []*domain.Message{
		{Sender: domain.SenderUser, Text: "hi"},
		nil,
		{Sender: domain.SenderAI, Text: "hello"},
	}
	assert.Equal(t, []domain.ConversationMessage{
		{Sender: domain.SenderUser, Text: "hi"},
		{Sender: domain.SenderAI, Text: "hello"},
	}, domain.ToConversation(msgs))

	assert.Empty(t, domain.ToConversation(nil))
}

func TestErrorsWrap(t *testing.T) {
	err := fmt.Errorf("%w: bad", domain.ErrInvalidInput)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.False(t, errors.Is(err, domain.ErrGenerationFailure))
}
