package persona_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/mira-agent/internal/app/persona"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

func TestEveryModeHasInstructions(t *testing.T) {
	for _, m := range []domain.Mode{domain.ModeTherapist, domain.ModeCoach, domain.ModeFriend} {
		s, ok := persona.Lookup(m)
		assert.True(t, ok, "mode %s", m)
		assert.NotEmpty(t, strings.TrimSpace(s), "mode %s", m)
		assert.Contains(t, s, string(m))
	}
	assert.Len(t, persona.Modes(), 3)
}

func TestInstructions_UnknownModePanics(t *testing.T) {
	_, ok := persona.Lookup("Guru")
	assert.False(t, ok)
	assert.Panics(t, func() { persona.Instructions("Guru") })
}

func TestModes_ReturnsCopy(t *testing.T) {
	m := persona.Modes()
	m[0] = "Changed"
	assert.Equal(t, domain.ModeTherapist, persona.Modes()[0])
}
