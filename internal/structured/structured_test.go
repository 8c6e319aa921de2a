package structured_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/mira-agent/internal/structured"
)

type inner struct {
	Label string `json:"label"`
}

type sample struct {
	Name  string   `json:"name" jsonschema:"description=A name"`
	Tags  []string `json:"tags" jsonschema:"maxItems=3"`
	Inner inner    `json:"inner"`
}

func TestSchema_ClosesObjectsAndRequiresAllProperties(t *testing.T) {
	s := structured.Schema[sample]()

	assert.Equal(t, "object", s["type"])
	assert.Equal(t, false, s["additionalProperties"])
	assert.ElementsMatch(t, []string{"inner", "name", "tags"}, s["required"])
	assert.NotContains(t, s, "$schema")

	props := s["properties"].(map[string]any)
	innerSchema := props["inner"].(map[string]any)
	assert.Equal(t, false, innerSchema["additionalProperties"])
	assert.ElementsMatch(t, []string{"label"}, innerSchema["required"])

	tags := props["tags"].(map[string]any)
	assert.EqualValues(t, 3, tags["maxItems"])
}

func TestDecode(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		var out sample
		require.NoError(t, structured.Decode(`{"name":"a"}`, &out))
		assert.Equal(t, "a", out.Name)
	})

	t.Run("wrapped in prose and fences", func(t *testing.T) {
		var out sample
		text := "Here you go:\n```json\n{\"name\":\"b\",\"tags\":[\"x\"]}\n```"
		require.NoError(t, structured.Decode(text, &out))
		assert.Equal(t, "b", out.Name)
		assert.Equal(t, []string{"x"}, out.Tags)
	})

	t.Run("braces in prose before the object", func(t *testing.T) {
		var out sample
		text := `Sure {here}: {"name":"c","tags":["y"]} hope that helps {:`
		require.NoError(t, structured.Decode(text, &out))
		assert.Equal(t, "c", out.Name)
		assert.Equal(t, []string{"y"}, out.Tags)
	})

	t.Run("mistyped object does not fall back to a nested one", func(t *testing.T) {
		var out sample
		text := `Result: {"name": 5, "inner": {"label": "x"}}`
		assert.Error(t, structured.Decode(text, &out))
		assert.Empty(t, out.Name)
	})

	t.Run("empty", func(t *testing.T) {
		var out sample
		assert.ErrorIs(t, structured.Decode("   ", &out), io.ErrUnexpectedEOF)
	})

	t.Run("no object", func(t *testing.T) {
		var out sample
		assert.Error(t, structured.Decode("I am not JSON", &out))
	})
}
