package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"chat", "draw", "speak"} {
		c, err := Parse(s)
		assert.NoError(t, err)
		assert.Equal(t, s, c.String())
	}

	_, err := Parse("transcribe")
	assert.Error(t, err)
}

func TestSet_SupportsAndModels(t *testing.T) {
	set, unknown := NewSet(map[string][]ModelSpec{
		"chat":  {{Name: "gpt-4", Weight: 100}},
		"video": {{Name: "nope", Weight: 1}},
	})

	assert.Equal(t, []string{"video"}, unknown)
	assert.True(t, set.Supports(Chat))
	assert.False(t, set.Supports(Draw))
	assert.False(t, set.Supports(Speak))

	models := set.ModelsFor(Chat)
	assert.Len(t, models, 1)
	assert.Equal(t, "gpt-4", models[0].Name)

	// Absence is emptiness, not an error.
	assert.Nil(t, set.ModelsFor(Speak))
}

func TestSet_ModelsForReturnsCopy(t *testing.T) {
	set, _ := NewSet(map[string][]ModelSpec{
		"chat": {{Name: "a", Weight: 1}, {Name: "b", Weight: 2}},
	})

	models := set.ModelsFor(Chat)
	models[0].Name = "mutated"

	assert.Equal(t, "a", set.ModelsFor(Chat)[0].Name)
}

func TestSet_List(t *testing.T) {
	set, _ := NewSet(map[string][]ModelSpec{
		"speak": {{Name: "v1", Weight: 1}},
		"chat":  {{Name: "m", Weight: 1}},
	})

	// Declaration order of the closed enum, not map order.
	assert.Equal(t, []Capability{Chat, Speak}, set.List())
}
