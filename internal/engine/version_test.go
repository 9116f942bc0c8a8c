package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ProducesValidUUIDs(t *testing.T) {
	g := UUIDv7Generator{}

	a := g.Generate()
	b := g.Generate()

	assert.NotEqual(t, a, b)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedVersionGenerator_RepeatsLastToken(t *testing.T) {
	g := NewFixedVersionGenerator("v-a", "v-b")

	assert.Equal(t, "v-a", g.Generate())
	assert.Equal(t, "v-b", g.Generate())
	assert.Equal(t, "v-b", g.Generate(), "last token repeats")
}

func TestFixedVersionGenerator_DefaultToken(t *testing.T) {
	g := NewFixedVersionGenerator()
	assert.Equal(t, "v-fixed", g.Generate())
}

func TestSequentialVersionGenerator(t *testing.T) {
	g := &SequentialVersionGenerator{}
	assert.Equal(t, "v-1", g.Generate())
	assert.Equal(t, "v-2", g.Generate())
	assert.Equal(t, "v-3", g.Generate())
}
