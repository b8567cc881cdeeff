package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePairSymmetry(t *testing.T) {
	p1, err := NormalizePair("pl__42", "co__7")
	require.NoError(t, err)
	p2, err := NormalizePair("co__7", "pl__42")
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, p1.ConversationId(), p2.ConversationId())
}

func TestNormalizePairOrdering(t *testing.T) {
	p, err := NormalizePair("pl__9", "cl__3")
	require.NoError(t, err)

	assert.Equal(t, "cl__3", p.Low)
	assert.Equal(t, "pl__9", p.High)
	assert.Equal(t, "dm_cl__3:pl__9", p.ConversationId())
}

func TestNormalizePairRejectsSelf(t *testing.T) {
	_, err := NormalizePair("pl__42", "pl__42")
	assert.Error(t, err)
}

func TestNormalizePairRejectsEmpty(t *testing.T) {
	_, err := NormalizePair("", "pl__42")
	assert.Error(t, err)

	_, err = NormalizePair("pl__42", "")
	assert.Error(t, err)
}

func TestParseConversationIdRoundTrip(t *testing.T) {
	p, err := NormalizePair("co__7", "pl__42")
	require.NoError(t, err)

	parsed, err := ParseConversationId(p.ConversationId())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestParseConversationIdSupportsUnderscoreIds(t *testing.T) {
	// Ids carry "_" themselves; the ":" separator keeps parsing unambiguous
	parsed, err := ParseConversationId("dm_cl__3:pl__42")
	require.NoError(t, err)
	assert.Equal(t, "cl__3", parsed.Low)
	assert.Equal(t, "pl__42", parsed.High)
}

func TestParseConversationIdRejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"pl__42:co__7",        // missing prefix
		"dm_pl__42",           // no separator
		"dm_:pl__42",          // empty low
		"dm_pl__42:",          // empty high
		"dm_pl__42:co__7",     // not canonical order
		"dm_pl__42:pl__42",    // self pair
		"group_pl__42:co__7",  // wrong prefix
	}
	for _, c := range cases {
		_, err := ParseConversationId(c)
		assert.Error(t, err, "expected error for %q", c)
	}
}

func TestPairHasAndCounterpart(t *testing.T) {
	p, err := NormalizePair("co__7", "pl__42")
	require.NoError(t, err)

	assert.True(t, p.Has("co__7"))
	assert.True(t, p.Has("pl__42"))
	assert.False(t, p.Has("cl__1"))

	other, err := p.CounterpartOf("co__7")
	require.NoError(t, err)
	assert.Equal(t, "pl__42", other)

	other, err = p.CounterpartOf("pl__42")
	require.NoError(t, err)
	assert.Equal(t, "co__7", other)

	_, err = p.CounterpartOf("cl__1")
	assert.Error(t, err)
}

func TestIsDirectConversation(t *testing.T) {
	assert.True(t, IsDirectConversation("dm_a:b"))
	assert.False(t, IsDirectConversation("pending_pl__42"))
	assert.False(t, IsDirectConversation("dm_b:a"))
}
