package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToChatUserId(t *testing.T) {
	cases := []struct {
		member Member
		want   string
	}{
		{Member{Id: 42, Role: RolePlayer}, "pl__42"},
		{Member{Id: 7, Role: RoleCoach}, "co__7"},
		{Member{Id: 3, Role: RoleClub}, "cl__3"},
	}
	for _, c := range cases {
		got, err := c.member.ToChatUserId()
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestToChatUserIdUnknownRole(t *testing.T) {
	m := Member{Id: 1, Role: "agent"}
	_, err := m.ToChatUserId()
	assert.Error(t, err)
}

func TestFromChatUserIdRoundTrip(t *testing.T) {
	for _, role := range []Role{RolePlayer, RoleCoach, RoleClub} {
		orig := Member{Id: 12345, Role: role}
		userId, err := orig.ToChatUserId()
		require.NoError(t, err)

		var parsed Member
		require.NoError(t, parsed.FromChatUserId(userId))
		assert.Equal(t, orig, parsed)
	}
}

func TestFromChatUserIdInvalid(t *testing.T) {
	cases := []string{
		"",
		"pl__",
		"xx__42",
		"pl__abc",
		"42",
	}
	for _, c := range cases {
		var m Member
		assert.Error(t, m.FromChatUserId(c), "expected error for %q", c)
	}
}
